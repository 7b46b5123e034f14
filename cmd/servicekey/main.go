package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/campusgrid/campus-api/database"
	"github.com/campusgrid/campus-api/utils/auth"
)

// Issues a service key for a server-to-server caller (the identity provider's
// webhook delivery). The raw secret is printed once and never stored.
func main() {
	name := flag.String("name", "", "name of the service key, e.g. identity-webhook")
	flag.Parse()

	if *name == "" {
		log.Fatal("usage: servicekey -name <caller-name>")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	gormDB := store.GetDB().(*gorm.DB)
	manager := auth.NewServiceKeyManager(gormDB)

	secret, err := manager.Issue(context.Background(), *name)
	if err != nil {
		log.Fatalf("Failed to issue service key: %v", err)
	}

	fmt.Printf("Service key %q issued.\n", *name)
	fmt.Println("Store this secret now; it cannot be recovered later:")
	fmt.Println()
	fmt.Println("  " + secret)
}
