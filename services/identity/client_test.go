package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(serverURL string) *Client {
	c := NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    serverURL,
		Timeout:    2 * time.Second,
		MaxRetries: 2,
	})
	c.backoff = time.Millisecond
	return c
}

func TestDeleteUser(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := testClient(server.URL)
	if err := client.DeleteUser(context.Background(), "idp_123"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/v1/users/idp_123" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestDeleteUserNotFoundIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(server.URL)
	err := client.DeleteUser(context.Background(), "idp_gone")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestDeleteUserRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := testClient(server.URL)
	if err := client.DeleteUser(context.Background(), "idp_retry"); err != nil {
		t.Fatalf("DeleteUser after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDeleteUserGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient(server.URL)
	if err := client.DeleteUser(context.Background(), "idp_down"); err == nil {
		t.Fatal("expected error when provider keeps failing")
	}
	if calls != 3 { // initial attempt + 2 retries
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestReleaseAccountLogsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	client := testClient(server.URL)
	client.ReleaseAccount(context.Background(), "idp_orphan")

	if !strings.Contains(buf.String(), "idp_orphan") {
		t.Errorf("expected the orphaned account id in the log, got %q", buf.String())
	}
}

func TestReleaseAccountQuietWhenGone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	client := testClient(server.URL)
	client.ReleaseAccount(context.Background(), "idp_gone")

	if buf.Len() != 0 {
		t.Errorf("already-gone account should not be logged, got %q", buf.String())
	}
}

func TestCreateUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req CreateAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Account{ID: "idp_new", Email: req.Email, Name: req.Name, Role: req.Role})
	}))
	defer server.Close()

	client := testClient(server.URL)
	account, err := client.CreateUser(context.Background(), CreateAccountRequest{
		Email: "new@example.edu",
		Name:  "New User",
		Role:  "student",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if account.ID != "idp_new" || account.Email != "new@example.edu" {
		t.Errorf("unexpected account: %+v", account)
	}
}

func TestVerifySession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/sessions/verify" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["token"] != "valid-session" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(Account{ID: "idp_1", Email: "a@example.edu"})
	}))
	defer server.Close()

	client := testClient(server.URL)

	account, err := client.VerifySession(context.Background(), "valid-session")
	if err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if account.ID != "idp_1" {
		t.Errorf("account.ID = %q", account.ID)
	}

	_, err = client.VerifySession(context.Background(), "bogus")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("invalid session: got %v, want ErrUserNotFound", err)
	}
}
