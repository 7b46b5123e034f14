package cascade

import (
	"context"
	"log"

	"github.com/campusgrid/campus-api/utils/cache"
	"gorm.io/gorm"
)

// Service is the entry point for entity deletion: Resolver -> Planner ->
// Executor, plus cache invalidation once a cascade has committed.
type Service struct {
	resolver *Resolver
	planner  *Planner
	executor *Executor
	cache    *cache.RedisCache
}

// NewService creates a cascade deletion service. cacheClient and blobs may be
// nil when redis / object storage are not configured.
func NewService(db *gorm.DB, identityClient IdentityDeleter, blobs BlobRemover, cacheClient *cache.RedisCache) *Service {
	return &Service{
		resolver: NewResolver(db),
		planner:  NewPlanner(db),
		executor: NewExecutor(db, identityClient, blobs),
		cache:    cacheClient,
	}
}

// Delete removes the aggregate root (kind, id) and everything that depends
// on it, on behalf of the tenant universityID.
//
// Returns ErrNotFound, *MalformedGraphError or *TransactionError when
// nothing was deleted, and *CleanupError (with a non-nil Summary) when the
// relational deletion committed but external cleanup is incomplete.
func (s *Service) Delete(ctx context.Context, kind Kind, id uint, universityID uint) (*Summary, error) {
	root, err := s.resolver.Resolve(ctx, kind, id, universityID)
	if err != nil {
		return nil, err
	}

	plan, err := s.planner.Plan(ctx, root)
	if err != nil {
		return nil, err
	}

	summary, err := s.executor.Execute(ctx, plan)
	if _, committed := err.(*CleanupError); err != nil && !committed {
		return nil, err
	}

	// Rows under the deleted root may be cached at any depth, so the whole
	// tenant namespace is dropped rather than chasing individual keys.
	if s.cache != nil {
		if cerr := s.cache.DeletePattern(ctx, tenantCachePattern(universityID)); cerr != nil {
			log.Printf("cascade: cache invalidation failed: %v", cerr)
		}
	}

	return summary, err
}

func tenantCachePattern(universityID uint) string {
	return cache.TenantKeyPrefix(universityID) + "*"
}
