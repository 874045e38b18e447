package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
)

const (
	orgCacheKey = "sbo:orgs:all"
	orgCacheTTL = 10 * time.Minute
)

// OrgService serves the org reference rows with a Redis read-through cache.
// The rows change only at deploy time, so the cache is a plain TTL with no
// invalidation hook; a cache miss or Redis outage falls back to the store.
type OrgService struct {
	repo OrgSource
	rdb  *redis.Client
	log  *zap.Logger
}

func NewOrgService(repo OrgSource, rdb *redis.Client, log *zap.Logger) *OrgService {
	return &OrgService{repo: repo, rdb: rdb, log: log}
}

// FetchAll returns every org, cached.
func (s *OrgService) FetchAll(ctx context.Context) ([]entity.Org, error) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, orgCacheKey).Bytes()
		if err == nil {
			var orgs []entity.Org
			if err := json.Unmarshal(raw, &orgs); err == nil {
				return orgs, nil
			}
		} else if err != redis.Nil {
			s.log.Warn("org cache read", zap.Error(err))
		}
	}

	orgs, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(orgs); err == nil {
			if err := s.rdb.Set(ctx, orgCacheKey, raw, orgCacheTTL).Err(); err != nil {
				s.log.Warn("org cache write", zap.Error(err))
			}
		}
	}
	return orgs, nil
}

// ParentOrgs returns the static parent-org enumeration.
func (s *OrgService) ParentOrgs() []string {
	out := make([]string, len(entity.ParentOrgs))
	copy(out, entity.ParentOrgs)
	return out
}
