package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pazaryeri/backend/internal/models"
)

const roleCacheTTL = 5 * time.Minute

// AuthzService centralizes role checks. Every protected operation
// resolves the caller through here instead of repeating inline role
// queries per endpoint. Profile lookups are cached in Redis with a
// short TTL and fall back to Postgres when the cache is unavailable.
type AuthzService struct {
	db    *sql.DB
	redis *redis.Client
}

func NewAuthzService(db *sql.DB, redisClient *redis.Client) *AuthzService {
	return &AuthzService{
		db:    db,
		redis: redisClient,
	}
}

// ResolveSeller maps an authenticated user id to its seller profile id.
// Returns ErrSellerNotFound when no seller profile matches the caller.
func (s *AuthzService) ResolveSeller(ctx context.Context, userID string) (string, error) {
	profileID, role, err := s.lookupProfile(ctx, userID)
	if err == sql.ErrNoRows {
		return "", ErrSellerNotFound
	}
	if err != nil {
		return "", err
	}
	if role != models.RoleSeller {
		return "", ErrSellerNotFound
	}
	return profileID, nil
}

// RequireAdmin verifies the caller holds the admin role.
func (s *AuthzService) RequireAdmin(ctx context.Context, userID string) error {
	_, role, err := s.lookupProfile(ctx, userID)
	if err == sql.ErrNoRows {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if role != models.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func (s *AuthzService) lookupProfile(ctx context.Context, userID string) (string, string, error) {
	cacheKey := fmt.Sprintf("profile:%s", userID)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			parts := strings.SplitN(cached, "|", 2)
			if len(parts) == 2 {
				return parts[0], parts[1], nil
			}
		}
	}

	var profileID, role string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, role FROM profiles WHERE user_id = $1`, userID).
		Scan(&profileID, &role)
	if err != nil {
		return "", "", err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKey, profileID+"|"+role, roleCacheTTL).Err(); err != nil {
			log.Printf("[AUTHZ] Failed to cache profile for user %s: %v", userID, err)
		}
	}

	return profileID, role, nil
}
