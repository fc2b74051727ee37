package services

import (
	"context"
	"strings"

	"coursepay-api/internal/models"
	"coursepay-api/pkg/logging"

	"go.uber.org/zap"
)

// AccessCache stores access answers between requests.
type AccessCache interface {
	Get(ctx context.Context, userID uint, courseID string) (models.Access, bool, error)
	Set(ctx context.Context, userID uint, courseID string, access models.Access) error
}

// AccessService answers "may this user open this course".
type AccessService struct {
	store Store
	cache AccessCache
	log   *zap.Logger
}

// NewAccessService creates the service. cache may be nil.
func NewAccessService(store Store, cache AccessCache, log *zap.Logger) *AccessService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccessService{store: store, cache: cache, log: log}
}

// CheckAccess reads through the cache. Cache failures fall back to the store.
func (s *AccessService) CheckAccess(ctx context.Context, userID uint, courseID string) (models.Access, error) {
	courseID = strings.TrimSpace(courseID)
	log := logging.FromContext(ctx, s.log).With(zap.Uint("user_id", userID), zap.String("course_id", courseID))

	if s.cache != nil {
		access, found, err := s.cache.Get(ctx, userID, courseID)
		if err != nil {
			log.Warn("Access cache read failed", zap.Error(err))
		} else if found {
			return access, nil
		}
	}

	access, err := s.store.FindUserAccess(ctx, userID, courseID)
	if err != nil {
		return models.Access{}, &PersistenceError{Op: "find user access", Err: err}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, courseID, access); err != nil {
			log.Warn("Access cache write failed", zap.Error(err))
		}
	}
	return access, nil
}
