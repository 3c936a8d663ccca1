package profile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	profileerrors "go-timeoff/internal/profile/errors"
	"go-timeoff/internal/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const DetailKeyPrefix = "profiles:detail:"

func GetDetailKey(userID string) string {
	return DetailKeyPrefix + userID
}

//go:generate mockgen -source=profile_service.go -destination=mock/profile_service_mock.go -package=mock
type Service interface {
	Get(ctx context.Context, companyID, userID string) (ProfileResponse, error)
	Save(ctx context.Context, companyID, userID string, req SaveProfileRequest) (ProfileResponse, error)
}

type service struct {
	repo   Repository
	feed   store.ChangeFeed
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, feed store.ChangeFeed, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("profile.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("profile.service")
	}
	return &service{repo: repo, feed: feed, rdb: rdb, sf: &singleflight.Group{}, logger: l}
}

func (s *service) Get(ctx context.Context, companyID, userID string) (ProfileResponse, error) {
	cacheKey := GetDetailKey(userID)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp ProfileResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	// Singleflight collapses concurrent cache misses for the same user
	// into one database read.
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		p, err := s.repo.FindByID(ctx, companyID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ProfileResponse{}, profileerrors.ErrProfileNotFound
			}
			return ProfileResponse{}, err
		}
		resp := mapToResponse(*p)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, 30*time.Minute)
			}
		}
		return resp, nil
	})
	if err != nil {
		return ProfileResponse{}, err
	}
	return v.(ProfileResponse), nil
}

func (s *service) Save(ctx context.Context, companyID, userID string, req SaveProfileRequest) (ProfileResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return ProfileResponse{}, profileerrors.ErrInvalidUserID
	}
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return ProfileResponse{}, profileerrors.ErrInvalidCompanyID
	}

	balance := float64(DefaultPtoBalanceHours)
	if req.Role == "management" {
		balance = 0
	}
	if req.PtoBalance != nil {
		balance = *req.PtoBalance
	}

	p := &Profile{
		ID:              userUUID,
		CompanyID:       companyUUID,
		FullName:        req.FullName,
		Role:            req.Role,
		CompanyName:     req.CompanyName,
		Title:           req.Title,
		ManagerName:     req.ManagerName,
		PtoBalanceHours: balance,
	}

	if err := s.repo.Save(ctx, p); err != nil {
		s.logger.Error("save profile persist failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return ProfileResponse{}, err
	}

	if s.rdb != nil {
		cacheKey := GetDetailKey(userID)
		if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
			s.logger.Warn("invalidate profile cache failed",
				zap.String("key", cacheKey),
				zap.Error(err),
			)
		}
	}
	if s.feed != nil {
		scope := store.EmployeeScope(store.CollectionProfiles, companyID, userID)
		if err := s.feed.Publish(ctx, scope); err != nil {
			s.logger.Warn("broadcast profile change failed", zap.Error(err))
		}
	}

	s.logger.Info("profile saved",
		zap.String("user_id", userID),
		zap.String("role", req.Role),
	)
	return mapToResponse(*p), nil
}
