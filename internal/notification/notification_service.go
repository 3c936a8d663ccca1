package notification

import (
	"context"
	"encoding/json"
	"time"

	"go-timeoff/internal/shared/counter"
	"go-timeoff/internal/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ListKeyPrefix = "notifications:all:"

func GetListKey(companyID string) string {
	return ListKeyPrefix + companyID
}

// NewNotification is the input for deriving a notification from a
// submission or decision. Message is built by the caller so it stays
// deterministic per workflow rule.
type NewNotification struct {
	EmployeeID         string
	Type               string
	Message            string
	AttendanceRecordID *string
}

//go:generate mockgen -source=notification_service.go -destination=mock/notification_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID string, in NewNotification) (NotificationResponse, error)
	List(ctx context.Context, companyID string) ([]NotificationResponse, error)
	// MarkHandledForRecord flips the handled flag on the unhandled
	// notification referencing the record. Returns false when no such
	// notification exists, which callers treat as a no-op.
	MarkHandledForRecord(ctx context.Context, companyID, recordID string) (bool, error)
}

type service struct {
	repo    Repository
	counter counter.Repository
	feed    store.ChangeFeed
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewService(
	repo Repository,
	counterRepo counter.Repository,
	feed store.ChangeFeed,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	return &service{repo: repo, counter: counterRepo, feed: feed, rdb: rdb, logger: l}
}

func (s *service) Create(ctx context.Context, companyID string, in NewNotification) (NotificationResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return NotificationResponse{}, err
	}
	employeeUUID, err := uuid.Parse(in.EmployeeID)
	if err != nil {
		return NotificationResponse{}, err
	}

	seq, err := s.counter.GetNextValue(ctx, companyID, counter.SeqNotification)
	if err != nil {
		return NotificationResponse{}, err
	}

	n := &Notification{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		EmployeeID: employeeUUID,
		Type:       in.Type,
		Message:    in.Message,
		Seq:        seq,
	}
	if in.AttendanceRecordID != nil {
		recordUUID, err := uuid.Parse(*in.AttendanceRecordID)
		if err != nil {
			return NotificationResponse{}, err
		}
		n.AttendanceRecordID = &recordUUID
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("create notification persist failed",
			zap.String("company_id", companyID),
			zap.String("type", in.Type),
			zap.Error(err),
		)
		return NotificationResponse{}, err
	}

	s.invalidateCache(ctx, companyID)
	s.broadcast(ctx, companyID)

	s.logger.Info("notification created",
		zap.String("notification_id", n.ID.String()),
		zap.String("type", n.Type),
		zap.Int64("seq", n.Seq),
	)
	return mapToResponse(*n), nil
}

func (s *service) List(ctx context.Context, companyID string) ([]NotificationResponse, error) {
	cacheKey := GetListKey(companyID)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp []NotificationResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	rows, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	resp := mapToListResponse(rows)

	if s.rdb != nil {
		if jsonData, err := json.Marshal(resp); err == nil {
			// Short TTL: the change feed invalidates eagerly, this only
			// bounds staleness if an invalidation is lost.
			s.rdb.Set(ctx, cacheKey, jsonData, 30*time.Second)
		}
	}
	return resp, nil
}

func (s *service) MarkHandledForRecord(ctx context.Context, companyID, recordID string) (bool, error) {
	updated, err := s.repo.MarkHandledByRecordID(ctx, companyID, recordID)
	if err != nil {
		return false, err
	}
	if updated == 0 {
		return false, nil
	}

	s.invalidateCache(ctx, companyID)
	s.broadcast(ctx, companyID)
	return true, nil
}

func (s *service) invalidateCache(ctx context.Context, companyID string) {
	if s.rdb == nil {
		return
	}
	cacheKey := GetListKey(companyID)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Warn("invalidate notification cache failed",
			zap.String("key", cacheKey),
			zap.Error(err),
		)
	}
}

func (s *service) broadcast(ctx context.Context, companyID string) {
	if s.feed == nil {
		return
	}
	scope := store.CompanyScope(store.CollectionNotifications, companyID)
	if err := s.feed.Publish(ctx, scope); err != nil {
		s.logger.Warn("broadcast notification change failed",
			zap.String("scope", scope.Channel()),
			zap.Error(err),
		)
	}
}
