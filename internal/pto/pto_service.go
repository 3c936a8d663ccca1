package pto

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go-timeoff/internal/events"
	"go-timeoff/internal/messaging/kafka"
	"go-timeoff/internal/notification"
	"go-timeoff/internal/profile"
	ptoerrors "go-timeoff/internal/pto/errors"
	"go-timeoff/internal/shared/apperror"
	"go-timeoff/internal/shared/contextutil"
	"go-timeoff/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=pto_service.go -destination=mock/pto_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, companyID, employeeID string, req SubmitPtoRequest) (Result, error)
	Decide(ctx context.Context, companyID, requestID, deciderID string, req DecidePtoRequest) (Result, error)
	GetAll(ctx context.Context, companyID string) ([]PtoResponse, error)
	GetMine(ctx context.Context, companyID, employeeID string) ([]PtoResponse, error)
}

type service struct {
	db            *sql.DB
	repo          Repository
	profiles      profile.Repository
	notifications notification.Service
	outbox        kafka.OutboxRepository
	feed          store.ChangeFeed
	logger        *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	profiles profile.Repository,
	notifications notification.Service,
	outbox kafka.OutboxRepository,
	feed store.ChangeFeed,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("pto.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("pto.service")
	}
	return &service{
		db:            db,
		repo:          repo,
		profiles:      profiles,
		notifications: notifications,
		outbox:        outbox,
		feed:          feed,
		logger:        l,
	}
}

// Submit persists a pending PTO request and derives its pto_request
// notification. Like attendance submissions, the notification is a second
// non-atomic write: a failure there degrades to a warning.
func (s *service) Submit(ctx context.Context, companyID, employeeID string, req SubmitPtoRequest) (Result, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return Result{}, ptoerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return Result{}, ptoerrors.ErrInvalidEmployeeID
	}
	if !validLeaveType(req.LeaveType) {
		return Result{}, ptoerrors.ErrInvalidLeaveType
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return Result{}, ptoerrors.ErrInvalidDateFormat
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return Result{}, ptoerrors.ErrInvalidDateFormat
	}
	if endDate.Before(startDate) {
		return Result{}, ptoerrors.ErrInvalidDateRange
	}

	prof, err := s.profiles.FindByID(ctx, companyID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, ptoerrors.ErrProfileNotReady
		}
		return Result{}, apperror.Wrap(err, apperror.CodeServiceUnavailable,
			"failed to load requester profile", http.StatusServiceUnavailable)
	}

	request := &PtoRequest{
		ID:            uuid.New(),
		CompanyID:     companyUUID,
		EmployeeID:    employeeUUID,
		RequesterName: prof.FullName,
		LeaveType:     req.LeaveType,
		StartDate:     startDate,
		EndDate:       endDate,
		Status:        StatusPending,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		request.Notes = &notes
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, apperror.Wrap(err, apperror.CodePersistenceFailed,
			"failed to save pto request", http.StatusInternalServerError)
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
		s.logger.Error("pto request persist failed", zap.Error(err))
		return Result{}, apperror.Wrap(err, apperror.CodePersistenceFailed,
			"failed to save pto request", http.StatusInternalServerError)
	}
	if err := tx.Commit(); err != nil {
		return Result{}, apperror.Wrap(err, apperror.CodePersistenceFailed,
			"failed to save pto request", http.StatusInternalServerError)
	}

	result := Result{Request: mapToResponse(*request)}
	if _, err := s.notifications.Create(ctx, companyID, notification.NewNotification{
		EmployeeID: employeeID,
		Type:       notification.TypePtoRequest,
		Message: fmt.Sprintf("%s requested %s leave from %s to %s",
			prof.FullName, req.LeaveType, req.StartDate, req.EndDate),
	}); err != nil {
		s.logger.Warn("pto request notification failed",
			zap.String("pto_id", request.ID.String()),
			zap.Error(err),
		)
		result.Warning = "request saved, but the notification could not be delivered"
	}

	s.broadcast(ctx, companyID, employeeID)
	s.logger.Info("pto request submitted",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("pto_id", request.ID.String()),
		zap.String("leave_type", request.LeaveType),
	)
	return result, nil
}

// Decide moves a pending request to approved or rejected, exactly once.
// The status write is conditional on status still being pending, so two
// racing deciders cannot both win: the loser sees zero rows updated and
// gets an invalid-state error.
func (s *service) Decide(ctx context.Context, companyID, requestID, deciderID string, req DecidePtoRequest) (Result, error) {
	status := req.Decision
	if status != StatusApproved && status != StatusRejected {
		return Result{}, ptoerrors.ErrInvalidDecision
	}

	decidedAt := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, apperror.Wrap(err, apperror.CodePersistenceFailed,
			"failed to save pto decision", http.StatusInternalServerError)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	requesterID, updated, err := qtx.DecideIfPending(ctx, companyID, requestID, status, deciderID, decidedAt)
	if err != nil {
		s.logger.Error("pto decision persist failed",
			zap.String("pto_id", requestID),
			zap.Error(err),
		)
		return Result{}, apperror.Wrap(err, apperror.CodePersistenceFailed,
			"failed to save pto decision", http.StatusInternalServerError)
	}
	if updated == 0 {
		// Zero rows means the conditional write lost: the request is
		// either unknown or already terminal.
		if _, findErr := s.repo.FindByIDAndCompany(ctx, companyID, requestID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return Result{}, ptoerrors.ErrRequestNotFound
			}
			return Result{}, findErr
		}
		return Result{}, ptoerrors.ErrAlreadyDecided
	}

	if s.outbox != nil {
		event := events.PtoDecidedEvent{
			EventType:   "pto_decided",
			RequestID:   contextutil.GetRequestID(ctx),
			PtoID:       requestID,
			CompanyID:   companyID,
			RequesterID: requesterID,
			Status:      status,
			DecidedBy:   deciderID,
			OccurredAt:  decidedAt,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return Result{}, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     event.RequestID,
			AggregateType: "pto_request",
			AggregateID:   requestID,
			EventType:     event.EventType,
			Topic:         events.PtoDecidedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			return Result{}, apperror.Wrap(err, apperror.CodePersistenceFailed,
				"failed to save pto decision", http.StatusInternalServerError)
		}
	}

	if err := tx.Commit(); err != nil {
		return Result{}, apperror.Wrap(err, apperror.CodePersistenceFailed,
			"failed to save pto decision", http.StatusInternalServerError)
	}

	result := Result{}

	// Re-read to resolve the requester for the targeted notification. A
	// request that vanished from the view must not undo the decision:
	// skip targeting, log, and return what we know.
	decided, err := s.repo.FindByIDAndCompany(ctx, companyID, requestID)
	if err != nil {
		s.logger.Warn("decided pto request not readable, skipping notification",
			zap.String("pto_id", requestID),
			zap.Error(err),
		)
		// The employee id from the conditional write keeps the
		// requester's own live view in the broadcast below.
		result.Request = PtoResponse{ID: requestID, CompanyID: companyID, EmployeeID: requesterID, Status: status}
	} else {
		result.Request = mapToResponse(*decided)
		if _, err := s.notifications.Create(ctx, companyID, notification.NewNotification{
			EmployeeID: decided.EmployeeID.String(),
			Type:       notification.TypePtoStatusUpdate,
			Message: fmt.Sprintf("your %s leave request (%s to %s) was %s",
				decided.LeaveType,
				decided.StartDate.Format("2006-01-02"),
				decided.EndDate.Format("2006-01-02"),
				status),
		}); err != nil {
			s.logger.Warn("pto decision notification failed",
				zap.String("pto_id", requestID),
				zap.Error(err),
			)
			result.Warning = "decision saved, but the notification could not be delivered"
		}
	}

	s.broadcast(ctx, companyID, result.Request.EmployeeID)
	s.logger.Info("pto request decided",
		zap.String("pto_id", requestID),
		zap.String("status", status),
		zap.String("decided_by", deciderID),
	)
	return result, nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]PtoResponse, error) {
	rows, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

func (s *service) GetMine(ctx context.Context, companyID, employeeID string) ([]PtoResponse, error) {
	rows, err := s.repo.FindAllByEmployee(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

func (s *service) broadcast(ctx context.Context, companyID, employeeID string) {
	if s.feed == nil {
		return
	}
	var scope store.Scope
	if employeeID != "" {
		scope = store.EmployeeScope(store.CollectionPtoRequests, companyID, employeeID)
	} else {
		scope = store.CompanyScope(store.CollectionPtoRequests, companyID)
	}
	if err := s.feed.Publish(ctx, scope); err != nil {
		s.logger.Warn("broadcast pto change failed",
			zap.String("scope", scope.Channel()),
			zap.Error(err),
		)
	}
}
