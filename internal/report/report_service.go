package report

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
	reporterrors "go-timeoff/internal/report/errors"
	"go-timeoff/internal/shared/apperror"
	"go-timeoff/internal/shared/contextutil"
	"go-timeoff/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=report_service.go -destination=mock/report_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, companyID, employeeID string, req SubmitReportRequest) (SubmitResult, error)
	GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]ReportResponse, error)
	GetWeek(ctx context.Context, companyID, employeeID, anchor string) ([]ReportResponse, error)
	AllocatePTO(ctx context.Context, companyID, recordID string, req AllocatePtoRequest) (ReportResponse, error)
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
	l := zap.L().Named("report.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("report.service")
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

// Submit validates and persists one attendance exception, then derives its
// organization-visible notification. The two writes are a deliberate
// two-step saga: the store has no multi-document transaction, so a failed
// notification write leaves the report in place and comes back as a
// warning, never as a rollback.
func (s *service) Submit(ctx context.Context, companyID, employeeID string, req SubmitReportRequest) (SubmitResult, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("submit report requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
		zap.String("type", req.Type),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return SubmitResult{}, reporterrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return SubmitResult{}, reporterrors.ErrInvalidEmployeeID
	}
	reportDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return SubmitResult{}, reporterrors.ErrInvalidDateFormat
	}

	rec := &Report{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		EmployeeID: employeeUUID,
		Type:       req.Type,
		ReportDate: reportDate,
	}
	if err := applyTypeFields(rec, req); err != nil {
		s.logger.Warn("submit report validation failed",
			zap.String("type", req.Type),
			zap.Error(err),
		)
		return SubmitResult{}, err
	}

	prof, err := s.profiles.FindByID(ctx, companyID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SubmitResult{}, reporterrors.ErrProfileNotReady
		}
		return SubmitResult{}, apperror.Wrap(err, apperror.CodeServiceUnavailable,
			"failed to load submitter profile", http.StatusServiceUnavailable)
	}
	rec.EmployeeName = prof.FullName
	rec.CompanyName = prof.CompanyName
	rec.Title = prof.Title
	rec.ManagerName = prof.ManagerName

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit report begin tx failed", zap.Error(err))
		return SubmitResult{}, apperror.Wrap(err, apperror.CodePersistenceFailed,
			"failed to save attendance report", http.StatusInternalServerError)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, rec); err != nil {
		s.logger.Error("submit report persist failed", zap.Error(err))
		return SubmitResult{}, apperror.Wrap(err, apperror.CodePersistenceFailed,
			"failed to save attendance report", http.StatusInternalServerError)
	}

	if s.outbox != nil {
		event := events.ReportSubmittedEvent{
			EventType:  "report_submitted",
			RequestID:  rid,
			ReportID:   rec.ID.String(),
			CompanyID:  companyID,
			EmployeeID: employeeID,
			ReportType: rec.Type,
			OccurredAt: time.Now().UTC(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return SubmitResult{}, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			AggregateType: "attendance_report",
			AggregateID:   rec.ID.String(),
			EventType:     event.EventType,
			Topic:         events.ReportSubmittedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("submit report outbox persist failed", zap.Error(err))
			return SubmitResult{}, apperror.Wrap(err, apperror.CodePersistenceFailed,
				"failed to save attendance report", http.StatusInternalServerError)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit report commit failed", zap.Error(err))
		return SubmitResult{}, apperror.Wrap(err, apperror.CodePersistenceFailed,
			"failed to save attendance report", http.StatusInternalServerError)
	}

	result := SubmitResult{Report: mapToResponse(*rec)}

	// Step two of the saga. A failure here is a warning: the report is
	// already durable and must be reported as submitted.
	recordID := rec.ID.String()
	if _, err := s.notifications.Create(ctx, companyID, notification.NewNotification{
		EmployeeID:         employeeID,
		Type:               rec.Type,
		Message:            buildReportMessage(*rec),
		AttendanceRecordID: &recordID,
	}); err != nil {
		s.logger.Warn("submit report notification failed",
			zap.String("report_id", recordID),
			zap.Error(err),
		)
		result.Warning = "report saved, but the notification could not be delivered"
	}

	s.broadcast(ctx, companyID, employeeID)
	s.logger.Info("submit report success",
		zap.String("request_id", rid),
		zap.String("report_id", recordID),
		zap.String("type", rec.Type),
	)
	return result, nil
}

// AllocatePTO applies the call-out compensation rule. Non-qualification
// always zeroes the allocation no matter what hours were supplied;
// qualification accepts any non-negative hour count. The rule does not
// check the employee's remaining balance.
func (s *service) AllocatePTO(ctx context.Context, companyID, recordID string, req AllocatePtoRequest) (ReportResponse, error) {
	rec, err := s.repo.FindByIDAndCompany(ctx, companyID, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReportResponse{}, reporterrors.ErrReportNotFound
		}
		return ReportResponse{}, err
	}
	if rec.Type != TypeCallOut {
		return ReportResponse{}, reporterrors.ErrNotCallOut
	}

	qualifies := req.Qualifies != nil && *req.Qualifies
	hours := DefaultAllocationHours
	if req.Hours != nil {
		hours = *req.Hours
	}

	if !qualifies {
		rec.PtoAllocated = false
		rec.PtoHours = 0
	} else {
		if hours < 0 {
			return ReportResponse{}, reporterrors.ErrNegativePtoHours
		}
		rec.PtoAllocated = true
		rec.PtoHours = hours
	}
	rec.NotificationHandled = true

	if err := s.repo.UpdateAllocation(ctx, rec); err != nil {
		s.logger.Error("allocate pto persist failed",
			zap.String("report_id", recordID),
			zap.Error(err),
		)
		return ReportResponse{}, apperror.Wrap(err, apperror.CodePersistenceFailed,
			"failed to save pto allocation", http.StatusInternalServerError)
	}

	// Best effort: when no unhandled notification references the record
	// this is a no-op, the allocation itself already succeeded.
	if marked, err := s.notifications.MarkHandledForRecord(ctx, companyID, recordID); err != nil {
		s.logger.Warn("mark notification handled failed",
			zap.String("report_id", recordID),
			zap.Error(err),
		)
	} else if !marked {
		s.logger.Debug("no unhandled notification for report",
			zap.String("report_id", recordID),
		)
	}

	s.broadcast(ctx, companyID, rec.EmployeeID.String())
	s.logger.Info("pto allocation applied",
		zap.String("report_id", recordID),
		zap.Bool("qualifies", qualifies),
		zap.Float64("pto_hours", rec.PtoHours),
	)
	return mapToResponse(*rec), nil
}

func (s *service) GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]ReportResponse, error) {
	var (
		rows []Report
		err  error
	)
	if canReadAll {
		rows, err = s.repo.FindAllByCompany(ctx, companyID)
	} else {
		if _, parseErr := uuid.Parse(actorID); parseErr != nil {
			return nil, reporterrors.ErrInvalidEmployeeID
		}
		rows, err = s.repo.FindAllByEmployee(ctx, companyID, actorID)
	}
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

// GetWeek returns the employee's reports for the week containing anchor
// (today when empty). Weeks start on Monday.
func (s *service) GetWeek(ctx context.Context, companyID, employeeID, anchor string) ([]ReportResponse, error) {
	day := time.Now().UTC()
	if anchor != "" {
		parsed, err := time.Parse("2006-01-02", anchor)
		if err != nil {
			return nil, reporterrors.ErrInvalidDateFormat
		}
		day = parsed
	}
	weekStart := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
	weekStart = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, time.UTC)

	rows, err := s.repo.FindWeekByEmployee(ctx, companyID, employeeID, weekStart)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

func (s *service) broadcast(ctx context.Context, companyID, employeeID string) {
	if s.feed == nil {
		return
	}
	scope := store.EmployeeScope(store.CollectionReports, companyID, employeeID)
	if err := s.feed.Publish(ctx, scope); err != nil {
		s.logger.Warn("broadcast report change failed",
			zap.String("scope", scope.Channel()),
			zap.Error(err),
		)
	}
}

// applyTypeFields validates the type-specific input and populates exactly
// the field set matching the report type.
func applyTypeFields(rec *Report, req SubmitReportRequest) error {
	reportTime, err := normalizeTime(req.Time)
	if err != nil {
		return err
	}

	switch req.Type {
	case TypeCallOut:
		reason := strings.TrimSpace(req.Reason)
		if reason == "" {
			return reporterrors.ErrReasonRequired
		}
		rec.Reason = &reason

	case TypeLate:
		if req.LatenessDuration == "" {
			return reporterrors.ErrLatenessDurationRequired
		}
		if !validLatenessDuration(req.LatenessDuration) {
			return reporterrors.ErrInvalidLatenessDuration
		}
		duration := req.LatenessDuration
		rec.LatenessDuration = &duration
		if reason := strings.TrimSpace(req.Reason); reason != "" {
			rec.Reason = &reason
		}
		rec.ReportTime = reportTime

	case TypeEarlyLeave:
		reason := strings.TrimSpace(req.EarlyLeaveReason)
		if reason == "" {
			return reporterrors.ErrEarlyLeaveReasonRequired
		}
		if countWords(reason) > EarlyLeaveReasonMaxWords {
			return reporterrors.ErrEarlyLeaveReasonTooLong
		}
		rec.EarlyLeaveReason = &reason
		rec.ReportTime = reportTime
	}
	return nil
}

func normalizeTime(v string) (*string, error) {
	if v == "" {
		return nil, nil
	}
	if _, err := time.Parse("15:04", v); err != nil {
		return nil, reporterrors.ErrInvalidTimeFormat
	}
	return &v, nil
}

// countWords counts whitespace-delimited tokens; empty tokens are
// discarded by strings.Fields.
func countWords(s string) int {
	return len(strings.Fields(s))
}

// buildReportMessage derives the notification text deterministically from
// the report type and its type-specific field.
func buildReportMessage(r Report) string {
	date := r.ReportDate.Format("2006-01-02")
	switch r.Type {
	case TypeCallOut:
		return fmt.Sprintf("%s called out on %s: %s", r.EmployeeName, date, deref(r.Reason))
	case TypeLate:
		return fmt.Sprintf("%s reported late (%s) on %s", r.EmployeeName, deref(r.LatenessDuration), date)
	case TypeEarlyLeave:
		return fmt.Sprintf("%s requested early leave on %s: %s", r.EmployeeName, date, deref(r.EarlyLeaveReason))
	default:
		return fmt.Sprintf("%s submitted a report on %s", r.EmployeeName, date)
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
