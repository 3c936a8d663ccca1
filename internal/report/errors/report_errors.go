package reporterrors

import (
	"net/http"

	"go-timeoff/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidTimeFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid time format, expected HH:MM",
		http.StatusBadRequest,
	)
	ErrReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"reason is required for this report type",
		http.StatusBadRequest,
	)
	ErrLatenessDurationRequired = apperror.New(
		apperror.CodeInvalidInput,
		"lateness_duration is required for late reports",
		http.StatusBadRequest,
	)
	ErrInvalidLatenessDuration = apperror.New(
		apperror.CodeInvalidInput,
		"lateness_duration must be one of 0-15min, 20-30min, 1hour+",
		http.StatusBadRequest,
	)
	ErrEarlyLeaveReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"early_leave_reason is required for early leave reports",
		http.StatusBadRequest,
	)
	ErrEarlyLeaveReasonTooLong = apperror.New(
		apperror.CodeInvalidInput,
		"early_leave_reason must not exceed 20 words",
		http.StatusBadRequest,
	)
	ErrNegativePtoHours = apperror.New(
		apperror.CodeInvalidInput,
		"pto hours must be zero or greater",
		http.StatusBadRequest,
	)
	ErrReportNotFound = apperror.New(
		apperror.CodeNotFound,
		"attendance report not found",
		http.StatusNotFound,
	)
	ErrNotCallOut = apperror.New(
		apperror.CodePreconditionFailed,
		"pto can only be allocated for call-out reports",
		http.StatusPreconditionFailed,
	)
	ErrProfileNotReady = apperror.New(
		apperror.CodeServiceUnavailable,
		"profile is not available yet, complete profile setup first",
		http.StatusServiceUnavailable,
	)
)
