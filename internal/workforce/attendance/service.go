// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/ctxutil"
	"github.com/taibuivan/staffdesk/internal/platform/logging"
	"github.com/taibuivan/staffdesk/internal/platform/sec"
	"github.com/taibuivan/staffdesk/internal/platform/session"
	"github.com/taibuivan/staffdesk/internal/platform/validate"
	"github.com/taibuivan/staffdesk/internal/workforce/employee"
	"github.com/taibuivan/staffdesk/pkg/uuid"
)

// Client-facing messages.
const (
	MsgAlreadyClockedIn  = "You are already clocked in."
	MsgAlreadyClockedOut = "You have already clocked out for today."
	MsgClockedIn         = "Clock-in recorded."
	MsgClockInFirst      = "You must clock in before clocking out."
	MsgClockedOut        = "Clock-out recorded."
	MsgToday             = "Today's attendance"
	MsgHistory           = "Attendance history"
	MsgEmployeeNotFound  = "Employee not found"
	MsgHistoryForbidden  = "You do not have permission to view this attendance"
)

// Query parameters of the history endpoint.
const (
	FieldMonth      = "month"
	FieldEmployeeID = "employee_id"
)

// EmployeeResolver maps accounts to employee records.
type EmployeeResolver interface {
	FindByID(context context.Context, id string) (*employee.Employee, error)
	EnsureForUser(context context.Context, userID string) (*employee.Employee, error)
}

// Service implements the attendance use cases.
type Service struct {
	records   Repository
	employees EmployeeResolver
	location  *time.Location
	now       func() time.Time
}

// NewService constructs a new [Service]. Work days are cut in location.
func NewService(records Repository, employees EmployeeResolver, location *time.Location) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{records: records, employees: employees, location: location, now: time.Now}
}

// SetClock replaces the time source. Intended for tests.
func (service *Service) SetClock(now func() time.Time) {
	service.now = now
}

// clock returns the current instant (microsecond precision, as stored) and its work day.
func (service *Service) clock() (time.Time, string) {
	now := service.now().In(service.location).Truncate(time.Microsecond)
	return now, now.Format(DayLayout)
}

func (service *Service) view(record *Record, now time.Time) *Today {
	return &Today{
		Attendance:      record,
		IsClockedIn:     record.ClockedIn(),
		DurationSeconds: int64(record.Worked(now) / time.Second),
	}
}

// current returns the caller's employee and today's record, nil when absent.
func (service *Service) current(context context.Context, userID, day string) (*employee.Employee, *Record, error) {
	worker, err := service.employees.EnsureForUser(context, userID)
	if err != nil {
		return nil, nil, err
	}

	record, err := service.records.FindByDay(context, worker.ID, day)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return worker, nil, nil
		}
		return nil, nil, err
	}
	return worker, record, nil
}

// # Daily Operations

/*
Today returns the caller's attendance for the current work day.

Returns:
  - *Today: The record (nil when not clocked in yet), the open flag and
    the seconds worked so far
  - error: Storage failures
*/
func (service *Service) Today(context context.Context, userID string) (*Today, error) {
	now, day := service.clock()

	_, record, err := service.current(context, userID, day)
	if err != nil {
		return nil, err
	}
	return service.view(record, now), nil
}

/*
ClockIn opens the current work day.

Description: Clocking in again while the day is open is not an error; the
current state is returned with [MsgAlreadyClockedIn].

Returns:
  - *Today: State after the operation
  - string: Client message
  - error: 409 when the day is already closed
*/
func (service *Service) ClockIn(context context.Context, userID string) (*Today, string, error) {
	now, day := service.clock()

	worker, record, err := service.current(context, userID, day)
	if err != nil {
		return nil, "", err
	}

	switch {
	case record.ClockedOut():
		return nil, "", apperr.Conflict(MsgAlreadyClockedOut)
	case record.ClockedIn():
		return service.view(record, now), MsgAlreadyClockedIn, nil
	}

	record, err = service.records.ClockIn(context, worker.ID, day, now)
	if apperr.HasCode(err, apperr.CodeConflict) {
		// Another request opened the day first.
		record, err = service.records.FindByDay(context, worker.ID, day)
		if err != nil {
			return nil, "", err
		}
		if record.ClockedOut() {
			return nil, "", apperr.Conflict(MsgAlreadyClockedOut)
		}
		return service.view(record, now), MsgAlreadyClockedIn, nil
	}
	if err != nil {
		return nil, "", err
	}

	ctxutil.GetLogger(context).InfoContext(context, "attendance_clocked_in",
		slog.String(logging.AttrUserID, userID),
		slog.String("employee_id", worker.ID),
		slog.String("work_date", day),
	)
	return service.view(record, now), MsgClockedIn, nil
}

/*
ClockOut closes the current work day.

Returns:
  - *Today: State after the operation
  - string: Client message
  - error: 400 when not clocked in, 409 when already clocked out
*/
func (service *Service) ClockOut(context context.Context, userID string) (*Today, string, error) {
	now, day := service.clock()

	worker, record, err := service.current(context, userID, day)
	if err != nil {
		return nil, "", err
	}

	switch {
	case record == nil || record.CheckIn == nil:
		return nil, "", apperr.BadRequest(MsgClockInFirst)
	case record.ClockedOut():
		return nil, "", apperr.Conflict(MsgAlreadyClockedOut)
	}

	record, err = service.records.ClockOut(context, worker.ID, day, now)
	if err != nil {
		return nil, "", err
	}

	ctxutil.GetLogger(context).InfoContext(context, "attendance_clocked_out",
		slog.String(logging.AttrUserID, userID),
		slog.String("employee_id", worker.ID),
		slog.String("work_date", day),
	)
	return service.view(record, now), MsgClockedOut, nil
}

// # History

// HistoryInput selects the month and, for managers, the employee.
type HistoryInput struct {
	Month      string // YYYY-MM, defaults to the current month
	EmployeeID string // Defaults to the caller's employee
}

/*
History returns one month of attendance with a summary.

Description: Employees may only read their own history. Managers and admins
may pass any employee_id.

Returns:
  - *MonthHistory: Records oldest first and their totals
  - error: 422 malformed month, 404 unknown employee, 403 other employee
    without the manager role
*/
func (service *Service) History(context context.Context, viewer *session.Session, input HistoryInput) (*MonthHistory, error) {
	now, _ := service.clock()

	// ── 1. Validation ─────────────────────────────────────────────────────
	month := strings.TrimSpace(input.Month)
	validator := validate.New()
	validator.Field(FieldMonth, month).Optional().Date(MonthLayout)
	if err := validator.Validate(context); err != nil {
		return nil, err
	}

	if month == "" {
		month = now.Format(MonthLayout)
	}
	start, err := time.ParseInLocation(MonthLayout, month, service.location)
	if err != nil {
		return nil, fmt.Errorf("attendance_history_month_failed: %w", err)
	}
	end := start.AddDate(0, 1, 0)

	// ── 2. Subject ────────────────────────────────────────────────────────
	worker, err := service.subject(context, viewer, strings.TrimSpace(input.EmployeeID))
	if err != nil {
		return nil, err
	}

	// ── 3. Records ────────────────────────────────────────────────────────
	records, err := service.records.ListRange(context, worker.ID, start.Format(DayLayout), end.Format(DayLayout))
	if err != nil {
		return nil, err
	}

	return &MonthHistory{
		EmployeeID: worker.ID,
		Month:      month,
		Records:    records,
		Summary:    summarize(records, now),
	}, nil
}

// subject resolves whose history is read and enforces who may read it.
func (service *Service) subject(context context.Context, viewer *session.Session, employeeID string) (*employee.Employee, error) {
	if employeeID == "" {
		return service.employees.EnsureForUser(context, viewer.UserID)
	}
	if !uuid.Valid(employeeID) {
		return nil, apperr.NotFound(MsgEmployeeNotFound)
	}

	worker, err := service.employees.FindByID(context, employeeID)
	if err != nil {
		return nil, err
	}
	if worker.UserID != viewer.UserID && !viewer.Role.AtLeast(sec.RoleManager) {
		logging.Security(context, ctxutil.GetLogger(context), "attendance_history_denied",
			slog.String(logging.AttrUserID, viewer.UserID),
			slog.String("employee_id", employeeID),
		)
		return nil, apperr.Forbidden(MsgHistoryForbidden)
	}
	return worker, nil
}
