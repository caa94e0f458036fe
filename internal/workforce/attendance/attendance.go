// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package attendance records daily clock-in and clock-out of employees.

One row exists per employee and work day. A day moves through three states:

	no row → clocked in (check_in set) → clocked out (check_out set)

Clocking in twice is answered with the current state; clocking in after
clocking out, or out twice, is a conflict.
*/
package attendance

import (
	"time"

	"github.com/taibuivan/staffdesk/pkg/pointer"
)

// # Domain Entities

// Status classifies a work day.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half_day"
	StatusAbsent  Status = "absent"
	StatusOnLeave Status = "on_leave"
)

// DayLayout is the format of work dates ("2026-03-14").
const DayLayout = "2006-01-02"

// MonthLayout is the format of the history month parameter ("2026-03").
const MonthLayout = "2006-01"

// Record is one employee work day.
type Record struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	WorkDate   string     `json:"work_date"`
	Status     Status     `json:"status"`
	CheckIn    *time.Time `json:"check_in"`
	CheckOut   *time.Time `json:"check_out"`
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ClockedIn reports whether the day is open (checked in, not yet out).
func (record *Record) ClockedIn() bool {
	return record != nil && record.CheckIn != nil && record.CheckOut == nil
}

// ClockedOut reports whether the day is closed.
func (record *Record) ClockedOut() bool {
	return record != nil && record.CheckOut != nil
}

// Worked returns the time between check-in and check-out, or until now for an
// open day. Negative spans count as zero.
func (record *Record) Worked(now time.Time) time.Duration {
	if record == nil || record.CheckIn == nil {
		return 0
	}
	end := pointer.Fallback(record.CheckOut, now)
	return max(0, end.Sub(*record.CheckIn))
}

// # Views

// Today is the state of the current work day.
type Today struct {
	Attendance      *Record `json:"attendance"`
	IsClockedIn     bool    `json:"is_clocked_in"`
	DurationSeconds int64   `json:"duration_seconds"`
}

// Summary aggregates a month of records.
type Summary struct {
	Present       int   `json:"present"`
	Late          int   `json:"late"`
	HalfDay       int   `json:"half_day"`
	Absent        int   `json:"absent"`
	OnLeave       int   `json:"on_leave"`
	WorkedSeconds int64 `json:"worked_seconds"`
}

// MonthHistory is the attendance of one employee for one month.
type MonthHistory struct {
	EmployeeID string    `json:"employee_id"`
	Month      string    `json:"month"`
	Records    []*Record `json:"records"`
	Summary    Summary   `json:"summary"`
}

func summarize(records []*Record, now time.Time) Summary {
	var summary Summary
	for _, record := range records {
		switch record.Status {
		case StatusPresent:
			summary.Present++
		case StatusLate:
			summary.Late++
		case StatusHalfDay:
			summary.HalfDay++
		case StatusAbsent:
			summary.Absent++
		case StatusOnLeave:
			summary.OnLeave++
		}
		summary.WorkedSeconds += int64(record.Worked(now) / time.Second)
	}
	return summary
}
