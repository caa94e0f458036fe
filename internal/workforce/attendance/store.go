// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package attendance

import (
	"context"
	"time"
)

// # Attendance Data Access

// Repository defines the data access contract for attendance days.
type Repository interface {

	/*
		FindByDay returns the record of employeeID for day (DayLayout).

		Returns:
		  - *Record: Hydrated entity
		  - error: apperr.NotFound when the employee has no row for that day
	*/
	FindByDay(context context.Context, employeeID, day string) (*Record, error)

	/*
		ClockIn opens the day at the given instant, creating the row if needed.

		Returns:
		  - *Record: The stored row
		  - error: apperr.Conflict when the day already has a check-in
	*/
	ClockIn(context context.Context, employeeID, day string, at time.Time) (*Record, error)

	/*
		ClockOut closes an open day.

		Returns:
		  - *Record: The stored row
		  - error: apperr.Conflict when the day is not open
	*/
	ClockOut(context context.Context, employeeID, day string, at time.Time) (*Record, error)

	/*
		ListRange returns the records with from <= work_date < to, oldest first.
	*/
	ListRange(context context.Context, employeeID, from, to string) ([]*Record, error)
}
