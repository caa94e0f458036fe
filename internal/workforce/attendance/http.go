// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package attendance

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/staffdesk/internal/platform/csrf"
	"github.com/taibuivan/staffdesk/internal/platform/middleware"
	requestutil "github.com/taibuivan/staffdesk/internal/platform/request"
	"github.com/taibuivan/staffdesk/internal/platform/respond"
)

// Handler implements the attendance HTTP endpoints.
type Handler struct {
	attendanceService *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{attendanceService: service}
}

// RegisterRoutes mounts the /attendance endpoints.
//
// # Endpoints
//   - GET /attendance/today, /attendance : session
//   - POST /attendance/clock-in, /attendance/clock-out : session + CSRF token
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Route("/attendance", func(router chi.Router) {
		router.Use(middleware.RequireAuth, csrf.Middleware)

		router.Get("/", handler.history)
		router.Get("/today", handler.today)
		router.Post("/clock-in", handler.clockIn)
		router.Post("/clock-out", handler.clockOut)
	})
}

// GET /api/v1/attendance/today returns the current work day.
func (handler *Handler) today(writer http.ResponseWriter, request *http.Request) {
	current, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.attendanceService.Today(request.Context(), current.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, MsgToday, view)
}

/*
POST /api/v1/attendance/clock-in.

Response:
  - 200: Today: clock-in recorded, or already clocked in
  - 403: CSRF token validation failed
  - 409: Already clocked out for today
*/
func (handler *Handler) clockIn(writer http.ResponseWriter, request *http.Request) {
	current, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, message, err := handler.attendanceService.ClockIn(request.Context(), current.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, message, view)
}

/*
POST /api/v1/attendance/clock-out.

Response:
  - 200: Today: clock-out recorded
  - 400: Not clocked in
  - 409: Already clocked out for today
*/
func (handler *Handler) clockOut(writer http.ResponseWriter, request *http.Request) {
	current, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, message, err := handler.attendanceService.ClockOut(request.Context(), current.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, message, view)
}

/*
GET /api/v1/attendance?month=YYYY-MM&employee_id=...

Response:
  - 200: MonthHistory
  - 403: Another employee's history without the manager role
  - 404: Unknown employee
  - 422: Malformed month
*/
func (handler *Handler) history(writer http.ResponseWriter, request *http.Request) {
	current, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	query := request.URL.Query()
	result, err := handler.attendanceService.History(request.Context(), current, HistoryInput{
		Month:      query.Get(FieldMonth),
		EmployeeID: query.Get(FieldEmployeeID),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, MsgHistory, result)
}
