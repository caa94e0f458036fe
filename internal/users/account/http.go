// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/staffdesk/internal/platform/csrf"
	"github.com/taibuivan/staffdesk/internal/platform/middleware"
	requestutil "github.com/taibuivan/staffdesk/internal/platform/request"
	"github.com/taibuivan/staffdesk/internal/platform/respond"
	"github.com/taibuivan/staffdesk/internal/platform/sec"
	"github.com/taibuivan/staffdesk/pkg/pagination"
	"github.com/taibuivan/staffdesk/pkg/query"
)

// Handler implements the HTTP layer for account administration.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// RegisterRoutes mounts the /admin/users endpoints. All of them require the
// admin role.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Route("/admin/users", func(router chi.Router) {
		router.Use(middleware.RequireRole(sec.RoleAdmin), csrf.Middleware)

		router.Get("/", handler.list)
		router.Patch("/{id}/status", handler.updateStatus)
	})
}

/*
GET /api/v1/admin/users?page=&limit=&status=active,suspended&role=&search=

Response:
  - 200: Page of Entry
  - 401: Not authenticated
  - 403: Not an administrator
  - 422: Unknown status or role
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	values := request.URL.Query()

	entries, meta, err := handler.accountService.List(request.Context(), ListInput{
		Statuses: query.StringSlice(values.Get(FieldStatus)),
		Role:     values.Get(FieldRole),
		Search:   values.Get(FieldSearch),
		Page:     pagination.FromRequest(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, MsgListed, entries, meta)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

/*
PATCH /api/v1/admin/users/{id}/status.

Request:
  - body: {"status": "active" | "inactive" | "suspended"}

Response:
  - 200: Entry: The updated account
  - 403: Own account, or CSRF token validation failed
  - 404: Unknown account
  - 422: Invalid status
*/
func (handler *Handler) updateStatus(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateStatusRequest
	if err := requestutil.DecodeBody(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := handler.accountService.UpdateStatus(request.Context(), actor, requestutil.Param(request, "id"), input.Status)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, MsgStatusUpdated, entry)
}
