// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/ctxutil"
	"github.com/taibuivan/staffdesk/internal/platform/logging"
	"github.com/taibuivan/staffdesk/internal/platform/sec"
	"github.com/taibuivan/staffdesk/internal/platform/session"
	"github.com/taibuivan/staffdesk/internal/platform/validate"
	"github.com/taibuivan/staffdesk/internal/users/auth"
	"github.com/taibuivan/staffdesk/pkg/pagination"
	"github.com/taibuivan/staffdesk/pkg/slice"
	"github.com/taibuivan/staffdesk/pkg/uuid"
)

// Client-facing messages.
const (
	MsgListed        = "Users retrieved"
	MsgStatusUpdated = "User status updated"
	MsgUserNotFound  = "User not found"
	MsgOwnStatus     = "You cannot change your own status"
)

// Query and body fields.
const (
	FieldStatus = "status"
	FieldRole   = "role"
	FieldSearch = "search"
)

const searchMaxLength = 100

// SessionRevoker ends every session of an account.
type SessionRevoker interface {
	DestroyUser(context context.Context, userID string) error
}

// # Service Layer

// Service orchestrates account administration.
type Service struct {
	accounts Repository
	sessions SessionRevoker
}

// NewService constructs a new [Service] with its dependencies.
func NewService(accounts Repository, sessions SessionRevoker) *Service {
	return &Service{accounts: accounts, sessions: sessions}
}

// ListInput carries the raw list query.
type ListInput struct {
	Statuses []string
	Role     string
	Search   string
	Page     pagination.Params
}

/*
List returns one page of accounts.

Returns:
  - []Entry: The page
  - pagination.Meta: Page, limit and totals
  - error: 422 on an unknown status or role
*/
func (service *Service) List(context context.Context, input ListInput) ([]Entry, pagination.Meta, error) {
	validator := validate.New()
	for _, status := range input.Statuses {
		validator.Field(FieldStatus, status).In(
			string(auth.StatusActive), string(auth.StatusInactive), string(auth.StatusSuspended))
	}
	validator.Field(FieldRole, input.Role).Optional().In(
		string(sec.RoleAdmin), string(sec.RoleManager), string(sec.RoleEmployee))
	validator.Field(FieldSearch, input.Search).Optional().MaxLength(searchMaxLength)
	if err := validator.Validate(context); err != nil {
		return nil, pagination.Meta{}, err
	}

	users, total, err := service.accounts.List(context, Filter{
		Statuses: slice.Map(input.Statuses, func(status string) auth.Status { return auth.Status(status) }),
		Role:     sec.UserRole(input.Role),
		Search:   strings.TrimSpace(input.Search),
		Page:     input.Page,
	})
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	return slice.Map(users, toEntry), pagination.NewMeta(input.Page.Page, input.Page.Limit, total), nil
}

/*
UpdateStatus moves an account to a new lifecycle state.

Description: An administrator cannot change their own status. Any state other
than active ends the account's sessions; a failure to do so is logged, the
status change stands and the next login is refused anyway.

Parameters:
  - context: context.Context
  - actor: *session.Session (the administrator)
  - id: string (target account)
  - status: string

Returns:
  - *Entry: The updated account
  - error: 404 unknown account, 403 own account, 422 invalid status
*/
func (service *Service) UpdateStatus(context context.Context, actor *session.Session, id, status string) (*Entry, error) {
	logger := ctxutil.GetLogger(context)

	// ── 1. Validation ─────────────────────────────────────────────────────
	if !uuid.Valid(id) {
		return nil, apperr.NotFound(MsgUserNotFound)
	}

	validator := validate.New()
	validator.Field(FieldStatus, status).Required().In(
		string(auth.StatusActive), string(auth.StatusInactive), string(auth.StatusSuspended))
	if err := validator.Validate(context); err != nil {
		return nil, err
	}

	if id == actor.UserID {
		return nil, apperr.Forbidden(MsgOwnStatus)
	}

	// ── 2. Update ─────────────────────────────────────────────────────────
	if err := service.accounts.UpdateStatus(context, id, auth.Status(status)); err != nil {
		return nil, err
	}

	logging.Security(context, logger, "account_status_changed",
		slog.String(logging.AttrUserID, id),
		slog.String("actor_id", actor.UserID),
		slog.String(FieldStatus, status),
	)

	// ── 3. Sessions ───────────────────────────────────────────────────────
	if auth.Status(status) != auth.StatusActive {
		if err := service.sessions.DestroyUser(context, id); err != nil {
			logger.WarnContext(context, "account_sessions_revoke_failed",
				slog.String(logging.AttrUserID, id),
				slog.Any("error", err),
			)
		}
	}

	user, err := service.accounts.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	entry := toEntry(user)
	return &entry, nil
}
