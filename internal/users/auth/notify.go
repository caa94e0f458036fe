// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/taibuivan/staffdesk/internal/platform/ctxutil"
)

// # Outbound Notifications

// Notifier delivers account links to their owner.
type Notifier interface {
	SendVerification(context context.Context, user *User, link string) error
	SendPasswordReset(context context.Context, user *User, link string) error
}

// LogNotifier writes links to the structured log instead of sending mail.
// It is the default delivery for development deployments.
type LogNotifier struct{}

// SendVerification implements [Notifier].
func (LogNotifier) SendVerification(context context.Context, user *User, link string) error {
	ctxutil.GetLogger(context).InfoContext(context, "verification_link_issued",
		slog.String("user_id", user.ID),
		slog.String("link", link),
	)
	return nil
}

// SendPasswordReset implements [Notifier].
func (LogNotifier) SendPasswordReset(context context.Context, user *User, link string) error {
	ctxutil.GetLogger(context).InfoContext(context, "password_reset_link_issued",
		slog.String("user_id", user.ID),
		slog.String("link", link),
	)
	return nil
}

// buildLink joins baseURL, page and a token query parameter.
func buildLink(baseURL, page, token string) string {
	return strings.TrimRight(baseURL, "/") + "/" + page + "?" + url.Values{"token": {token}}.Encode()
}
