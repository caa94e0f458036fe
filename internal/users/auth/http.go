// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/staffdesk/internal/platform/csrf"
	"github.com/taibuivan/staffdesk/internal/platform/middleware"
	requestutil "github.com/taibuivan/staffdesk/internal/platform/request"
	"github.com/taibuivan/staffdesk/internal/platform/respond"
	"github.com/taibuivan/staffdesk/internal/platform/session"
)

// # Definitions & Constructors

// CookieJar reads and writes the session cookie.
type CookieJar interface {
	ReadCookie(request *http.Request) string
	WriteCookie(writer http.ResponseWriter, current *session.Session) error
	ClearCookie(writer http.ResponseWriter)
}

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the account entry points (registration, login,
// recovery) and the session-bound endpoints (logout, me, csrf, change-password).
type Handler struct {
	authService *Service
	cookies     CookieJar
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, cookies CookieJar) *Handler {
	return &Handler{authService: service, cookies: cookies}
}

// RegisterRoutes mounts the /auth endpoints.
//
// # Endpoints
//   - POST /auth/login, /auth/register, /auth/verify-email,
//     /auth/forgot-password, /auth/reset-password : public
//   - GET /auth/me, /auth/csrf : session
//   - POST /auth/logout, /auth/change-password : session + CSRF token
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Route("/auth", func(router chi.Router) {
		router.Post("/login", handler.login)
		router.Post("/register", handler.register)
		router.Post("/verify-email", handler.verifyEmail)
		router.Post("/forgot-password", handler.forgotPassword)
		router.Post("/reset-password", handler.resetPassword)

		router.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireAuth, csrf.Middleware)
			protected.Get("/me", handler.me)
			protected.Get("/csrf", handler.csrfToken)
			protected.Post("/logout", handler.logout)
			protected.Post("/change-password", handler.changePassword)
		})
	})
}

// # Request Payloads

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
	Department      string `json:"department"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// # Session Endpoints

/*
POST /api/v1/auth/login.

Description: Authenticates by username or email and sets the session cookie.
Accepts JSON or form-encoded bodies.

Response:
  - 200: LoginResult: {user, redirect, csrf_token}
  - 401: Invalid username or password
  - 403: Account not active
  - 422: Validation failure
  - 429: Too many login attempts
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeBody(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Login(request.Context(), LoginInput{
		Username:          input.Username,
		Password:          input.Password,
		Remember:          input.Remember,
		IPAddress:         requestutil.RemoteIP(request),
		PreviousSessionID: handler.cookies.ReadCookie(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.cookies.WriteCookie(writer, result.Session); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, MsgLoginSuccess, result)
}

/*
POST /api/v1/auth/logout.

Response:
  - 200: Session destroyed and cookie cleared
  - 401: Not authenticated
  - 403: CSRF token validation failed
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	current, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), current, requestutil.RemoteIP(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.cookies.ClearCookie(writer)
	respond.OK(writer, MsgLogoutSuccess, nil)
}

// GET /api/v1/auth/me returns the authenticated account.
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	current, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Me(request.Context(), current.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Current user", map[string]any{
		"user":     user,
		"name":     user.Name(),
		"redirect": RedirectFor(user.Role),
	})
}

// GET /api/v1/auth/csrf returns the CSRF token of the session.
func (handler *Handler) csrfToken(writer http.ResponseWriter, request *http.Request) {
	current, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "CSRF token", map[string]string{csrf.FieldName: current.CSRFToken})
}

// # Account Lifecycle

/*
POST /api/v1/auth/register.

Response:
  - 201: {user}: Created account summary
  - 409: Username or email already registered
  - 422: Validation failure
  - 429: Too many registrations from this address
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeBody(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Username:        input.Username,
		Email:           input.Email,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Phone:           input.Phone,
		Department:      input.Department,
		IPAddress:       requestutil.RemoteIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, MsgRegisterSuccess, map[string]any{"user": Summarize(user)})
}

// POST /api/v1/auth/verify-email confirms an email address.
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	var input tokenRequest
	if err := requestutil.DecodeBody(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	already, err := handler.authService.VerifyEmail(request.Context(), input.Token, requestutil.RemoteIP(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if already {
		respond.OK(writer, MsgAlreadyVerified, nil)
		return
	}
	respond.OK(writer, MsgVerified, nil)
}

// POST /api/v1/auth/forgot-password always answers with the same message.
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest
	if err := requestutil.DecodeBody(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.RequestPasswordReset(request.Context(), input.Email, requestutil.RemoteIP(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, MsgResetRequested, nil)
}

// POST /api/v1/auth/reset-password sets a new password from a reset token.
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest
	if err := requestutil.DecodeBody(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), ResetPasswordInput{
		Token:           input.Token,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
		IPAddress:       requestutil.RemoteIP(request),
	}); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, MsgResetSuccess, nil)
}

// POST /api/v1/auth/change-password replaces the caller's password.
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	current, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeBody(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ChangePassword(request.Context(), current, ChangePasswordInput{
		CurrentPassword: input.CurrentPassword,
		NewPassword:     input.NewPassword,
		ConfirmPassword: input.ConfirmPassword,
		IPAddress:       requestutil.RemoteIP(request),
	}); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, MsgPasswordChanged, nil)
}
