// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	stdctx "context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/constants"
	"github.com/taibuivan/staffdesk/internal/platform/ctxutil"
	"github.com/taibuivan/staffdesk/internal/platform/logging"
	"github.com/taibuivan/staffdesk/internal/platform/metrics"
	"github.com/taibuivan/staffdesk/internal/platform/sec"
	"github.com/taibuivan/staffdesk/internal/platform/session"
	"github.com/taibuivan/staffdesk/internal/platform/validate"
	"github.com/taibuivan/staffdesk/pkg/normalize"
	"github.com/taibuivan/staffdesk/pkg/uuid"
)

// # Collaborators

// RateLimiter is the sliding-window limiter consulted before each guarded action.
type RateLimiter interface {
	Check(ctx stdctx.Context, identifier, bucket string, limit int, window time.Duration) bool
	Reset(ctx stdctx.Context, bucket, identifier string) error
}

// SessionIssuer creates and ends login sessions.
type SessionIssuer interface {
	Issue(ctx stdctx.Context, previousID string, identity session.Identity, remember bool) (*session.Session, error)
	Destroy(ctx stdctx.Context, current *session.Session) error
	DestroyUser(ctx stdctx.Context, userID string) error
}

// VerificationTokens signs and checks email verification tokens.
type VerificationTokens interface {
	GenerateVerificationToken(userID, email string, timeToLive time.Duration) (string, error)
	VerifyVerificationToken(token string) (*sec.VerificationClaims, error)
}

// EmployeeProvisioner creates the employee record that belongs to a new account.
type EmployeeProvisioner interface {
	Provision(ctx stdctx.Context, userID string) error
}

// Policy is one sliding-window limit.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Options holds the tunables of [Service].
type Options struct {
	// Login limits login attempts per client IP.
	Login Policy

	// BaseURL prefixes links sent by the [Notifier].
	BaseURL string
}

// Dependencies groups the collaborators of [Service].
type Dependencies struct {
	Users       UserRepository
	Activity    ActivityRepository
	ResetTokens ResetTokenRepository
	Sessions    SessionIssuer
	Limiter     RateLimiter
	Tokens      VerificationTokens
	Employees   EmployeeProvisioner
	Unique      validate.UniqueChecker
	Notifier    Notifier
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	deps    Dependencies
	options Options
	now     func() time.Time

	// compare checks a password against a stored hash. An empty hash runs the
	// decoy comparison.
	compare func(password, hash string) bool
}

// NewService constructs a new [Service].
func NewService(deps Dependencies, options Options) *Service {
	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{}
	}
	return &Service{deps: deps, options: options, now: time.Now, compare: comparePassword}
}

func comparePassword(password, hash string) bool {
	if hash == "" {
		return sec.DecoyPasswordCheck(password)
	}
	return sec.CheckPasswordHash(password, hash)
}

// SetClock replaces the time source. Intended for tests.
func (service *Service) SetClock(now func() time.Time) {
	service.now = now
}

// SetPasswordComparer replaces the password check. Intended for tests.
func (service *Service) SetPasswordComparer(compare func(password, hash string) bool) {
	service.compare = compare
}

// checkPassword reports whether password matches hash. Login calls it with an
// empty hash for unknown accounts so both failures cost one bcrypt comparison.
func (service *Service) checkPassword(password, hash string) bool {
	return service.compare(password, hash)
}

// admit consults the limiter and converts a rejection into a 429.
func (service *Service) admit(context stdctx.Context, identifier, bucket string, limit int, window time.Duration) error {
	if service.deps.Limiter.Check(context, identifier, bucket, limit, window) {
		return nil
	}
	return apperr.TooManyRequests(MsgTooManyRequests)
}

// detached returns a bounded context that survives client disconnects, for
// bookkeeping writes that must not be lost once the main action succeeded.
func detached(context stdctx.Context) (stdctx.Context, stdctx.CancelFunc) {
	return stdctx.WithTimeout(stdctx.WithoutCancel(context), sideEffectTimeout)
}

func (service *Service) recordActivity(context stdctx.Context, activity Activity) {
	sideCtx, cancel := detached(context)
	defer cancel()

	if err := service.deps.Activity.Record(sideCtx, activity); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "activity_record_failed",
			slog.String("activity", activity.Activity),
			slog.Any("error", err),
		)
	}
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username          string // Username or email
	Password          string
	Remember          bool
	IPAddress         string
	PreviousSessionID string // Session id from the request cookie, if any
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	User      Summary          `json:"user"`
	Redirect  string           `json:"redirect"`
	CSRFToken string           `json:"csrf_token"`
	Session   *session.Session `json:"-"`
}

/*
Login authenticates a user and issues a fresh session.

Description: Runs the login pipeline. Every attempt that passes validation is
counted against the "login_attempts" bucket of the client IP, so failed
passwords consume the budget; a successful login clears it.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: Session, landing page and CSRF token
  - error: 422 invalid input, 429 rate limited, 401 unknown user or bad
    password, 403 non-active account, 503 session store unavailable
*/
func (service *Service) Login(context stdctx.Context, input LoginInput) (*LoginResult, error) {
	logger := ctxutil.GetLogger(context)

	// ── 1. Validation ─────────────────────────────────────────────────────
	validator := validate.New()
	validator.Field(FieldUsername, input.Username).Required().MinLength(UsernameMinLength)
	validator.Field(FieldPassword, input.Password).Required().MinLength(PasswordMinLength)
	if err := validator.Validate(context); err != nil {
		metrics.LoginAttempts.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	// ── 2. Rate Limit ─────────────────────────────────────────────────────
	policy := service.options.Login
	if !service.deps.Limiter.Check(context, input.IPAddress, constants.BucketLogin, policy.Limit, policy.Window) {
		logging.Security(context, logger, "login_rate_limited",
			slog.String(logging.AttrIPAddress, input.IPAddress),
			slog.String(FieldUsername, input.Username),
		)
		metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		return nil, apperr.TooManyRequests(MsgTooManyLogins)
	}

	// ── 3. Lookup ─────────────────────────────────────────────────────────
	user, err := service.deps.Users.FindByLogin(context, input.Username)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			service.checkPassword(input.Password, "")
			logger.WarnContext(context, "login_failed",
				slog.String("reason", "unknown_user"),
				slog.String(FieldUsername, input.Username),
			)
			metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
			return nil, apperr.Unauthorized(MsgInvalidCredentials)
		}
		return nil, err
	}

	// ── 4. Account Status ─────────────────────────────────────────────────
	if user.Status != StatusActive {
		logger.WarnContext(context, "login_failed",
			slog.String("reason", "account_"+string(user.Status)),
			slog.String(logging.AttrUserID, user.ID),
		)
		metrics.LoginAttempts.WithLabelValues("inactive").Inc()
		return nil, apperr.Forbidden(fmt.Sprintf(MsgAccountStatusFormat, user.Status))
	}

	// ── 5. Password ───────────────────────────────────────────────────────
	if !service.checkPassword(input.Password, user.PasswordHash) {
		logger.WarnContext(context, "login_failed",
			slog.String("reason", "bad_password"),
			slog.String(logging.AttrUserID, user.ID),
		)
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}

	// ── 6. Session ────────────────────────────────────────────────────────
	current, err := service.deps.Sessions.Issue(context, input.PreviousSessionID, user.Identity(), input.Remember)
	if err != nil {
		return nil, apperr.ServiceUnavailable("Unable to start a session. Please try again.", err)
	}

	// ── 7. Side Effects ───────────────────────────────────────────────────
	service.afterLogin(context, user, input.IPAddress)
	metrics.LoginAttempts.WithLabelValues("success").Inc()

	return &LoginResult{
		User:      Summarize(user),
		Redirect:  RedirectFor(user.Role),
		CSRFToken: current.CSRFToken,
		Session:   current,
	}, nil
}

// afterLogin performs the bookkeeping of a successful login. Failures are
// logged and never undo the login.
func (service *Service) afterLogin(context stdctx.Context, user *User, ipAddress string) {
	logger := ctxutil.GetLogger(context)
	sideCtx, cancel := detached(context)
	defer cancel()

	if err := service.deps.Users.TouchLastLogin(sideCtx, user.ID, service.now().UTC()); err != nil {
		logger.WarnContext(context, "last_login_update_failed", slog.Any("error", err))
	}

	service.recordActivity(context, Activity{
		UserID:    user.ID,
		Activity:  ActivityLoginSuccess,
		Details:   "User logged in successfully",
		IPAddress: ipAddress,
	})

	if err := service.deps.Limiter.Reset(sideCtx, constants.BucketLogin, ipAddress); err != nil {
		logger.WarnContext(context, "login_rate_limit_reset_failed", slog.Any("error", err))
	}

	logger.InfoContext(context, "login_succeeded",
		slog.String(logging.AttrUserID, user.ID),
		slog.String("role", string(user.Role)),
		slog.String(logging.AttrIPAddress, ipAddress),
	)
}

/*
Logout ends the session of the caller.

Parameters:
  - context: context.Context
  - current: *session.Session (the authenticated session)
  - ipAddress: string

Returns:
  - error: 503 when the session store cannot be reached
*/
func (service *Service) Logout(context stdctx.Context, current *session.Session, ipAddress string) error {
	if err := service.deps.Sessions.Destroy(context, current); err != nil {
		return apperr.ServiceUnavailable("Unable to end the session. Please try again.", err)
	}

	service.recordActivity(context, Activity{
		UserID:    current.UserID,
		Activity:  ActivityLogout,
		Details:   "User logged out",
		IPAddress: ipAddress,
	})
	ctxutil.GetLogger(context).InfoContext(context, "logout_succeeded")
	return nil
}

// Me returns the account behind the session.
func (service *Service) Me(context stdctx.Context, userID string) (*User, error) {
	return service.deps.Users.FindByID(context, userID)
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new employee account.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	Phone           string
	Department      string
	IPAddress       string
}

/*
Register validates, hashes, and persists a brand new account.

Description: New accounts are active employees with an unverified email. An
employee record is provisioned and a verification link is delivered through
the [Notifier]. Neither follow-up can fail the registration.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: 429 rate limited, 422 validation failures, 409 on a race with a
    concurrent registration, or storage errors
*/
func (service *Service) Register(context stdctx.Context, input RegisterInput) (*User, error) {
	logger := ctxutil.GetLogger(context)

	if err := service.admit(context, input.IPAddress, constants.BucketRegister,
		constants.RegisterRateLimit, constants.RegisterRateWindow); err != nil {
		return nil, err
	}

	username := normalize.Identifier(input.Username)
	email := normalize.Identifier(input.Email)
	firstName := normalize.Name(input.FirstName)
	lastName := normalize.Name(input.LastName)

	validator := validate.New()
	validator.Field(FieldUsername, username).Required().
		MinLength(UsernameMinLength).MaxLength(UsernameMaxLength).
		Format(usernamePattern).Message("Username may only contain letters, numbers, dots, dashes and underscores").
		Unique(service.deps.Unique, "users", "username")
	validator.Field(FieldEmail, email).Required().Email().MaxLength(255).
		Unique(service.deps.Unique, "users", "email")
	validator.Field(FieldFirstName, firstName).Required().MinLength(NameMinLength).MaxLength(100)
	validator.Field(FieldLastName, lastName).Required().MinLength(NameMinLength).MaxLength(100)
	validator.Field(FieldPassword, input.Password).Required().
		MinLength(PasswordMinLength).PasswordClasses().PasswordStrength(validate.Good)
	validator.Field(FieldConfirmPassword, input.ConfirmPassword).Required().
		Matches(input.Password, FieldPassword).Message(MsgPasswordsDiffer)
	validator.Field(FieldPhone, input.Phone).Optional().Format(phonePattern)
	validator.Field(FieldDepartment, input.Department).Optional().MaxLength(100)
	if err := validator.Validate(context); err != nil {
		return nil, err
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: hashedPassword,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        input.Phone,
		Department:   input.Department,
		Role:         sec.RoleEmployee,
		Status:       StatusActive,
	}
	if err := service.deps.Users.Create(context, user); err != nil {
		return nil, err
	}

	if err := service.deps.Employees.Provision(context, user.ID); err != nil {
		logger.WarnContext(context, "employee_provision_failed",
			slog.String(logging.AttrUserID, user.ID),
			slog.Any("error", err),
		)
	}

	service.recordActivity(context, Activity{
		UserID:    user.ID,
		Activity:  ActivitySignup,
		Details:   "User registered successfully",
		IPAddress: input.IPAddress,
	})
	service.sendVerification(context, user)

	logger.InfoContext(context, "user_registered", slog.String(logging.AttrUserID, user.ID))
	return user, nil
}

func (service *Service) sendVerification(context stdctx.Context, user *User) {
	logger := ctxutil.GetLogger(context)

	token, err := service.deps.Tokens.GenerateVerificationToken(user.ID, user.Email, constants.VerificationTokenTTL)
	if err != nil {
		logger.ErrorContext(context, "verification_token_failed", slog.Any("error", err))
		return
	}
	link := buildLink(service.options.BaseURL, "verify_email.html", token)
	if err := service.deps.Notifier.SendVerification(context, user, link); err != nil {
		logger.WarnContext(context, "verification_delivery_failed", slog.Any("error", err))
	}
}

/*
VerifyEmail confirms a user's email address using a signed token.

Returns:
  - bool: true when the address was already verified
  - error: 429 rate limited, 400 invalid or expired token
*/
func (service *Service) VerifyEmail(context stdctx.Context, token, ipAddress string) (bool, error) {
	if err := service.admit(context, ipAddress, constants.BucketVerifyEmail,
		constants.VerifyEmailRateLimit, constants.VerifyEmailRateWindow); err != nil {
		return false, err
	}

	validator := validate.New()
	validator.Field(FieldToken, token).Required()
	if err := validator.Validate(context); err != nil {
		return false, err
	}

	claims, err := service.deps.Tokens.VerifyVerificationToken(token)
	if err != nil {
		return false, apperr.BadRequest(MsgVerifyTokenInvalid)
	}

	user, err := service.deps.Users.FindByID(context, claims.Subject)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return false, apperr.BadRequest(MsgVerifyTokenInvalid)
		}
		return false, err
	}

	// A token minted before an email change must not verify the new address.
	if user.Email != normalize.Identifier(claims.Email) {
		return false, apperr.BadRequest(MsgVerifyTokenInvalid)
	}
	if user.IsVerified {
		return true, nil
	}

	if err := service.deps.Users.MarkVerified(context, user.ID); err != nil {
		return false, err
	}
	service.recordActivity(context, Activity{
		UserID:    user.ID,
		Activity:  ActivityEmailVerified,
		Details:   "Email address verified",
		IPAddress: ipAddress,
	})
	return false, nil
}

// # Password Management

// ChangePasswordInput holds the fields of a password change.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
	IPAddress       string
}

/*
ChangePassword lets an authenticated user replace their password.

Parameters:
  - context: context.Context
  - current: *session.Session
  - input: ChangePasswordInput

Returns:
  - error: 429, 422, 401 wrong current password, or storage failures
*/
func (service *Service) ChangePassword(context stdctx.Context, current *session.Session, input ChangePasswordInput) error {
	if err := service.admit(context, current.UserID, constants.BucketChangePassword,
		constants.ChangePasswordRateLimit, constants.ChangePasswordRateWindow); err != nil {
		return err
	}

	validator := validate.New()
	validator.Field(FieldCurrentPassword, input.CurrentPassword).Required()
	validator.Field(FieldNewPassword, input.NewPassword).Required().
		MinLength(PasswordMinLength).PasswordClasses()
	validator.Field(FieldConfirmPassword, input.ConfirmPassword).Required().
		Matches(input.NewPassword, FieldNewPassword).Message(MsgPasswordsDiffer)
	if err := validator.Validate(context); err != nil {
		return err
	}

	user, err := service.deps.Users.FindByID(context, current.UserID)
	if err != nil {
		return err
	}
	if !service.checkPassword(input.CurrentPassword, user.PasswordHash) {
		logging.Security(context, ctxutil.GetLogger(context), "password_change_rejected",
			slog.String(logging.AttrIPAddress, input.IPAddress),
		)
		return apperr.Unauthorized(MsgCurrentPassword)
	}

	hashedPassword, err := sec.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}
	if err := service.deps.Users.UpdatePassword(context, user.ID, hashedPassword); err != nil {
		return err
	}

	service.recordActivity(context, Activity{
		UserID:    user.ID,
		Activity:  ActivityPasswordChanged,
		Details:   "Password changed",
		IPAddress: input.IPAddress,
	})
	return nil
}

/*
RequestPasswordReset starts the forgot-password flow.

Description: The outcome is identical whether or not the address belongs to an
account, so the endpoint cannot be used to enumerate users.

Returns:
  - error: 429, 422 malformed email, or token store failures
*/
func (service *Service) RequestPasswordReset(context stdctx.Context, email, ipAddress string) error {
	if err := service.admit(context, ipAddress, constants.BucketPasswordReset,
		constants.PasswordResetRateLimit, constants.PasswordResetRateWindow); err != nil {
		return err
	}

	validator := validate.New()
	validator.Field(FieldEmail, email).Required().Email()
	if err := validator.Validate(context); err != nil {
		return err
	}

	user, err := service.deps.Users.FindByEmail(context, email)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil
		}
		return err
	}
	if user.Status != StatusActive {
		return nil
	}

	token, err := sec.GenerateSecureToken(constants.ResetTokenBytes)
	if err != nil {
		return fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}
	if err := service.deps.ResetTokens.Set(context, token, user.ID, constants.ResetTokenTTL); err != nil {
		return apperr.ServiceUnavailable("Unable to start password reset. Please try again.", err)
	}

	link := buildLink(service.options.BaseURL, "reset_password.html", token)
	if err := service.deps.Notifier.SendPasswordReset(context, user, link); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "password_reset_delivery_failed", slog.Any("error", err))
	}
	return nil
}

// ResetPasswordInput holds the fields of a password reset.
type ResetPasswordInput struct {
	Token           string
	Password        string
	ConfirmPassword string
	IPAddress       string
}

/*
ResetPassword completes the forgot-password flow.

Description: Verifies the token, stores the new hash, ends the user's active
session and burns the token.

Returns:
  - error: 429, 422, 400 invalid token, or storage failures
*/
func (service *Service) ResetPassword(context stdctx.Context, input ResetPasswordInput) error {
	if err := service.admit(context, input.IPAddress, constants.BucketPasswordReset,
		constants.PasswordResetRateLimit, constants.PasswordResetRateWindow); err != nil {
		return err
	}

	validator := validate.New()
	validator.Field(FieldToken, input.Token).Required()
	validator.Field(FieldPassword, input.Password).Required().
		MinLength(PasswordMinLength).PasswordClasses()
	validator.Field(FieldConfirmPassword, input.ConfirmPassword).Required().
		Matches(input.Password, FieldPassword).Message(MsgPasswordsDiffer)
	if err := validator.Validate(context); err != nil {
		return err
	}

	userID, err := service.deps.ResetTokens.Get(context, input.Token)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return apperr.BadRequest(MsgResetTokenInvalid)
		}
		return err
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}
	if err := service.deps.Users.UpdatePassword(context, userID, hashedPassword); err != nil {
		return err
	}

	logger := ctxutil.GetLogger(context)
	if err := service.deps.Sessions.DestroyUser(context, userID); err != nil && !errors.Is(err, session.ErrNotFound) {
		logger.WarnContext(context, "reset_session_cleanup_failed", slog.Any("error", err))
	}
	if err := service.deps.ResetTokens.Delete(context, input.Token); err != nil {
		logger.WarnContext(context, "reset_token_delete_failed", slog.Any("error", err))
	}

	service.recordActivity(context, Activity{
		UserID:    userID,
		Activity:  ActivityPasswordReset,
		Details:   "Password reset via email link",
		IPAddress: input.IPAddress,
	})
	return nil
}
