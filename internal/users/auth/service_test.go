// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/ratelimit"
	"github.com/taibuivan/staffdesk/internal/platform/sec"
	"github.com/taibuivan/staffdesk/internal/platform/session"
	"github.com/taibuivan/staffdesk/internal/users/auth"
	"github.com/taibuivan/staffdesk/pkg/normalize"
)

// # Fakes

type memoryUsers struct {
	mu         sync.Mutex
	byID       map[string]*auth.User
	lastLogins map[string]time.Time
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]*auth.User{}, lastLogins: map[string]time.Time{}}
}

func (repository *memoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if user, ok := repository.byID[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("User not found")
}

func (repository *memoryUsers) FindByLogin(_ context.Context, login string) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	key := normalize.Identifier(login)
	for _, user := range repository.byID {
		if user.Username == key || user.Email == key {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (repository *memoryUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	key := normalize.Identifier(email)
	for _, user := range repository.byID {
		if user.Email == key {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (repository *memoryUsers) Create(_ context.Context, user *auth.User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, existing := range repository.byID {
		if existing.Username == user.Username || existing.Email == user.Email {
			return apperr.Conflict("User already exists")
		}
	}
	clone := *user
	repository.byID[user.ID] = &clone
	return nil
}

func (repository *memoryUsers) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.lastLogins[userID] = at
	return nil
}

func (repository *memoryUsers) UpdatePassword(_ context.Context, userID, newHash string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	user, ok := repository.byID[userID]
	if !ok {
		return apperr.NotFound("User not found")
	}
	user.PasswordHash = newHash
	return nil
}

func (repository *memoryUsers) MarkVerified(_ context.Context, userID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	user, ok := repository.byID[userID]
	if !ok {
		return apperr.NotFound("User not found")
	}
	user.IsVerified = true
	return nil
}

// Exists implements validate.UniqueChecker over the same map.
func (repository *memoryUsers) Exists(_ context.Context, _, column, value string) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, user := range repository.byID {
		if (column == "username" && user.Username == value) || (column == "email" && user.Email == value) {
			return true, nil
		}
	}
	return false, nil
}

type memoryActivity struct {
	mu      sync.Mutex
	entries []auth.Activity
}

func (repository *memoryActivity) Record(_ context.Context, activity auth.Activity) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.entries = append(repository.entries, activity)
	return nil
}

func (repository *memoryActivity) kinds() []string {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	var kinds []string
	for _, entry := range repository.entries {
		kinds = append(kinds, entry.Activity)
	}
	return kinds
}

type memoryResetTokens struct {
	tokens map[string]string
}

func (repository *memoryResetTokens) Set(_ context.Context, token, userID string, _ time.Duration) error {
	repository.tokens[token] = userID
	return nil
}

func (repository *memoryResetTokens) Get(_ context.Context, token string) (string, error) {
	userID, ok := repository.tokens[token]
	if !ok {
		return "", apperr.NotFound(auth.MsgResetTokenInvalid)
	}
	return userID, nil
}

func (repository *memoryResetTokens) Delete(_ context.Context, token string) error {
	delete(repository.tokens, token)
	return nil
}

type fakeSessions struct {
	issued       []string
	previousIDs  []string
	destroyed    []string
	destroyUsers []string
}

func (sessions *fakeSessions) Issue(_ context.Context, previousID string, identity session.Identity, remember bool) (*session.Session, error) {
	sessions.issued = append(sessions.issued, identity.UserID)
	sessions.previousIDs = append(sessions.previousIDs, previousID)
	return &session.Session{
		ID:        "session-" + identity.UserID,
		UserID:    identity.UserID,
		Email:     identity.Email,
		Name:      identity.Name,
		Role:      identity.Role,
		CSRFToken: "csrf-" + identity.UserID,
		Remember:  remember,
	}, nil
}

func (sessions *fakeSessions) Destroy(_ context.Context, current *session.Session) error {
	sessions.destroyed = append(sessions.destroyed, current.ID)
	return nil
}

func (sessions *fakeSessions) DestroyUser(_ context.Context, userID string) error {
	sessions.destroyUsers = append(sessions.destroyUsers, userID)
	return nil
}

type fakeEmployees struct{ provisioned []string }

func (employees *fakeEmployees) Provision(_ context.Context, userID string) error {
	employees.provisioned = append(employees.provisioned, userID)
	return nil
}

type captureNotifier struct {
	verification string
	reset        string
}

func (notifier *captureNotifier) SendVerification(_ context.Context, _ *auth.User, link string) error {
	notifier.verification = link
	return nil
}

func (notifier *captureNotifier) SendPasswordReset(_ context.Context, _ *auth.User, link string) error {
	notifier.reset = link
	return nil
}

// # Fixture

const (
	testIP       = "203.0.113.7"
	testPassword = "Str0ng!Pass"
)

type fixture struct {
	service   *auth.Service
	users     *memoryUsers
	activity  *memoryActivity
	resets    *memoryResetTokens
	sessions  *fakeSessions
	employees *fakeEmployees
	notifier  *captureNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := ratelimit.NewFileStore(t.TempDir())
	require.NoError(t, err)
	limiter := ratelimit.New(store, ratelimit.WithPurgeSampler(func() bool { return false }))

	tokens, err := sec.NewTokenService("0123456789abcdef0123456789abcdef", "staffdesk")
	require.NoError(t, err)

	f := &fixture{
		users:     newMemoryUsers(),
		activity:  &memoryActivity{},
		resets:    &memoryResetTokens{tokens: map[string]string{}},
		sessions:  &fakeSessions{},
		employees: &fakeEmployees{},
		notifier:  &captureNotifier{},
	}
	f.service = auth.NewService(auth.Dependencies{
		Users:       f.users,
		Activity:    f.activity,
		ResetTokens: f.resets,
		Sessions:    f.sessions,
		Limiter:     limiter,
		Tokens:      tokens,
		Employees:   f.employees,
		Unique:      f.users,
		Notifier:    f.notifier,
	}, auth.Options{
		Login:   auth.Policy{Limit: 5, Window: 15 * time.Minute},
		BaseURL: "https://hr.example.com/",
	})
	return f
}

func (f *fixture) seed(t *testing.T, id, username string, role sec.UserRole, status auth.Status) *auth.User {
	t.Helper()
	hash, err := sec.HashPassword(testPassword)
	require.NoError(t, err)

	user := &auth.User{
		ID:           id,
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		Status:       status,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixture) login(username, password string) (*auth.LoginResult, error) {
	return f.service.Login(context.Background(), auth.LoginInput{
		Username:  username,
		Password:  password,
		IPAddress: testIP,
	})
}

func assertCode(t *testing.T, err error, code apperr.Code, message string) {
	t.Helper()
	appErr := apperr.As(err)
	require.NotNil(t, appErr, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

// # Login

/*
TestLogin_UnknownUser checks the generic credential failure.
*/
func TestLogin_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.login("nobody", testPassword)
	assertCode(t, err, apperr.CodeUnauthorized, "Invalid username or password")
	assert.Empty(t, f.sessions.issued)
}

/*
TestLogin_WrongPasswordSameWording checks that a wrong password is indistinguishable
from an unknown user.
*/
func TestLogin_WrongPasswordSameWording(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "jane", sec.RoleEmployee, auth.StatusActive)

	_, err := f.login("jane", "Wrong!Pass1")
	assertCode(t, err, apperr.CodeUnauthorized, "Invalid username or password")
}

/*
TestLogin_UnknownUserPaysPasswordCheck checks that an unknown account runs one
password comparison, like a wrong password does.
*/
func TestLogin_UnknownUserPaysPasswordCheck(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "jane", sec.RoleEmployee, auth.StatusActive)

	var hashes []string
	f.service.SetPasswordComparer(func(_, hash string) bool {
		hashes = append(hashes, hash)
		return false
	})

	_, err := f.login("nobody", testPassword)
	assertCode(t, err, apperr.CodeUnauthorized, "Invalid username or password")
	_, err = f.login("jane", "Wrong!Pass1")
	assertCode(t, err, apperr.CodeUnauthorized, "Invalid username or password")

	require.Len(t, hashes, 2)
	assert.Empty(t, hashes[0])
	assert.NotEmpty(t, hashes[1])
}

/*
TestLogin_SuspendedAccount checks the status gate and its message.
*/
func TestLogin_SuspendedAccount(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "jane", sec.RoleEmployee, auth.StatusSuspended)

	_, err := f.login("jane", testPassword)
	assertCode(t, err, apperr.CodeForbidden, "Your account is suspended. Please contact support.")
	assert.Equal(t, 403, apperr.As(err).HTTPStatus)
}

/*
TestLogin_Success checks the session, redirect and side effects of a good login.
*/
func TestLogin_Success(t *testing.T) {
	tests := []struct {
		role     sec.UserRole
		redirect string
	}{
		{sec.RoleAdmin, "admin_dashboard_overview.html"},
		{sec.RoleManager, "employee_list.html"},
		{sec.RoleEmployee, "employee_personalized_dashboard_1.html"},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, "u-1", "jane", tt.role, auth.StatusActive)

			result, err := f.service.Login(context.Background(), auth.LoginInput{
				Username:          "JANE@example.com",
				Password:          testPassword,
				IPAddress:         testIP,
				PreviousSessionID: "planted",
			})
			require.NoError(t, err)

			assert.Equal(t, tt.redirect, result.Redirect)
			assert.Equal(t, "u-1", result.User.ID)
			assert.Equal(t, "Test User", result.User.Name)
			assert.Equal(t, "csrf-u-1", result.CSRFToken)
			assert.Equal(t, []string{"planted"}, f.sessions.previousIDs)
			assert.Contains(t, f.users.lastLogins, "u-1")
			assert.Equal(t, []string{auth.ActivityLoginSuccess}, f.activity.kinds())
		})
	}
}

/*
TestLogin_RateLimited checks that five failures lock the address out, even for
the correct password.
*/
func TestLogin_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "jane", sec.RoleEmployee, auth.StatusActive)

	for range 5 {
		_, err := f.login("jane", "Wrong!Pass1")
		assertCode(t, err, apperr.CodeUnauthorized, "")
	}

	_, err := f.login("jane", testPassword)
	assertCode(t, err, apperr.CodeTooManyRequests, "Too many login attempts. Please try again in 15 minutes.")
	assert.Equal(t, 429, apperr.As(err).HTTPStatus)
	assert.Empty(t, f.sessions.issued)
}

/*
TestLogin_SuccessResetsBucket checks that a good login clears prior failures.
*/
func TestLogin_SuccessResetsBucket(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "jane", sec.RoleEmployee, auth.StatusActive)

	for range 4 {
		_, _ = f.login("jane", "Wrong!Pass1")
	}
	_, err := f.login("jane", testPassword)
	require.NoError(t, err)

	for range 4 {
		_, err := f.login("jane", "Wrong!Pass1")
		assertCode(t, err, apperr.CodeUnauthorized, "")
	}
	_, err = f.login("jane", testPassword)
	assert.NoError(t, err)
}

/*
TestLogin_InvalidInputNotCounted checks that validation failures never consume
rate-limit budget.
*/
func TestLogin_InvalidInputNotCounted(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "jane", sec.RoleEmployee, auth.StatusActive)

	for range 10 {
		_, err := f.login("ja", "short")
		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperr.CodeValidation, appErr.Code)
		assert.Contains(t, appErr.Fields, "username")
		assert.Contains(t, appErr.Fields, "password")
	}

	_, err := f.login("jane", testPassword)
	assert.NoError(t, err)
}

// # Registration

func validRegistration() auth.RegisterInput {
	return auth.RegisterInput{
		Username:        "NewHire",
		Email:           "New.Hire@Example.com",
		Password:        "Welcome#2026",
		ConfirmPassword: "Welcome#2026",
		FirstName:       "New",
		LastName:        "Hire",
		IPAddress:       testIP,
	}
}

/*
TestRegister_Success checks defaults, normalization and follow-ups.
*/
func TestRegister_Success(t *testing.T) {
	f := newFixture(t)

	user, err := f.service.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.Equal(t, "newhire", user.Username)
	assert.Equal(t, "new.hire@example.com", user.Email)
	assert.Equal(t, sec.RoleEmployee, user.Role)
	assert.Equal(t, auth.StatusActive, user.Status)
	assert.False(t, user.IsVerified)
	assert.True(t, sec.CheckPasswordHash("Welcome#2026", user.PasswordHash))
	assert.Equal(t, []string{user.ID}, f.employees.provisioned)
	assert.Equal(t, []string{auth.ActivitySignup}, f.activity.kinds())
	assert.Contains(t, f.notifier.verification, "https://hr.example.com/verify_email.html?token=")
}

/*
TestRegister_MissingDigit checks the 422 field error for a password without a number.
*/
func TestRegister_MissingDigit(t *testing.T) {
	f := newFixture(t)
	input := validRegistration()
	input.Password = "NoDigitsHere!"
	input.ConfirmPassword = "NoDigitsHere!"

	_, err := f.service.Register(context.Background(), input)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 422, appErr.HTTPStatus)
	assert.Equal(t, "Password must contain at least one number", appErr.Fields["password"]["digit"])
	assert.Empty(t, f.employees.provisioned)
}

/*
TestRegister_Duplicate checks that a taken username or email is a field error.
*/
func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "newhire", sec.RoleEmployee, auth.StatusActive)

	input := validRegistration()
	input.ConfirmPassword = "Mismatch#2026"

	_, err := f.service.Register(context.Background(), input)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "This username is already in use", appErr.Fields["username"]["unique"])
	assert.Equal(t, "Passwords do not match", appErr.Fields["confirm_password"]["matches"])
}

/*
TestRegister_RateLimited checks the per-address registration budget.
*/
func TestRegister_RateLimited(t *testing.T) {
	f := newFixture(t)
	input := validRegistration()
	input.Username = ""

	for range 5 {
		_, err := f.service.Register(context.Background(), input)
		assertCode(t, err, apperr.CodeValidation, "")
	}
	_, err := f.service.Register(context.Background(), input)
	assertCode(t, err, apperr.CodeTooManyRequests, "")
}

// # Email Verification

/*
TestVerifyEmail checks the signed link round trip and idempotency.
*/
func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	user, err := f.service.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	link, err := url.Parse(f.notifier.verification)
	require.NoError(t, err)
	token := link.Query().Get("token")

	already, err := f.service.VerifyEmail(context.Background(), token, testIP)
	require.NoError(t, err)
	assert.False(t, already)

	stored, _ := f.users.FindByID(context.Background(), user.ID)
	assert.True(t, stored.IsVerified)

	already, err = f.service.VerifyEmail(context.Background(), token, testIP)
	require.NoError(t, err)
	assert.True(t, already)

	_, err = f.service.VerifyEmail(context.Background(), token+"x", testIP)
	assertCode(t, err, apperr.CodeError, "Invalid or expired verification token")
}

// # Password Recovery

/*
TestPasswordReset checks the full forgot/reset flow and token burn.
*/
func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "jane", sec.RoleEmployee, auth.StatusActive)
	ctx := context.Background()

	require.NoError(t, f.service.RequestPasswordReset(ctx, "nobody@example.com", testIP))
	assert.Empty(t, f.resets.tokens)

	require.NoError(t, f.service.RequestPasswordReset(ctx, "JANE@example.com", testIP))
	require.Len(t, f.resets.tokens, 1)

	link, err := url.Parse(f.notifier.reset)
	require.NoError(t, err)
	token := link.Query().Get("token")

	err = f.service.ResetPassword(ctx, auth.ResetPasswordInput{
		Token:           token,
		Password:        "Brand#New9",
		ConfirmPassword: "Brand#New9",
		IPAddress:       "198.51.100.1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1"}, f.sessions.destroyUsers)
	assert.Empty(t, f.resets.tokens)

	_, err = f.service.Login(ctx, auth.LoginInput{Username: "jane", Password: "Brand#New9", IPAddress: "198.51.100.9"})
	assert.NoError(t, err)

	err = f.service.ResetPassword(ctx, auth.ResetPasswordInput{
		Token:           token,
		Password:        "Brand#New9",
		ConfirmPassword: "Brand#New9",
		IPAddress:       "198.51.100.2",
	})
	assertCode(t, err, apperr.CodeError, "Reset token is invalid or expired")
}

// # Password Change

/*
TestChangePassword checks the current-password gate and the update.
*/
func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "jane", sec.RoleEmployee, auth.StatusActive)
	current := &session.Session{ID: "s-1", UserID: "u-1"}
	ctx := context.Background()

	err := f.service.ChangePassword(ctx, current, auth.ChangePasswordInput{
		CurrentPassword: "Wrong!Pass1",
		NewPassword:     "Brand#New9",
		ConfirmPassword: "Brand#New9",
	})
	assertCode(t, err, apperr.CodeUnauthorized, "Current password is incorrect")

	err = f.service.ChangePassword(ctx, current, auth.ChangePasswordInput{
		CurrentPassword: testPassword,
		NewPassword:     "Brand#New9",
		ConfirmPassword: "Brand#New9",
	})
	require.NoError(t, err)

	stored, _ := f.users.FindByID(ctx, "u-1")
	assert.True(t, sec.CheckPasswordHash("Brand#New9", stored.PasswordHash))
	assert.Contains(t, f.activity.kinds(), auth.ActivityPasswordChanged)
}
