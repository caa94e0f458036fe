// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: bucket names, fixed policies and the burst guard.
  - Security: token issuer and token lifetimes.
  - Headers: names shared by middleware and handlers.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "staffdesk-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

// Bucket names for the sliding-window limiter.
const (
	BucketLogin          = "login_attempts"
	BucketRegister       = "register"
	BucketPasswordReset  = "password_reset"
	BucketVerifyEmail    = "verify_email"
	BucketChangePassword = "change_password"
	BucketAPI            = "api"
)

// Fixed policies for buckets without a configuration knob.
const (
	RegisterRateLimit        = 5
	RegisterRateWindow       = time.Hour
	PasswordResetRateLimit   = 3
	PasswordResetRateWindow  = time.Hour
	VerifyEmailRateLimit     = 10
	VerifyEmailRateWindow    = time.Hour
	ChangePasswordRateLimit  = 5
	ChangePasswordRateWindow = 15 * time.Minute
)

const (
	// BurstGuardRPS is the sustained per-IP rate of the in-memory burst guard.
	BurstGuardRPS = 20.0

	// BurstGuardBurst is the token bucket size of the burst guard.
	BurstGuardBurst = 40

	// BurstGuardCleanupInterval is how often idle IP entries are removed from memory.
	BurstGuardCleanupInterval = 1 * time.Minute

	// BurstGuardClientTTL is how long a client must be idle before its entry is deleted.
	BurstGuardClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// TokenIssuer is the 'iss' claim of signed verification tokens.
	TokenIssuer = "staffdesk"

	// VerificationTokenTTL bounds email verification links.
	VerificationTokenTTL = 48 * time.Hour

	// ResetTokenTTL bounds password reset tokens.
	ResetTokenTTL = time.Hour

	// ResetTokenBytes is the entropy of a password reset token.
	ResetTokenBytes = 32
)

// # HTTP Headers

const (
	HeaderXRequestID = "X-Request-ID"
	HeaderOrigin     = "Origin"
)

// # Redis Prefixes

const (
	RedisPrefixResetToken = "auth:reset_token:"
)
