// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"regexp"
	"time"
)

// # Authentication Constraints

const (
	// UsernameMinLength is the shortest accepted username.
	UsernameMinLength = 3

	// UsernameMaxLength bounds stored usernames.
	UsernameMaxLength = 50

	// PasswordMinLength is the shortest accepted password.
	PasswordMinLength = 8

	// NameMinLength is the shortest accepted first or last name.
	NameMinLength = 2

	// sideEffectTimeout bounds the post-login bookkeeping writes.
	sideEffectTimeout = 3 * time.Second
)

var (
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.-]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9 ()-]{7,20}$`)
)

// # Client Messages

const (
	MsgInvalidCredentials  = "Invalid username or password"
	MsgTooManyLogins       = "Too many login attempts. Please try again in 15 minutes."
	MsgAccountStatusFormat = "Your account is %s. Please contact support."
	MsgLoginSuccess        = "Login successful"
	MsgLogoutSuccess       = "Logged out successfully"
	MsgRegisterSuccess     = "Registration successful! Please log in with your credentials."
	MsgTooManyRequests     = "Too many requests. Please try again later."
	MsgResetRequested      = "If this email exists, a password reset link has been sent."
	MsgResetSuccess        = "Password has been reset. Please log in with your new password."
	MsgResetTokenInvalid   = "Reset token is invalid or expired"
	MsgPasswordChanged     = "Password changed successfully"
	MsgCurrentPassword     = "Current password is incorrect"
	MsgVerified            = "Email verified successfully"
	MsgAlreadyVerified     = "Email already verified"
	MsgVerifyTokenInvalid  = "Invalid or expired verification token"
	MsgPasswordsDiffer     = "Passwords do not match"
)
