// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a per-field rule builder that collects every
// failure before returning a single [apperr.AppError].
//
// # Architecture
//
// This package is used exclusively in the service layer, never in handlers or
// storage. Rules are declared up front and evaluated in one pass by [Validator.Validate]:
//
//	v := validate.New()
//	v.Field("username", input.Username).Required().MinLength(3)
//	v.Field("email", input.Email).Required().Email().Unique(checker, "users", "email")
//	if err := v.Validate(ctx); err != nil {
//		return err
//	}
package validate

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
)

// ErrInvalidJSON is returned when the request body cannot be decoded.
var ErrInvalidJSON = apperr.BadRequest("Invalid request payload")

// # Collaborators

// UniqueChecker answers whether a value is already stored in table.column.
//
// The only rule with a side-effecting dependency is [Field.Unique]; everything
// else is pure.
type UniqueChecker interface {
	Exists(ctx context.Context, table, column, value string) (bool, error)
}

// # Validator

// Validator holds the declared fields in declaration order.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	fields []*Field
}

// New returns an empty [Validator].
func New() *Validator {
	return &Validator{}
}

// Field declares a field and returns the builder that owns its rules.
// Declaring the same name twice creates two independent rule sets.
func (v *Validator) Field(name, value string) *Field {
	field := &Field{name: name, value: value}
	v.fields = append(v.fields, field)
	return field
}

/*
Validate evaluates every declared rule and collects every failure.

A required field that is absent records only the "required" failure. All other
rules run even when an earlier rule on the same field failed.

Returns:
  - error: nil when every rule passes, apperr.Validation (422) with the
    field map otherwise, or apperr.Internal when a uniqueness lookup fails
*/
func (v *Validator) Validate(ctx context.Context) error {
	failures := make(apperr.FieldErrors)

	for _, field := range v.fields {
		if strings.TrimSpace(field.value) == "" {
			if field.required {
				failures.Add(field.name, ruleRequired, field.requiredMessage)
			}
			continue
		}

		for _, r := range field.rules {
			ok, err := r.check(ctx, field.value)
			if err != nil {
				return apperr.Internal(fmt.Errorf("validate_%s_%s_failed: %w", field.name, r.key, err))
			}
			if !ok {
				failures.Add(field.name, r.key, r.message)
			}
		}
	}

	if len(failures) == 0 {
		return nil
	}
	return apperr.Validation("Validation failed", failures)
}

// # Field Builder

// Rule keys as they appear in the error map.
const (
	ruleRequired         = "required"
	ruleEmail            = "email"
	ruleMinLength        = "minLength"
	ruleMaxLength        = "maxLength"
	ruleNumeric          = "numeric"
	ruleDate             = "date"
	ruleIn               = "in"
	ruleFormat           = "format"
	rulePasswordStrength = "passwordStrength"
	ruleUppercase        = "uppercase"
	ruleLowercase        = "lowercase"
	ruleDigit            = "digit"
	ruleSymbol           = "symbol"
	ruleMatches          = "matches"
	ruleUnique           = "unique"
)

type rule struct {
	key     string
	message string
	check   func(ctx context.Context, value string) (bool, error)
}

// Field is the builder for one declared field. Every method returns the same
// builder so rules chain.
type Field struct {
	name            string
	value           string
	required        bool
	requiredMessage string
	rules           []*rule

	// lastMessage points at the message most recently declared on this field.
	lastMessage *string
}

// Required marks the field as mandatory. An empty or whitespace-only value fails.
func (f *Field) Required() *Field {
	f.required = true
	f.requiredMessage = "This field is required"
	f.lastMessage = &f.requiredMessage
	return f
}

// Optional marks the field as optional. An empty value skips every rule.
func (f *Field) Optional() *Field {
	f.required = false
	return f
}

// Message overrides the message of the most recently declared rule.
func (f *Field) Message(msg string) *Field {
	if f.lastMessage != nil {
		*f.lastMessage = msg
	}
	return f
}

func (f *Field) add(key, message string, check func(ctx context.Context, value string) (bool, error)) *Field {
	r := &rule{key: key, message: message, check: check}
	f.rules = append(f.rules, r)
	f.lastMessage = &r.message
	return f
}

// pure adapts a side-effect free predicate to the rule signature.
func pure(predicate func(value string) bool) func(context.Context, string) (bool, error) {
	return func(_ context.Context, value string) (bool, error) {
		return predicate(value), nil
	}
}

// Email fails when the value is not a bare RFC 5322 address.
func (f *Field) Email() *Field {
	return f.add(ruleEmail, "Please enter a valid email address", pure(func(value string) bool {
		address, err := mail.ParseAddress(value)
		return err == nil && address.Address == value && address.Name == ""
	}))
}

// MinLength fails when the value has fewer than n characters.
func (f *Field) MinLength(n int) *Field {
	return f.add(ruleMinLength, fmt.Sprintf("Must be at least %d characters long", n), pure(func(value string) bool {
		return utf8.RuneCountInString(value) >= n
	}))
}

// MaxLength fails when the value has more than n characters.
func (f *Field) MaxLength(n int) *Field {
	return f.add(ruleMaxLength, fmt.Sprintf("Cannot exceed %d characters", n), pure(func(value string) bool {
		return utf8.RuneCountInString(value) <= n
	}))
}

// Numeric fails when the value is not a decimal number.
func (f *Field) Numeric() *Field {
	return f.add(ruleNumeric, "Must be a numeric value", pure(func(value string) bool {
		_, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		return err == nil
	}))
}

// Date fails when the value does not parse with layout or does not round-trip
// (e.g. "2026-02-30").
func (f *Field) Date(layout string) *Field {
	return f.add(ruleDate, fmt.Sprintf("Invalid date format. Use %s", layout), pure(func(value string) bool {
		parsed, err := time.Parse(layout, value)
		return err == nil && parsed.Format(layout) == value
	}))
}

// In fails when the value is not one of allowed.
func (f *Field) In(allowed ...string) *Field {
	return f.add(ruleIn, "Invalid value for this field", pure(func(value string) bool {
		for _, candidate := range allowed {
			if value == candidate {
				return true
			}
		}
		return false
	}))
}

// Format fails when the value does not match pattern.
func (f *Field) Format(pattern *regexp.Regexp) *Field {
	return f.add(ruleFormat, "Invalid format for this field", pure(pattern.MatchString))
}

// PasswordStrength fails when [Score] of the value is below min.
func (f *Field) PasswordStrength(min Strength) *Field {
	return f.add(rulePasswordStrength,
		"Password must contain uppercase, lowercase, numbers, and special characters",
		pure(func(value string) bool {
			return Score(value) >= min
		}))
}

// PasswordClasses requires one uppercase letter, one lowercase letter, one digit and
// one symbol, reporting each missing class under its own rule key.
func (f *Field) PasswordClasses() *Field {
	f.add(ruleUppercase, "Password must contain at least one uppercase letter", pure(hasUpper.MatchString))
	f.add(ruleLowercase, "Password must contain at least one lowercase letter", pure(hasLower.MatchString))
	f.add(ruleDigit, "Password must contain at least one number", pure(hasDigit.MatchString))
	return f.add(ruleSymbol, "Password must contain at least one special character", pure(hasSymbol.MatchString))
}

// Matches fails when the value differs from other. label names the other field
// in the message.
func (f *Field) Matches(other, label string) *Field {
	return f.add(ruleMatches, fmt.Sprintf("Must match %s", label), pure(func(value string) bool {
		return value == other
	}))
}

// Unique fails when checker reports the value already exists in table.column.
func (f *Field) Unique(checker UniqueChecker, table, column string) *Field {
	return f.add(ruleUnique, fmt.Sprintf("This %s is already in use", f.name),
		func(ctx context.Context, value string) (bool, error) {
			exists, err := checker.Exists(ctx, table, column, value)
			if err != nil {
				return false, err
			}
			return !exists, nil
		})
}
