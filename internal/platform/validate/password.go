// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate

import (
	"regexp"
	"unicode/utf8"
)

// Strength is the password strength level computed by [Score].
type Strength int

const (
	Weak Strength = iota
	Fair
	Good
	Strong
)

// String returns the lowercase level name.
func (s Strength) String() string {
	switch s {
	case Weak:
		return "weak"
	case Fair:
		return "fair"
	case Good:
		return "good"
	case Strong:
		return "strong"
	default:
		return "unknown"
	}
}

var (
	hasUpper  = regexp.MustCompile(`[A-Z]`)
	hasLower  = regexp.MustCompile(`[a-z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
	hasSymbol = regexp.MustCompile("[!@#$%^&*()_+\\-=\\[\\]{};:'\",.<>?/\\\\|~`]")
)

// strongLength is the length that earns the length point.
const strongLength = 10

/*
Score rates a password.

One point each is awarded for: at least 10 characters, an uppercase letter, a
lowercase letter, a digit, and a symbol. The level is points/2 capped at [Strong],
so five points yield [Good]; [Strong] is never reached by this scale.
*/
func Score(password string) Strength {
	points := 0
	if utf8.RuneCountInString(password) >= strongLength {
		points++
	}
	for _, class := range []*regexp.Regexp{hasUpper, hasLower, hasDigit, hasSymbol} {
		if class.MatchString(password) {
			points++
		}
	}
	return min(Strong, Strength(points/2))
}
