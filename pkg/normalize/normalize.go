// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package normalize canonicalizes user-supplied identifiers before they are
// stored or compared.
//
// # Pipeline
//
// 1. Trims surrounding whitespace.
// 2. Normalizes to NFKC (compatibility forms such as full-width letters collapse).
// 3. Applies Unicode case folding.
//
// Usernames and emails are persisted in this form, so "Admin" and "ａｄｍｉｎ"
// resolve to the same account.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Identifier returns the canonical form of a username or email address.
func Identifier(s string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(s)))
}

// Name trims and NFC-normalizes a display name without changing its case.
func Name(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
