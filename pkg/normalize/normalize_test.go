// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/staffdesk/pkg/normalize"
)

/*
TestIdentifier covers trimming, case folding and compatibility normalization.
*/
func TestIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Admin ", "admin"},
		{"Jane.Doe@Example.COM", "jane.doe@example.com"},
		{"ａｄｍｉｎ", "admin"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Identifier(tt.input))
		})
	}
}

/*
TestName keeps case and composes decomposed accents.
*/
func TestName(t *testing.T) {
	assert.Equal(t, "José", normalize.Name("  José "))
}
