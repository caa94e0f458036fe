// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/staffdesk/pkg/pagination"
)

/*
TestFromRequest checks clamping of page and limit query parameters.
*/
func TestFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  pagination.Params
	}{
		{"", pagination.Params{Page: 1, Limit: pagination.DefaultLimit}},
		{"?page=3&limit=50", pagination.Params{Page: 3, Limit: 50}},
		{"?page=-1&limit=1000", pagination.Params{Page: 1, Limit: pagination.DefaultLimit}},
		{"?page=abc", pagination.Params{Page: 1, Limit: pagination.DefaultLimit}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			request := httptest.NewRequest("GET", "/users"+tt.query, nil)
			assert.Equal(t, tt.want, pagination.FromRequest(request))
		})
	}
}

/*
TestNewMeta checks total page rounding and offsets.
*/
func TestNewMeta(t *testing.T) {
	assert.Equal(t, 3, pagination.NewMeta(1, 20, 41).TotalPages)
	assert.Equal(t, 0, pagination.NewMeta(1, 20, 0).TotalPages)
	assert.Equal(t, 40, pagination.Params{Page: 3, Limit: 20}.Offset())
}
