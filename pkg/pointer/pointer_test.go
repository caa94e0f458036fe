// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/staffdesk/pkg/pointer"
)

/*
TestFallback checks that a nil pointer yields the fallback and a set one its value.
*/
func TestFallback(t *testing.T) {
	now := time.Date(2026, 3, 14, 17, 0, 0, 0, time.UTC)
	checkOut := now.Add(-time.Hour)

	assert.Equal(t, now, pointer.Fallback[time.Time](nil, now))
	assert.Equal(t, checkOut, pointer.Fallback(&checkOut, now))
}
