// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/dberr"
)

/*
TestWrap verifies the database error classification.
*/
func TestWrap(t *testing.T) {
	assert.NoError(t, dberr.Wrap(nil, "User"))

	notFound := dberr.Wrap(fmt.Errorf("scan: %w", pgx.ErrNoRows), "User")
	assert.True(t, apperr.HasCode(notFound, apperr.CodeNotFound))
	assert.Equal(t, "User not found", notFound.Error())

	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"}
	conflict := dberr.Wrap(fmt.Errorf("insert: %w", unique), "User")
	assert.True(t, apperr.HasCode(conflict, apperr.CodeConflict))
	assert.Equal(t, "users_email_key", dberr.ConstraintName(conflict))

	internal := dberr.Wrap(errors.New("connection reset"), "User")
	assert.True(t, apperr.HasCode(internal, apperr.CodeServerError))
}
