// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/staffdesk/internal/platform/migration"
)

/*
TestPgx5URL verifies scheme rewriting for golang-migrate.
*/
func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/hr", migration.Pgx5URL("postgres://u:p@db:5432/hr"))
	assert.Equal(t, "pgx5://u:p@db:5432/hr", migration.Pgx5URL("postgresql://u:p@db:5432/hr"))
	assert.Equal(t, "pgx5://u:p@db:5432/hr", migration.Pgx5URL("pgx5://u:p@db:5432/hr"))
	assert.Equal(t, "host=db user=u", migration.Pgx5URL("host=db user=u"))
}
