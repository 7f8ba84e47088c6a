package data

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteDSN(t *testing.T) {
	testCases := []struct {
		dsn  string
		want string
	}{
		{"blogicum.db", "blogicum.db?_foreign_keys=on"},
		{"file:blogicum.db?cache=shared", "file:blogicum.db?cache=shared&_foreign_keys=on"},
		{"blogicum.db?_foreign_keys=off", "blogicum.db?_foreign_keys=off"},
		{"blogicum.db?_fk=1", "blogicum.db?_fk=1"},
	}
	for _, tc := range testCases {
		t.Run(tc.dsn, func(t *testing.T) {
			assert.Equal(t, tc.want, sqliteDSN(tc.dsn))
		})
	}
}

func TestSchemaIncludesEveryMigration(t *testing.T) {
	for _, driver := range []string{"sqlite3", "mysql"} {
		t.Run(driver, func(t *testing.T) {
			schema, err := Schema(driver)
			require.NoError(t, err)
			assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS posts")
			assert.Contains(t, schema, "sessions")
			assert.Contains(t, schema, "first_name")
			assert.Less(t, strings.Index(schema, "CREATE TABLE IF NOT EXISTS users"), strings.Index(schema, "first_name"))
		})
	}
	_, err := Schema("postgres")
	assert.Error(t, err)
}
