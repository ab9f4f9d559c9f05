package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDialectRejectsUnknownType(t *testing.T) {
	_, err := Dialect(Config{Type: "oracle"})
	assert.Error(t, err)
}

func TestDialectNames(t *testing.T) {
	for _, typ := range []string{"postgres", "mysql", "sqlite"} {
		d, err := Dialect(Config{Type: typ, Host: "localhost", Port: "5432", Name: "x"})
		require.NoError(t, err, typ)
		assert.Equal(t, typ, d.Name())
	}
}

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: session_credentials.session_id")))
	assert.False(t, IsDuplicateKeyErr(errors.New("connection refused")))
}

func TestNewTestOpensMemoryDatabase(t *testing.T) {
	conn, err := NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.Exec("SELECT 1").Error)
}
