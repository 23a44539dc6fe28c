package database

import (
	"bytes"
	"testing"

	"tradeledger/internal/domain"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func captureLog(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestLogger_SkipsRecordNotFound(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	buf := captureLog(t)

	var acct domain.Account
	err = db.Where("account_id = ?", 999).First(&acct).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	require.Error(t, db.Exec("SELECT * FROM missing_table").Error)
	assert.Contains(t, buf.String(), `"component":"gorm"`)
	assert.Contains(t, buf.String(), "missing_table")
}
