package database

import (
	"testing"

	"tradeledger/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeed_Idempotent(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	n, err := Seed(db, DefaultAccounts)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Balances changed after seeding must survive a second seed.
	require.NoError(t, db.Model(&domain.Account{}).Where("login_name = ?", "John").
		Update("cash", decimal.NewFromInt(7)).Error)

	n, err = Seed(db, DefaultAccounts)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	var john domain.Account
	require.NoError(t, db.Where("login_name = ?", "John").First(&john).Error)
	assert.True(t, john.Cash.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, "John Doe", john.DisplayName())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(john.CredentialHash), []byte("John01")))
}

func TestSeed_OptionalNames(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	_, err = Seed(db, []SeedAccount{{LoginName: "solo", Secret: "s3cret", Cash: decimal.Zero}})
	require.NoError(t, err)

	var solo domain.Account
	require.NoError(t, db.Where("login_name = ?", "solo").First(&solo).Error)
	assert.Nil(t, solo.FirstName)
	assert.Equal(t, "solo", solo.DisplayName())
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, isPostgres("postgres://localhost/ledger"))
	assert.True(t, isPostgres("postgresql://localhost/ledger"))
	assert.False(t, isPostgres("file:tradeledger.db"))
	assert.False(t, isPostgres(":memory:"))
}

func TestSeed_RejectsInvalidLogin(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	n, err := Seed(db, []SeedAccount{{LoginName: "bad name", Secret: "x", Cash: decimal.Zero}})
	assert.Error(t, err)
	assert.Equal(t, 0, n)
}
