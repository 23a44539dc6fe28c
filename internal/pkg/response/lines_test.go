package response

import (
	"errors"
	"fmt"
	"testing"

	"tradeledger/internal/ledgererr"

	"github.com/stretchr/testify/assert"
)

func TestLine_RenderOK(t *testing.T) {
	r := OK("BOUGHT: New balance: 10 ABC. USD balance $50.00")
	assert.Equal(t, "200 OK\nBOUGHT: New balance: 10 ABC. USD balance $50.00\n\n", r.Render())
	assert.False(t, r.Close)
}

func TestLine_RenderDropsEmptyDataLines(t *testing.T) {
	r := OK("a", "", "b\n\nc")
	assert.Equal(t, "200 OK\na\nb\nc\n\n", r.Render())
}

func TestLine_Fail(t *testing.T) {
	r := Fail(ledgererr.ErrInsufficientFunds)
	assert.Equal(t, "400 insufficient funds\n\n", r.Render())

	r = Fail(fmt.Errorf("user 9 %w", ledgererr.ErrNotFound))
	assert.Equal(t, 404, r.Code)
	assert.Equal(t, "user 9 not found", r.Message)
	assert.True(t, r.Is(ledgererr.ErrNotFound))

	r = Fail(errors.New("database is locked"))
	assert.Equal(t, "500 internal server error\n\n", r.Render())
}

func TestLine_Closing(t *testing.T) {
	r := Status(200, "OK", "Server is shutting down.").Closing()
	assert.True(t, r.Close)
	assert.Equal(t, "200 OK\nServer is shutting down.\n\n", r.Render())
}
