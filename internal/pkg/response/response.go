// Package response renders replies: ledger protocol lines for the TCP server
// and JSON envelopes for the ops HTTP endpoints.
package response

import (
	"errors"

	"tradeledger/internal/ledgererr"

	"github.com/gofiber/fiber/v2"
)

// TraceLocal is the fiber local holding the request's trace ID.
const TraceLocal = "trace_id"

// Envelope is the JSON shape of every ops reply. Exactly one of Data and
// Error is set.
type Envelope struct {
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	TraceID string   `json:"traceId,omitempty"`
	Data    any      `json:"data,omitempty"`
	Error   *Problem `json:"error,omitempty"`
}

// Problem describes a failed ops request.
type Problem struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func traceID(c *fiber.Ctx) string {
	id, _ := c.Locals(TraceLocal).(string)
	return id
}

// Success sends 200 with data.
func Success(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{
		Status:  "success",
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

// Error sends an error envelope with an explicit status code.
func Error(c *fiber.Ctx, message string, statusCode int) error {
	return c.Status(statusCode).JSON(Envelope{
		Status:  "error",
		TraceID: traceID(c),
		Error:   &Problem{Message: message, StatusCode: statusCode},
	})
}

// FromError maps err onto an error envelope. fiber errors keep their code,
// ledger client errors use their ledger status (which are HTTP codes) and
// message, anything else is a 500 whose detail is withheld.
func FromError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return Error(c, fe.Message, fe.Code)
	}
	if ledgererr.IsClientError(err) {
		return Error(c, err.Error(), ledgererr.StatusOf(err))
	}
	return Error(c, "Internal Server Error", fiber.StatusInternalServerError)
}
