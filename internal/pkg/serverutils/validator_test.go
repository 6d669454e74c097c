package serverutils

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	ID     string `validate:"required"`
	Action string `validate:"required,oneof=SUBSCRIBE PAUSE"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&sampleRequest{ID: "1", Action: "PAUSE"}))

	err := ValidateRequest(&sampleRequest{Action: "DELETE"})
	require.Error(t, err)
	fe, ok := err.(*fiber.Error)
	require.True(t, ok)
	assert.Equal(t, fiber.StatusBadRequest, fe.Code)
	assert.Contains(t, fe.Message, "ID is required")
	assert.Contains(t, fe.Message, "Action must be one of [SUBSCRIBE PAUSE]")
}
