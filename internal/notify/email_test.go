package notify_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windly-shop/windly/internal/notify"
)

func TestNewEmailer_NoAPIKey(t *testing.T) {
	assert.Nil(t, notify.NewEmailer("", "orders@windly.shop"))
}

func TestEmailer_NilIsNoop(t *testing.T) {
	orderID, err := uuid.NewV4()
	require.NoError(t, err)

	var e *notify.Emailer
	assert.NoError(t, e.OrderPlaced(context.Background(), "ada@example.com", orderID, 42.50))
}
