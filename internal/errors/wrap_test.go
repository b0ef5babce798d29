package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap("webhook", "reply", nil))
	})

	t.Run("records module and operation", func(t *testing.T) {
		base := errors.New("connection refused")
		err := Wrap("webhook", "reply", base)

		var op *OpError
		require.ErrorAs(t, err, &op)
		assert.Equal(t, "webhook", op.Module)
		assert.Equal(t, "reply", op.Op)
		assert.Equal(t, "webhook.reply: connection refused", err.Error())
		assert.ErrorIs(t, err, base)
	})

	t.Run("sentinels survive wrapping", func(t *testing.T) {
		err := Wrap("bot", "answer", fmt.Errorf("%w: timeout", ErrDelivery))
		assert.ErrorIs(t, err, ErrDelivery)
	})
}

func TestTags(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want map[string]string
	}{
		{"plain error", errors.New("boom"), nil},
		{"nil", nil, nil},
		{
			"direct",
			Wrap("catalog", "load_file", errors.New("missing")),
			map[string]string{"module": "catalog", "operation": "load_file"},
		},
		{
			"outermost wins",
			Wrap("bot", "answer", Wrap("webhook", "push", errors.New("500"))),
			map[string]string{"module": "bot", "operation": "answer"},
		},
		{
			"behind fmt wrap",
			fmt.Errorf("context: %w", Wrap("webhook", "reply", errors.New("400"))),
			map[string]string{"module": "webhook", "operation": "reply"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tags(tt.err))
		})
	}
}
