package tavily

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient_MaxResultsBounded(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   int
		want int
	}{
		{"zero takes default", 0, DefaultMaxResults},
		{"negative takes default", -1, DefaultMaxResults},
		{"within bounds kept", 2, 2},
		{"above cap clamped", 10, DefaultMaxResults},
	} {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(Config{APIKey: "key", MaxResults: tc.in}, zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tc.want, client.config.MaxResults)
		})
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{}, zap.NewNop())
	assert.Error(t, err)
}
