package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Line(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Prefix: " .llmlab. ", GlobalTags: map[string]string{" env ": " prod "}})
	require.NoError(t, err)

	tests := []struct {
		name    string
		metric  string
		payload string
		tags    map[string]string
		want    string
	}{
		{
			name:    "tags merged and sorted",
			metric:  "llm.generation",
			payload: "1|c",
			tags:    map[string]string{"provider": "mock", "": "ignored", "env": "stage"},
			want:    "llmlab.llm.generation:1|c|#env:stage,provider:mock",
		},
		{
			name:    "name normalised",
			metric:  " experiment/transition..count ",
			payload: "1|c",
			want:    "llmlab.experiment_transition.count:1|c|#env:prod",
		},
		{name: "empty name", metric: " ", payload: "1|c", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Line(tt.metric, tt.payload, tt.tags))
		})
	}
}

func TestClient_DisabledAndNil(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	c.Count("x", 1, nil)
	require.NoError(t, c.Close())

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	nilClient.Timing("x", time.Second, nil)
	require.NoError(t, nilClient.Close())
}

func TestClient_DialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statsd dial")
}

func TestClient_WritesUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	c, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: "llmlab"})
	require.NoError(t, err)
	require.True(t, c.Enabled())

	c.Timing("llm.generation.duration", 1500*time.Millisecond, map[string]string{"provider": "openai"})

	buf := make([]byte, 512)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "llmlab.llm.generation.duration:1500|ms|#provider:openai", string(buf[:n]))

	require.NoError(t, c.Close())
	assert.False(t, c.Enabled())
}
