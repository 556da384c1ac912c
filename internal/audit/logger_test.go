package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "authmodel")

	logger.Log(context.Background(), Event{
		Action:  ActionRevokeRefreshToken,
		User:    "u1",
		Client:  "web-app",
		Success: false,
		Err:     errors.New("timeout"),
	})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["log_type"])
	assert.Equal(t, "authmodel", line["service"])
	assert.Equal(t, ActionRevokeRefreshToken, line["action"])
	assert.Equal(t, "u1", line["user"])
	assert.Equal(t, "web-app", line["client"])
	assert.Equal(t, false, line["success"])
	assert.Equal(t, "timeout", line["error"])
	assert.NotContains(t, line, "details")
}

func TestNilLogger(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Log(context.Background(), Event{Action: ActionLogin})
	})
}
