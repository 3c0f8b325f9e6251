package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLevelAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	Init(Config{Level: "debug", Format: "json", Output: path})
	t.Cleanup(func() { Init(Config{}) })

	assert.Equal(t, logrus.DebugLevel, Logger().GetLevel())

	Component("interaction").WithField("key", "media:p1").Info("hydrated")
	WithFields(Fields{"addr": ":8080"}).Info("starting")
	Warnf("no users for %s", "devserver")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"interaction"`)
	assert.Contains(t, string(data), `"key":"media:p1"`)
	assert.Contains(t, string(data), `"addr":":8080"`)
	assert.Contains(t, string(data), `"level":"warning"`)
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	Init(Config{Level: "verbose"})
	assert.Equal(t, logrus.InfoLevel, Logger().GetLevel())
}

func TestRequestID(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "req-1", WithRequestID(ctx).Data["request_id"])
	assert.Empty(t, WithRequestID(context.Background()).Data)
}
