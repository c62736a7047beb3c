package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromFallsBackToRoot(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetRoot(zap.New(core))
	defer SetRoot(nil)

	From(context.Background()).Info("hello")
	assert.Equal(t, 1, logs.Len())
}

func TestSubFrom(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := Context(context.Background(), zap.New(core))

	l, ctx := SubFrom(ctx, "frame")
	l.Debug("acquire")
	From(ctx).Debug("present")

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "frame", entries[0].LoggerName)
	assert.Equal(t, "frame", entries[1].LoggerName)
}

func TestSetRootNil(t *testing.T) {
	SetRoot(nil)
	assert.NotNil(t, Root())
}
