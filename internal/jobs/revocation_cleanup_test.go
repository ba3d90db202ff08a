package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePurger struct {
	calls  int
	purged int64
	err    error
}

func (f *fakePurger) PurgeExpired(ctx context.Context) (int64, error) {
	f.calls++
	return f.purged, f.err
}

func TestRunRevocationCleanup(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	purger := &fakePurger{purged: 3}

	RunRevocationCleanup(context.Background(), purger, zap.New(core))

	assert.Equal(t, 1, purger.calls)
	entries := logs.FilterMessage("revoked token cleanup finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].ContextMap()["purged"])
}

func TestRunRevocationCleanupLogsFailure(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	RunRevocationCleanup(context.Background(), &fakePurger{err: errors.New("db down")}, zap.New(core))

	assert.Equal(t, 1, logs.FilterMessage("revoked token cleanup failed").Len())
}

func TestStartRevocationCleanup(t *testing.T) {
	c, err := StartRevocationCleanup(&fakePurger{}, zap.NewNop())
	require.NoError(t, err)
	defer c.Stop()

	assert.Len(t, c.Entries(), 1)
}
