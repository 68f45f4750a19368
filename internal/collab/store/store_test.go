package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// These tests exercise a real Postgres instance and are skipped unless
// TEST_DATABASE_DSN is set, matching the teacher's integration-test
// convention of gating on an environment-provided DSN rather than
// spinning up its own container inline.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	ctx := context.Background()
	require.NoError(t, RunMigrations(ctx, dsn))
	s, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSaveSlotSnapshotRoundTrips(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	gameID := uuid.New()

	err := s.SaveSlotSnapshot(ctx, gameID, 42, time.Now(), []byte(`{"slots":[]}`))
	require.NoError(t, err)
}

func TestActionHistoryReturnsFramesInSequenceOrder(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	gameID := uuid.New()

	require.NoError(t, s.AppendActionFrame(ctx, gameID, 2, []byte("second"), time.Now()))
	require.NoError(t, s.AppendActionFrame(ctx, gameID, 1, []byte("first"), time.Now()))

	frames, err := s.ActionHistory(ctx, gameID)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("first"), []byte("second")}, frames)
}
