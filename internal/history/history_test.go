package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTemp(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	runs := []Run{
		{RunID: "a", Timestamp: base, Script: "Core Setup", Repo: "CoreSetup", Elevated: true, Succeeded: true, Duration: 2 * time.Second},
		{RunID: "b", Timestamp: base.Add(time.Minute), Script: "New User", Repo: "PSNewUser", ExitCode: 1, HasGuidance: true, Duration: 1500 * time.Millisecond},
		{RunID: "c", Timestamp: base.Add(2 * time.Minute), Script: "Core Setup", Repo: "CoreSetup", Elevated: true, Succeeded: true},
	}
	for _, r := range runs {
		require.NoError(t, s.Record(ctx, r))
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	want := []Run{runs[2], runs[1]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Recent() mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Run{RunID: "x", Timestamp: time.Now(), Script: "S", Repo: "R", Succeeded: true}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].RunID)
}

func TestStore_RejectsDuplicateRunID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTemp(t)
	r := Run{RunID: "dup", Timestamp: time.Now(), Script: "S", Repo: "R"}
	require.NoError(t, s.Record(ctx, r))
	assert.Error(t, s.Record(ctx, r))
}

func TestStore_SuccessRate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTemp(t)

	rate, err := s.SuccessRate(ctx, "S")
	require.NoError(t, err)
	assert.Zero(t, rate)

	for i, ok := range []bool{true, true, false, true} {
		require.NoError(t, s.Record(ctx, Run{RunID: string(rune('a' + i)), Timestamp: time.Now(), Script: "S", Repo: "R", Succeeded: ok}))
	}
	rate, err = s.SuccessRate(ctx, "S")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, rate, 1e-9)
}

func TestStore_DisabledIsNoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	assert.False(t, s.Enabled())
	require.NoError(t, s.Record(ctx, Run{RunID: "a"}))
	runs, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
	require.NoError(t, s.Close())
}
