package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
)

func newTestMemory(t *testing.T) *Service {
	t.Helper()

	cfg := &Config{Path: filepath.Join(t.TempDir(), "memory.db")}
	mod, err := cfg.Complete().New(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mod.Close() })
	return mod.Service
}

func TestStoreFillsIdentity(t *testing.T) {
	t.Parallel()

	svc := newTestMemory(t)
	ctx := context.Background()

	record := &entity.MemoryRecord{Kind: "preference", Text: "reports open with a summary"}
	require.NoError(t, svc.Store(ctx, record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = svc.Store(ctx, &entity.MemoryRecord{Kind: "pattern"})
	require.ErrorIs(t, err, errno.ErrInvalidArgument)
}

func TestFindMatchesTokens(t *testing.T) {
	t.Parallel()

	svc := newTestMemory(t)
	ctx := context.Background()

	for _, r := range []*entity.MemoryRecord{
		{Kind: "pattern", Text: "keep dungeon charts in the vault"},
		{Kind: "preference", Text: "reports open with a summary"},
		{Kind: "decision", Text: "ruins surveys need two scouts"},
	} {
		require.NoError(t, svc.Store(ctx, r))
	}

	records, err := svc.Find(ctx, "Where are the dungeon charts?", 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "keep dungeon charts in the vault", records[0].Text)

	records, err = svc.Find(ctx, "nothing known about this", 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFindEmptyQueryReturnsRecent(t *testing.T) {
	t.Parallel()

	svc := newTestMemory(t)
	ctx := context.Background()

	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"oldest", "middle", "newest"} {
		require.NoError(t, svc.Store(ctx, &entity.MemoryRecord{
			Kind:      "pattern",
			Text:      text,
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := svc.Find(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "newest", records[0].Text)
	assert.Equal(t, "middle", records[1].Text)
}

func TestFindHonorsLimit(t *testing.T) {
	t.Parallel()

	svc := newTestMemory(t)
	ctx := context.Background()

	for _, text := range []string{
		"guild ledger reconciled weekly",
		"guild dues collected on the first",
		"guild hall opens at dawn",
		"guild charter amended last spring",
	} {
		require.NoError(t, svc.Store(ctx, &entity.MemoryRecord{Kind: "pattern", Text: text}))
	}

	records, err := svc.Find(ctx, "guild", 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
