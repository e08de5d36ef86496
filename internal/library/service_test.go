// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticDir(dir string) DirFunc {
	return func(context.Context) string { return dir }
}

func writeFile(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestList_NewestFirstSkipsSegmentsAndOtherFiles(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(dir, "FlashScreen_1.mp4"), base)
	writeFile(t, filepath.Join(dir, "FlashScreen_2.mp4"), base.Add(time.Hour))
	writeFile(t, filepath.Join(dir, "FlashScreen_3.part000.mp4"), base.Add(2*time.Hour))
	writeFile(t, filepath.Join(dir, "notes.txt"), base.Add(3*time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.mp4"), 0o750))

	recs, err := NewService(staticDir(dir), nil).List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "FlashScreen_2.mp4", recs[0].Name)
	assert.Equal(t, "FlashScreen_1.mp4", recs[1].Name)
	assert.EqualValues(t, 4, recs[0].Size)
	assert.Equal(t, filepath.Join(dir, "FlashScreen_2.mp4"), recs[0].Path)
}

func TestList_MissingDirectory(t *testing.T) {
	recs, err := NewService(staticDir(filepath.Join(t.TempDir(), "nope")), nil).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestList_EnrichedFromCatalog(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "FlashScreen_1.mp4")
	writeFile(t, path, time.Now())

	store := newTestStore(t)
	svc := NewService(staticDir(dir), store)
	e := entry("sess-1", path, OutcomeCompleted, time.Now())
	e.Resolution = "720p"
	e.FrameRate = 30
	require.NoError(t, svc.Record(ctx, e))

	recs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "720p", recs[0].Resolution)
	assert.EqualValues(t, 30, recs[0].FrameRate)
	assert.InDelta(t, 90.0, recs[0].Duration, 0.01)
	assert.Equal(t, "sess-1", recs[0].SessionID)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mp4")
	writeFile(t, path, time.Now())
	svc := NewService(staticDir(dir), nil)

	require.NoError(t, svc.Delete(ctx, path))
	assert.NoFileExists(t, path)

	// deleting again is fine
	require.NoError(t, svc.Delete(ctx, path))
}

func TestDelete_RejectsOutsideAndDirectories(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	outside := filepath.Join(t.TempDir(), "victim.mp4")
	writeFile(t, outside, time.Now())
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o750))
	svc := NewService(staticDir(dir), nil)

	require.ErrorIs(t, svc.Delete(ctx, outside), ErrOutsideDir)
	assert.FileExists(t, outside)

	require.ErrorIs(t, svc.Delete(ctx, filepath.Join(dir, "sub")), ErrInvalidName)
	assert.DirExists(t, filepath.Join(dir, "sub"))
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "FlashScreen_1.mp4")
	writeFile(t, path, time.Now())

	store := newTestStore(t)
	svc := NewService(staticDir(dir), store)
	require.NoError(t, svc.Record(ctx, entry("s", path, OutcomeCompleted, time.Now())))

	got, err := svc.Rename(ctx, path, "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo.mp4", filepath.Base(got))
	assert.FileExists(t, got)
	assert.NoFileExists(t, path)

	e, err := store.ByPath(ctx, got)
	require.NoError(t, err)
	require.NotNil(t, e, "catalog follows the rename")
}

func TestRename_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp4")
	b := filepath.Join(dir, "b.mp4")
	writeFile(t, a, time.Now())
	writeFile(t, b, time.Now())
	svc := NewService(staticDir(dir), nil)

	_, err := svc.Rename(ctx, filepath.Join(dir, "missing.mp4"), "x")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Rename(ctx, a, "../escape.mp4")
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = svc.Rename(ctx, a, "b.mp4")
	require.ErrorIs(t, err, ErrExists)
	assert.FileExists(t, a)

	got, err := svc.Rename(ctx, a, "a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "a.mp4", filepath.Base(got))
}
