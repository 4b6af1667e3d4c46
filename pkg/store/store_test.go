package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/quest/pkg/quest"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "data"), "")
	require.NoError(t, err)
	return s
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)

	info, err := os.Stat(s.Root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(s.Root, DefaultProgressFile), s.ProgressPath())
	assert.False(t, s.Exists())
}

func TestStoreProgressPathAbsolute(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "elsewhere.yaml")
	s, err := NewStore(t.TempDir(), abs)
	require.NoError(t, err)
	assert.Equal(t, abs, s.ProgressPath())
}

func TestStoreSaveLoad(t *testing.T) {
	s := setupTestStore(t)
	l := oneOfEach(t)
	_, err := l.RecordEvent(1)
	require.NoError(t, err)

	require.NoError(t, s.Save(l))
	assert.True(t, s.Exists())

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 10, got.Score())
	assert.Equal(t, kinds(l), kinds(got))
}

func TestLoadMissingFile(t *testing.T) {
	s := setupTestStore(t)

	l, err := s.Load()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, l)
}

func TestLoadCorruptFileKeepsCallerState(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, os.WriteFile(s.ProgressPath(), []byte("12\nSimpleGoal|Book|Read\n"), 0644))

	current := oneOfEach(t)
	_, err := current.RecordEvent(0)
	require.NoError(t, err)

	loaded, err := s.Load()
	require.ErrorIs(t, err, ErrFormat)
	if loaded != nil {
		current = loaded
	}

	assert.Equal(t, 100, current.Score())
	assert.Equal(t, 3, current.Len())
}

func TestSaveUnwritableTarget(t *testing.T) {
	dir := t.TempDir()
	err := Save(filepath.Join(dir, "missing", "progress.txt"), quest.NewLedger())
	assert.ErrorIs(t, err, ErrIO)
}

func TestSaveEncodeErrorLeavesFileIntact(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.Save(oneOfEach(t)))
	before, err := os.ReadFile(s.ProgressPath())
	require.NoError(t, err)

	bad := quest.NewLedger()
	bad.AddGoal(quest.NewSimpleGoal("pipe|name", "", 1))
	err = s.Save(bad)
	assert.ErrorIs(t, err, ErrFormat)

	after, err := os.ReadFile(s.ProgressPath())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSaveLoadYAMLByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.yaml")
	l := oneOfEach(t)
	for i := 0; i < 4; i++ {
		_, err := l.RecordEvent(2)
		require.NoError(t, err)
	}

	require.NoError(t, Save(path, l))
	got, err := Load(path)
	require.NoError(t, err)

	v, err := got.Goal(2)
	require.NoError(t, err)
	assert.True(t, v.Complete)
	assert.Equal(t, 4, v.Progress.Current)
	assert.Equal(t, l.Score(), got.Score())
}

func TestLastSaveWins(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.Save(oneOfEach(t)))

	small := quest.NewLedger()
	small.AddGoal(quest.NewEternalGoal("only", "one", 1))
	require.NoError(t, s.Save(small))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestDefaultProgressFileKeepsVariantState(t *testing.T) {
	s := setupTestStore(t)
	assert.IsType(t, YAMLCodec{}, CodecFor(s.ProgressPath()))

	l := quest.NewLedger()
	g, err := quest.NewChecklistGoal("Read", "chapters", 10, 2, 50)
	require.NoError(t, err)
	l.AddGoal(g)
	_, err = l.RecordEvent(0)
	require.NoError(t, err)
	require.NoError(t, s.Save(l))

	got, err := s.Load()
	require.NoError(t, err)
	c, err := got.RecordEvent(0)
	require.NoError(t, err)
	assert.Equal(t, 60, c.Points)
	assert.True(t, c.Finished)
	assert.Equal(t, 70, got.Score())
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "progress.yaml")

	_, err := Fingerprint(path)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(path, []byte("score: 1\n"), 0644))
	first, err := Fingerprint(path)
	require.NoError(t, err)
	again, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	require.NoError(t, os.WriteFile(path, []byte("score: 2\n"), 0644))
	changed, err := Fingerprint(path)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}
