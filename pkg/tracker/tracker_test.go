package tracker

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/quest/pkg/journal"
	"github.com/stefanpenner/quest/pkg/logging"
	"github.com/stefanpenner/quest/pkg/quest"
	"github.com/stefanpenner/quest/pkg/store"
)

type fakeRecorder struct {
	views       []quest.View
	completions []quest.Completion
	err         error
}

func (f *fakeRecorder) Append(_ context.Context, v quest.View, c quest.Completion) (journal.Event, error) {
	if f.err != nil {
		return journal.Event{}, f.err
	}
	f.views = append(f.views, v)
	f.completions = append(f.completions, c)
	return journal.Event{GoalName: v.Name, Points: c.Points}, nil
}

func progressPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "progress.txt")
}

func TestAddGoalAndList(t *testing.T) {
	tr := New(progressPath(t))

	v, err := tr.AddGoal(GoalSpec{Kind: quest.KindSimple, Name: "Run", Description: "5k", Points: 100})
	require.NoError(t, err)
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, "Run", v.Name)

	_, err = tr.AddGoal(GoalSpec{Kind: quest.KindChecklist, Name: "Read", Description: "ch", Points: 10, Target: 3, Bonus: 50})
	require.NoError(t, err)

	entries := tr.ListGoals()
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].DisplayIndex)
	assert.Equal(t, "[ ]", entries[0].ProgressText)
	assert.Equal(t, 2, entries[1].DisplayIndex)
	assert.Equal(t, "0/3", entries[1].ProgressText)
	assert.Equal(t, quest.KindChecklist, entries[1].Kind)
}

func TestAddGoalRejectsBadChecklist(t *testing.T) {
	tr := New(progressPath(t))

	_, err := tr.AddGoal(GoalSpec{Kind: quest.KindChecklist, Name: "Zero", Points: 10, Target: 0})
	assert.ErrorIs(t, err, quest.ErrInvalidGoal)
	assert.Equal(t, 0, tr.Len())
}

func TestRecordEventUpdatesScoreAndRecorder(t *testing.T) {
	rec := &fakeRecorder{}
	tr := New(progressPath(t), WithRecorder(rec))
	_, err := tr.AddGoal(GoalSpec{Kind: quest.KindChecklist, Name: "Read", Points: 10, Target: 2, Bonus: 50})
	require.NoError(t, err)

	res, err := tr.RecordEvent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Points)
	assert.False(t, res.Goal.Complete)

	res, err = tr.RecordEvent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 60, res.Points)
	assert.True(t, res.Finished)
	assert.True(t, res.Goal.Complete)

	res, err = tr.RecordEvent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Points)
	assert.False(t, res.Accepted)

	assert.Equal(t, 70, tr.Score())
	require.Len(t, rec.completions, 3)
	total := 0
	for _, c := range rec.completions {
		total += c.Points
	}
	assert.Equal(t, tr.Score(), total)
}

func TestRecordEventOutOfRange(t *testing.T) {
	rec := &fakeRecorder{}
	tr := New(progressPath(t), WithRecorder(rec))

	_, err := tr.RecordEvent(context.Background(), 0)
	assert.ErrorIs(t, err, quest.ErrOutOfRange)
	_, err = tr.RecordEvent(context.Background(), -1)
	assert.ErrorIs(t, err, quest.ErrOutOfRange)
	assert.Empty(t, rec.completions)
}

func TestRecorderFailureIsLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf)
	log.SetFlags(0)

	tr := New(progressPath(t), WithRecorder(&fakeRecorder{err: errors.New("disk full")}), WithLogger(log))
	_, err := tr.AddGoal(GoalSpec{Kind: quest.KindEternal, Name: "Meditate", Points: 10})
	require.NoError(t, err)

	res, err := tr.RecordEvent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Points)
	assert.Equal(t, 10, tr.Score())
	assert.Contains(t, buf.String(), "WARN: journal append failed")
	assert.Contains(t, buf.String(), `error="disk full"`)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := progressPath(t)
	tr := New(path)
	tr.Seed()
	ctx := context.Background()
	_, err := tr.RecordEvent(ctx, 0) // Complete a Book
	require.NoError(t, err)
	_, err = tr.RecordEvent(ctx, 1) // Daily Meditation
	require.NoError(t, err)
	require.NoError(t, tr.Save(""))

	other := New(path)
	require.NoError(t, other.Load(""))
	assert.Equal(t, 110, other.Score())
	require.Equal(t, tr.Len(), other.Len())

	entries := other.ListGoals()
	assert.True(t, entries[0].Complete)
	assert.False(t, entries[1].Complete)
}

func TestLoadFailureKeepsLedger(t *testing.T) {
	path := progressPath(t)
	tr := New(path)
	_, err := tr.AddGoal(GoalSpec{Kind: quest.KindSimple, Name: "Run", Points: 100})
	require.NoError(t, err)
	_, err = tr.RecordEvent(context.Background(), 0)
	require.NoError(t, err)

	bad := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("10\nBogusGoal|x|y|1|False\n"), 0644))

	err = tr.Load(bad)
	assert.ErrorIs(t, err, store.ErrFormat)
	assert.Equal(t, 100, tr.Score())
	assert.Equal(t, 1, tr.Len())

	err = tr.Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 100, tr.Score())
}

func TestOpen(t *testing.T) {
	t.Run("missing file seeds starter goals", func(t *testing.T) {
		tr, err := Open(progressPath(t), true)
		require.NoError(t, err)
		assert.Equal(t, len(StarterGoals()), tr.Len())
		assert.Equal(t, 0, tr.Score())
	})

	t.Run("missing file without seed is empty", func(t *testing.T) {
		tr, err := Open(progressPath(t), false)
		require.NoError(t, err)
		assert.Equal(t, 0, tr.Len())
	})

	t.Run("existing file is loaded", func(t *testing.T) {
		path := progressPath(t)
		require.NoError(t, os.WriteFile(path, []byte("40\nEternalGoal|Meditate|Breathe|10|False\n"), 0644))

		tr, err := Open(path, true)
		require.NoError(t, err)
		assert.Equal(t, 40, tr.Score())
		assert.Equal(t, 1, tr.Len())
	})

	t.Run("corrupt file opens empty and is not overwritten", func(t *testing.T) {
		path := progressPath(t)
		require.NoError(t, os.WriteFile(path, []byte("not a number\n"), 0644))

		tr, err := Open(path, true)
		require.NoError(t, err)
		assert.ErrorIs(t, tr.Damaged(), store.ErrFormat)
		assert.Equal(t, 0, tr.Len())

		_, err = tr.AddGoal(GoalSpec{Kind: quest.KindSimple, Name: "Run", Points: 100})
		require.NoError(t, err)
		assert.ErrorIs(t, tr.Save(""), ErrDamaged)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "not a number\n", string(data))
	})
}

func TestLoadRecoversDamagedFile(t *testing.T) {
	path := progressPath(t)
	require.NoError(t, os.WriteFile(path, []byte("10\nSimpleGoal|Run|5k\n"), 0644))
	backup := filepath.Join(t.TempDir(), "backup.txt")
	require.NoError(t, os.WriteFile(backup, []byte("100\nSimpleGoal|Run|5k|100|True\n"), 0644))

	tr, err := Open(path, false)
	require.NoError(t, err)
	require.Error(t, tr.Damaged())

	require.NoError(t, tr.Load(backup))
	assert.NoError(t, tr.Damaged())
	require.NoError(t, tr.Save(""))

	other, err := Open(path, false)
	require.NoError(t, err)
	assert.NoError(t, other.Damaged())
	assert.Equal(t, 100, other.Score())
}

func TestReloadSkipsOwnWrites(t *testing.T) {
	// The text format drops checklist counts, so reloading our own save
	// would reset the goal.
	path := progressPath(t)
	tr := New(path)
	_, err := tr.AddGoal(GoalSpec{Kind: quest.KindChecklist, Name: "Read", Points: 10, Target: 2, Bonus: 50})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = tr.RecordEvent(ctx, 0)
	require.NoError(t, err)
	require.NoError(t, tr.Save(""))

	replaced, err := tr.Reload()
	require.NoError(t, err)
	assert.False(t, replaced)

	res, err := tr.RecordEvent(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 60, res.Points)
	assert.True(t, res.Goal.Complete)
}

func TestReloadPicksUpExternalChange(t *testing.T) {
	path := progressPath(t)
	tr := New(path)
	tr.Seed()
	require.NoError(t, tr.Save(""))

	require.NoError(t, os.WriteFile(path, []byte("40\nEternalGoal|Walk|Outside|5|False\n"), 0644))
	replaced, err := tr.Reload()
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, 40, tr.Score())

	replaced, err = tr.Reload()
	require.NoError(t, err)
	assert.False(t, replaced)

	require.NoError(t, os.Remove(path))
	_, err = tr.Reload()
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 40, tr.Score())
}

func TestStarterGoals(t *testing.T) {
	specs := StarterGoals()
	require.Len(t, specs, 5)
	for _, s := range specs {
		_, err := quest.NewGoal(s.Kind, s.Name, s.Description, s.Points, s.Target, s.Bonus)
		assert.NoError(t, err, s.Name)
	}
	assert.Equal(t, "Weekly Volunteering", specs[3].Name)
	assert.Equal(t, 4, specs[3].Target)
}

func TestKindFromName(t *testing.T) {
	tests := []struct {
		in   string
		want quest.Kind
	}{
		{"simple", quest.KindSimple},
		{"Eternal", quest.KindEternal},
		{"ChecklistGoal", quest.KindChecklist},
		{" checklist ", quest.KindChecklist},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := KindFromName(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := KindFromName("weekly")
	assert.ErrorIs(t, err, quest.ErrUnknownKind)
}

func TestAnnounce(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{
			name: "plain",
			res:  Result{Completion: quest.Completion{Points: 10, Accepted: true}, Goal: quest.View{Name: "Read"}},
			want: "Read: +10 points",
		},
		{
			name: "checklist finished",
			res:  Result{Completion: quest.Completion{Points: 60, Accepted: true, Finished: true, Bonus: 50}, Goal: quest.View{Name: "Read"}},
			want: "Read: +60 points (includes 50 bonus, goal complete!)",
		},
		{
			name: "streak milestone",
			res:  Result{Completion: quest.Completion{Points: 5, Accepted: true, Milestone: &quest.Milestone{Streak: 7}}, Goal: quest.View{Name: "Meditate"}},
			want: "Meditate: +5 points (7-day streak!)",
		},
		{
			name: "rejected",
			res:  Result{Goal: quest.View{Name: "Run"}},
			want: "Run is already complete, no points awarded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Announce(tt.res))
		})
	}
}

func TestDisplayLine(t *testing.T) {
	tr := New(progressPath(t))
	tr.Seed()
	_, err := tr.RecordEvent(context.Background(), 3)
	require.NoError(t, err)
	_, err = tr.RecordEvent(context.Background(), 1)
	require.NoError(t, err)

	entries := tr.ListGoals()
	assert.Equal(t, "1. Complete a Book: Finish reading a book for self-improvement. - [ ] Not Completed", DisplayLine(entries[0]))
	assert.Equal(t, "2. Daily Meditation: Spend time meditating every day. - Streak: 1", DisplayLine(entries[1]))
	assert.Equal(t, "4. Weekly Volunteering: Volunteer at the local shelter weekly - Completed 1/4 times", DisplayLine(entries[3]))
}
