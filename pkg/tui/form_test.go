package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/quest/pkg/quest"
)

func TestDraftSpec(t *testing.T) {
	t.Run("simple ignores checklist fields", func(t *testing.T) {
		d := &goalDraft{kind: "SimpleGoal", name: " Run ", description: "5k", points: "100", target: "oops"}
		s, err := d.spec()
		require.NoError(t, err)
		assert.Equal(t, quest.KindSimple, s.Kind)
		assert.Equal(t, "Run", s.Name)
		assert.Equal(t, 100, s.Points)
		assert.Zero(t, s.Target)
	})

	t.Run("checklist", func(t *testing.T) {
		d := newGoalDraft()
		d.kind = string(quest.KindChecklist)
		d.name, d.description, d.points, d.target = "Read", "Chapters", "10", "3"
		s, err := d.spec()
		require.NoError(t, err)
		assert.Equal(t, 3, s.Target)
		assert.Equal(t, 50, s.Bonus)
	})

	t.Run("bad points", func(t *testing.T) {
		d := &goalDraft{kind: "EternalGoal", name: "x", points: "ten"}
		_, err := d.spec()
		assert.Error(t, err)
	})
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateField("Name")("Daily Meditation"))
	assert.Error(t, validateField("Name")("   "))
	assert.Error(t, validateField("Name")("a|b"))

	assert.NoError(t, validateInt("Points")("-5"))
	assert.Error(t, validateInt("Points")("1.5"))

	assert.NoError(t, validatePositive("Target")("1"))
	assert.Error(t, validatePositive("Target")("0"))
	assert.Error(t, validatePositive("Target")("x"))
}

func TestNewGoalFormBuilds(t *testing.T) {
	f := newGoalForm(newGoalDraft(), 60)
	require.NotNil(t, f)
}
