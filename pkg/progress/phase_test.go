package progress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
)

func TestTracker_Initial(t *testing.T) {
	t.Parallel()

	tr := progress.NewTracker()
	tr.Advance(progress.PhaseInitializing, 30)

	statuses := tr.Statuses()
	assert.Len(t, statuses, 4)
	assert.True(t, statuses[0].Active)
	assert.InDelta(t, 30, statuses[0].Progress, 1e-12)
	assert.False(t, statuses[1].Active)
}

func TestTracker_AdvanceCompletesPrevious(t *testing.T) {
	t.Parallel()

	tr := progress.NewTracker()
	tr.Advance(progress.PhaseInitializing, 80)
	tr.Advance(progress.PhaseApproximating, 10)

	statuses := tr.Statuses()
	assert.False(t, statuses[0].Active)
	assert.InDelta(t, 100, statuses[0].Progress, 1e-12)
	assert.True(t, statuses[1].Active)
	assert.InDelta(t, 10, statuses[1].Progress, 1e-12)
	assert.Equal(t, progress.PhaseApproximating, tr.Current())
}

func TestTracker_Finished(t *testing.T) {
	t.Parallel()

	tr := progress.NewTracker()
	tr.Advance(progress.PhaseApproximating, 50)
	tr.Advance(progress.PhaseComputingFullDistances, 70)
	tr.Advance(progress.PhaseFinished, 100)

	for _, s := range tr.Statuses() {
		assert.False(t, s.Active, s.Name)
	}

	statuses := tr.Statuses()
	assert.InDelta(t, 100, statuses[2].Progress, 1e-12)
	assert.InDelta(t, 100, statuses[3].Progress, 1e-12)
}
