package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velferd/benefit-engine/benefit"
	"github.com/velferd/benefit-engine/ledger"
)

// =============================================================================
// STATE INFERENCE TESTS
// =============================================================================

func TestStateOf_FollowsLastBatchKind(t *testing.T) {
	// The state is never stored; it is the kind of the most recent batch.
	gen := newTestGenerator(t)

	assert.Equal(t, ledger.StateEmpty, ledger.StateOf(nil).Kind)

	history := grant(t, gen, nil)
	assert.Equal(t, ledger.StateActive, ledger.StateOf(history).Kind)

	stop, err := gen.Stop("case-1", history, date(2025, time.April, 1))
	require.NoError(t, err)
	history = append(history, stop)
	assert.Equal(t, ledger.StateStopped, ledger.StateOf(history).Kind)

	resume, err := gen.Resume("case-1", history, date(2025, time.April, 1))
	require.NoError(t, err)
	history = append(history, resume)
	assert.Equal(t, ledger.StateActive, ledger.StateOf(history).Kind)

	disc, err := gen.Discontinue("case-1", history, date(2025, time.May, 1))
	require.NoError(t, err)
	history = append(history, disc)
	assert.Equal(t, ledger.StateDiscontinued, ledger.StateOf(history).Kind)
}

func TestStateOf_ExposesChainHead(t *testing.T) {
	gen := newTestGenerator(t)
	history := grant(t, gen, nil)

	state := ledger.StateOf(history)
	require.NotNil(t, state.LastLine)
	assert.Equal(t, history[0].LastLine().ID, state.LastLine.ID)
}

// =============================================================================
// TIMELINE REPLAY TESTS
// =============================================================================

func TestBuildTimeline_LaterBatchesSupersedeMonths(t *testing.T) {
	// GIVEN: A Jan-Jun grant followed by a stop from April
	// WHEN: Replaying the history into segments
	// THEN: Jan-Mar keep the grant amount, Apr-Jun show zero; the original
	//       lines are untouched, supersession exists only in the replay

	gen := newTestGenerator(t)
	history := grant(t, gen, nil)

	stop, err := gen.Stop("case-1", history, date(2025, time.April, 1))
	require.NoError(t, err)
	history = append(history, stop)

	segments := ledger.BuildTimeline(history).Segments()
	require.NotEmpty(t, segments)

	for _, seg := range segments {
		if seg.Period.To.Before(date(2025, time.April, 1)) {
			assert.Equal(t, int64(6200), seg.Amount, "pre-stop months keep their amount")
		} else {
			assert.Equal(t, int64(0), seg.Amount, "stopped months are zero")
		}
	}

	// The grant batch itself still carries the original amounts.
	for _, l := range history[0].Lines {
		assert.Equal(t, int64(6200), l.Amount)
	}
}

func TestSegments_MergeContiguousMonthsOfSameLine(t *testing.T) {
	// GIVEN: One line covering Apr-Jun as a single period
	// WHEN: Building segments from the replay
	// THEN: The three months come back as one segment, not three

	period, err := benefit.NewPeriod(date(2025, time.April, 1), date(2025, time.June, 30))
	require.NoError(t, err)
	batch := ledger.Batch{
		ID:     "b-1",
		CaseID: "case-1",
		Kind:   ledger.BatchResume,
		Lines: []ledger.PaymentLine{
			{ID: "l-1", Period: period, Amount: 6200, Kind: ledger.BatchResume},
		},
	}

	segments := ledger.BuildTimeline([]ledger.Batch{batch}).Segments()
	require.Len(t, segments, 1)
	assert.Equal(t, date(2025, time.April, 1), segments[0].Period.From)
	assert.Equal(t, date(2025, time.June, 30), segments[0].Period.To)
	assert.Equal(t, int64(6200), segments[0].Amount)
	assert.Equal(t, ledger.LineID("l-1"), segments[0].LineID)
}

func TestTimeline_End(t *testing.T) {
	gen := newTestGenerator(t)
	history := grant(t, gen, nil)

	assert.Equal(t, date(2025, time.June, 30), ledger.BuildTimeline(history).End())
	assert.True(t, ledger.BuildTimeline(nil).End().IsZero())
}
