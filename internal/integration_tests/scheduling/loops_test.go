package integration_tests

import (
	"testing"

	"github.com/specialistvlad/pulsegrid/internal/app"
	"github.com/specialistvlad/pulsegrid/internal/eventlist"
	"github.com/specialistvlad/pulsegrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shotsHCL = `
experiment "shots" {
  loop "avg" {
    count           = 4
    repetition_time = 2 * us
    play "x180" {
      signal = "drive"
      length = 64 * ns
    }
  }
}
`

// Test for: every iteration of a loop lasts the repetition time
func TestScheduling_Loop_Expanded(t *testing.T) {
	// --- Act ---
	result := testutil.RunHCLExperimentTest(t, shotsHCL)

	// --- Assert ---
	testutil.RequireCompiled(t, result)

	steps := testutil.FindEvents(result, eventlist.LoopStepStart, "avg")
	require.Len(t, steps, 4)
	for i, step := range steps {
		assert.Equal(t, steps[0].Time+int64(i)*7_200_000_000, step.Time)
	}
	assert.Len(t, testutil.FindEvents(result, eventlist.PlayStart, "avg_iteration"), 4)

	loopStart := testutil.RequireEvent(t, result, eventlist.SectionStart, "avg")
	loopEnd := testutil.RequireEvent(t, result, eventlist.SectionEnd, "avg")
	assert.Equal(t, int64(4*7_200_000_000), loopEnd.Time-loopStart.Time)
}

// Test for: unexpanded loops emit one iteration and a repeat marker
func TestScheduling_Loop_Compressed(t *testing.T) {
	// --- Act ---
	result := testutil.RunHCLExperimentTest(t, shotsHCL, func(c *app.Config) {
		c.ExpandLoops = false
	})

	// --- Assert ---
	testutil.RequireCompiled(t, result)

	assert.Len(t, testutil.FindEvents(result, eventlist.LoopStepStart, "avg"), 1)
	marker := testutil.RequireEvent(t, result, eventlist.LoopIterationEnd, "avg")
	assert.Equal(t, 4, marker.NumRepeats)
	assert.True(t, marker.Compressed)

	loopStart := testutil.RequireEvent(t, result, eventlist.SectionStart, "avg")
	loopEnd := testutil.RequireEvent(t, result, eventlist.SectionEnd, "avg")
	assert.Equal(t, int64(4*7_200_000_000), loopEnd.Time-loopStart.Time, "the loop keeps its full length")
}

// Test for: a tight event budget truncates without failing
func TestScheduling_EventBudget(t *testing.T) {
	full := testutil.RunHCLExperimentTest(t, shotsHCL)
	testutil.RequireCompiled(t, full)

	limited := testutil.RunHCLExperimentTest(t, shotsHCL, func(c *app.Config) {
		c.MaxEvents = 8
	})
	testutil.RequireCompiled(t, limited)

	assert.Less(t, len(limited.Events), len(full.Events))
}
