package integration_tests

import (
	"errors"
	"testing"

	"github.com/specialistvlad/pulsegrid/internal/hcl"
	"github.com/specialistvlad/pulsegrid/internal/schedule"
	"github.com/specialistvlad/pulsegrid/internal/testutil"
	"github.com/specialistvlad/pulsegrid/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test for: experiments that cannot be scheduled fail without output
func TestErrorHandling_RejectedExperiments(t *testing.T) {
	testCases := []struct {
		name       string
		experiment string
		wantIs     error
		wantErr    string
	}{
		{
			name: "invalid hcl",
			experiment: `
experiment "broken" {
  section "a" {
  // missing closing braces
`,
			wantErr: "failed to parse HCL file",
		},
		{
			name:       "no experiment block",
			experiment: `signal "flux" { sampling_rate = 1e9 }`,
			wantIs:     hcl.ErrNoExperiment,
		},
		{
			name: "undeclared signal",
			experiment: `
experiment "e" {
  play "x" {
    signal = "flux"
    length = 10 * ns
  }
}
`,
			wantIs:  topology.ErrTopology,
			wantErr: "signal 'flux' is not declared",
		},
		{
			name: "fixed length too short",
			experiment: `
experiment "e" {
  section "short" {
    length = 10 * ns
    play "x" {
      signal = "drive"
      length = 1 * us
    }
  }
}
`,
			wantIs:  schedule.ErrCapacity,
			wantErr: "does not fit into the requested fixed section length",
		},
		{
			name: "play_after names an unknown section",
			experiment: `
experiment "e" {
  section "b" {
    play_after = "c"
  }
}
`,
			wantIs:  schedule.ErrReference,
			wantErr: "'c'",
		},
		{
			name: "play_after names a later section",
			experiment: `
experiment "e" {
  section "b" {
    play_after = "c"
  }
  section "c" {
  }
}
`,
			wantIs: schedule.ErrReference,
		},
		{
			name: "filter reset separated from its pulse",
			experiment: `
experiment "e" {
  play "x" {
    signal = "drive"
    length = 10 * ns
  }
  delay {
    signal = "drive"
    time   = 10 * ns
  }
  precomp_reset {
    signal = "drive"
    pulse  = "x"
  }
}
`,
			wantIs:  schedule.ErrStructural,
			wantErr: "directly follow",
		},
		{
			name: "filter reset in a right-aligned section",
			experiment: `
experiment "e" {
  section "r" {
    alignment = "right"
    play "x" {
      signal = "drive"
      length = 10 * ns
    }
    precomp_reset {
      signal = "drive"
      pulse  = "x"
    }
  }
}
`,
			wantIs:  schedule.ErrStructural,
			wantErr: "right-aligned",
		},
		{
			name: "loop with triggers",
			experiment: `
experiment "e" {
  loop "l" {
    count = 2
    trigger {
      signal = "drive"
      bit    = 0
    }
  }
}
`,
			wantErr: "cannot declare triggers",
		},
		{
			name: "duplicate section",
			experiment: `
experiment "e" {
  section "a" {
  }
  section "a" {
  }
}
`,
			wantIs:  topology.ErrTopology,
			wantErr: "defined twice",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Act ---
			result := testutil.RunHCLExperimentTest(t, tc.experiment)

			// --- Assert ---
			require.Error(t, result.Err)
			if tc.wantIs != nil {
				assert.True(t, errors.Is(result.Err, tc.wantIs), "got %v", result.Err)
			}
			if tc.wantErr != "" {
				assert.Contains(t, result.Err.Error(), tc.wantErr)
			}
			assert.Empty(t, result.Output, "nothing is written for a rejected experiment")
		})
	}
}
