package testutil

import (
	"testing"

	"github.com/specialistvlad/pulsegrid/internal/app"
)

// SignalsHCL declares the signals the experiment fixtures play on. drive samples
// at 2.4 GS/s on a 16-sample grid, measure at 2 GS/s on an 8-sample grid.
const SignalsHCL = `
signal "drive" {
  sampling_rate = 2.4e9
}

signal "measure" {
  sampling_rate   = 2e9
  sample_multiple = 8
}
`

// RunHCLExperimentTest compiles a single experiment file next to SignalsHCL.
func RunHCLExperimentTest(t *testing.T, experimentHCL string, opts ...func(*app.Config)) *HarnessResult {
	t.Helper()
	files := map[string]string{
		"signals.hcl": SignalsHCL,
		"main.hcl":    experimentHCL,
	}
	return RunIntegrationTest(t, files, opts...)
}
