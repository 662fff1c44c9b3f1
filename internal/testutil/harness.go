package testutil

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/specialistvlad/pulsegrid/internal/app"
	"github.com/specialistvlad/pulsegrid/internal/eventlist"
	"github.com/stretchr/testify/require"
)

// ExperimentDir is where the harness places experiment files.
const ExperimentDir = "/experiment"

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Output    string
	Events    []eventlist.Event
	Err       error
}

// RunIntegrationTest compiles files with a default configuration and a
// background context. Options adjust the configuration before the run.
func RunIntegrationTest(t *testing.T, files map[string]string, opts ...func(*app.Config)) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, opts...)
}

// RunIntegrationTestWithContext compiles files, given relative to ExperimentDir,
// through the full application on an in-memory file system. Successful JSON
// output is decoded into Events.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, opts ...func(*app.Config)) *HarnessResult {
	t.Helper()

	cfg, err := app.NewConfig(app.Config{
		ExperimentPath: ExperimentDir,
		MaxEvents:      1000,
		ExpandLoops:    true,
		Validate:       true,
		LogFormat:      "text",
	})
	require.NoError(t, err)
	for _, opt := range opts {
		opt(cfg)
	}

	rooted := make(map[string]string, len(files))
	for name, content := range files {
		rooted[ExperimentDir+"/"+strings.TrimPrefix(name, "/")] = content
	}
	testApp, _, out, logs := app.SetupAppTest(t, cfg, rooted)

	runErr := testApp.Run(ctx)
	if os.Getenv("PULSEGRID_TEST_LOGS") == "true" && runErr != nil {
		t.Logf("--- Run failed for %s ---\n%v", t.Name(), runErr)
	}

	result := &HarnessResult{
		LogOutput: logs.String(),
		Output:    out.String(),
		Err:       runErr,
	}
	if runErr == nil && cfg.OutPath == "" && cfg.Format == eventlist.FormatJSON {
		result.Events, err = eventlist.Decode(strings.NewReader(result.Output), eventlist.FormatJSON)
		require.NoError(t, err, "compiled output is not a JSON event list")
	}
	return result
}
