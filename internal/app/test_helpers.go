package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/specialistvlad/pulsegrid/internal/hcl"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest writes files into an in-memory file system and returns an app
// reading from it with the HCL loader. Events are captured in out, debug logs in logs.
func SetupAppTest(t *testing.T, cfg *Config, files map[string]string) (a *App, fs afero.Fs, out, logs *SafeBuffer) {
	t.Helper()

	fs = afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	out, logs = &SafeBuffer{}, &SafeBuffer{}
	cfg.LogLevel = "debug"
	a = NewApp(out, logs, cfg, hcl.NewLoader(fs), fs)

	t.Cleanup(func() {
		if os.Getenv("PULSEGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, fs, out, logs
}
