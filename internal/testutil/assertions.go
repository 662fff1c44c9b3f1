package testutil

import (
	"testing"

	"github.com/specialistvlad/pulsegrid/internal/eventlist"
	"github.com/stretchr/testify/require"
)

// RequireCompiled fails the test unless the run succeeded and produced a
// well-formed event list.
func RequireCompiled(t *testing.T, result *HarnessResult) {
	t.Helper()
	require.NoError(t, result.Err, "the experiment should compile")
	require.NoError(t, eventlist.CheckWellFormed(result.Events))
}

// FindEvents returns the events of the given type, optionally restricted to one
// section. An empty section matches every section.
func FindEvents(result *HarnessResult, eventType eventlist.Type, section string) []eventlist.Event {
	var found []eventlist.Event
	for _, e := range result.Events {
		if e.EventType == eventType && (section == "" || e.SectionName == section) {
			found = append(found, e)
		}
	}
	return found
}

// RequireEvent returns the only event of the given type in section.
func RequireEvent(t *testing.T, result *HarnessResult, eventType eventlist.Type, section string) eventlist.Event {
	t.Helper()
	found := FindEvents(result, eventType, section)
	require.Len(t, found, 1, "expected exactly one %s in section '%s'", eventType, section)
	return found[0]
}
