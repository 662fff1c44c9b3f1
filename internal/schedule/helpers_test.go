package schedule

import (
	"context"
	"testing"

	"github.com/specialistvlad/pulsegrid/internal/eventlist"
	"github.com/stretchr/testify/require"
)

func leafBase(signal string, length, grid int64) IntervalBase {
	return IntervalBase{Grid: grid, Length: Int64(length), Signals: []string{signal}}
}

func addPulse(tr *Tree, signal string, length, grid int64) Handle {
	return tr.Add(&Pulse{IntervalBase: leafBase(signal, length, grid), ID: signal + "_pulse"})
}

func addSection(tr *Tree, sec *Section, children ...Handle) Handle {
	sec.Children = children
	if sec.Grid == 0 {
		sec.Grid = 1
	}
	return tr.Add(sec)
}

func rooted(tr *Tree, h Handle) *Tree {
	tr.SetRoot(h)
	return tr
}

func mustCompile(t *testing.T, tr *Tree, settings Settings) *Result {
	t.Helper()
	res, err := Compile(context.Background(), tr, settings)
	require.NoError(t, err)
	require.NoError(t, eventlist.CheckWellFormed(res.Events))
	return res
}

func childStarts(res *Result, h Handle) []int64 {
	return res.Schedule.Timing(h).ChildrenStart
}
