package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/pulsegrid/internal/eventlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loopTree struct {
	tree  *Tree
	root  Handle
	loop  Handle
	body  Handle
	after Handle
}

// buildLoop returns root[loop[body[pulse a:10]], pulse a:5]. The body grid is 4.
func buildLoop(loopGrid int64, iterations int, repetition *int64) loopTree {
	tr := NewTree()
	p := addPulse(tr, "a", 10, 1)
	body := addSection(tr, &Section{Name: "l_iteration", IntervalBase: IntervalBase{Grid: 4}}, p)
	loop := tr.Add(&Loop{
		IntervalBase:     IntervalBase{Grid: loopGrid, Children: []Handle{body}},
		Name:             "l",
		Iterations:       iterations,
		RepetitionLength: repetition,
	})
	after := addPulse(tr, "a", 5, 1)
	root := addSection(tr, &Section{Name: "root"}, loop, after)
	rooted(tr, root)
	return loopTree{tree: tr, root: root, loop: loop, body: body, after: after}
}

func TestLoop_Timing(t *testing.T) {
	t.Run("body snaps to the loop grid", func(t *testing.T) {
		lt := buildLoop(8, 3, nil)
		res := mustCompile(t, lt.tree, DefaultSettings())

		assert.Equal(t, int64(16), res.Schedule.Timing(lt.body).Length)
		assert.Equal(t, int64(8), res.Schedule.Timing(lt.body).Grid)
		assert.Equal(t, int64(48), res.Schedule.Timing(lt.loop).Length)
		assert.Equal(t, []int64{0, 48}, childStarts(res, lt.root), "siblings on the same signal wait for every iteration")
	})
	t.Run("repetition length", func(t *testing.T) {
		lt := buildLoop(4, 3, Int64(20))
		res := mustCompile(t, lt.tree, DefaultSettings())

		assert.Equal(t, int64(20), res.Schedule.Timing(lt.body).Length)
		assert.Equal(t, int64(60), res.Schedule.Timing(lt.loop).Length)
	})
	t.Run("repetition length shorter than the body", func(t *testing.T) {
		lt := buildLoop(4, 3, Int64(8))
		_, err := Compile(context.Background(), lt.tree, DefaultSettings())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCapacity))

		var capErr *CapacityError
		require.True(t, errors.As(err, &capErr))
		assert.Equal(t, "l", capErr.Section)
		assert.Equal(t, int64(12), capErr.Content)
	})
	t.Run("body may not move", func(t *testing.T) {
		tr := NewTree()
		before := addPulse(tr, "a", 3, 1)
		p := addPulse(tr, "a", 4, 1)
		body := addSection(tr, &Section{Name: "l_iteration", StartGrid: 8}, p)
		loop := tr.Add(&Loop{IntervalBase: IntervalBase{Grid: 1, Children: []Handle{body}}, Name: "l", Iterations: 2})
		root := addSection(tr, &Section{Name: "root"}, before, loop)

		_, err := Compile(context.Background(), rooted(tr, root), DefaultSettings())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrStructural))
	})
}

func TestLoop_EventsExpanded(t *testing.T) {
	lt := buildLoop(8, 3, nil)
	res := mustCompile(t, lt.tree, DefaultSettings())

	counts := eventlist.CountByType(res.Events)
	assert.Equal(t, 3, counts[eventlist.LoopStepStart])
	assert.Equal(t, 3, counts[eventlist.LoopStepEnd])
	assert.Equal(t, 0, counts[eventlist.LoopIterationEnd])
	assert.Equal(t, 4, counts[eventlist.PlayStart], "three iterations and the trailing pulse")

	var steps []eventlist.Event
	for _, e := range res.Events {
		if e.EventType == eventlist.LoopStepStart {
			steps = append(steps, e)
		}
	}
	for i, e := range steps {
		require.NotNil(t, e.Iteration)
		assert.Equal(t, i, *e.Iteration)
		assert.Equal(t, int64(16*i), e.Time)
		assert.Equal(t, "l", e.SectionName)
	}

	v, err := eventlist.NewValidator()
	require.NoError(t, err)
	require.NoError(t, v.Validate(res.Events))
}

func TestLoop_EventsCompressed(t *testing.T) {
	lt := buildLoop(8, 3, nil)
	settings := DefaultSettings()
	settings.ExpandLoops = false
	res := mustCompile(t, lt.tree, settings)

	counts := eventlist.CountByType(res.Events)
	assert.Equal(t, 1, counts[eventlist.LoopStepStart])
	assert.Equal(t, 1, counts[eventlist.LoopIterationEnd])

	for _, e := range res.Events {
		switch e.EventType {
		case eventlist.LoopIterationEnd:
			assert.Equal(t, 3, e.NumRepeats)
			assert.True(t, e.Compressed)
			assert.Equal(t, int64(16), e.Time)
		case eventlist.SectionEnd:
			if e.SectionName == "l" {
				assert.Equal(t, int64(48), e.Time, "the loop keeps its full length")
			}
		}
	}

	v, err := eventlist.NewValidator()
	require.NoError(t, err)
	require.NoError(t, v.Validate(res.Events))
}

func TestLoop_SingleIterationIsNotCompressed(t *testing.T) {
	lt := buildLoop(4, 1, nil)
	settings := DefaultSettings()
	settings.ExpandLoops = false
	res := mustCompile(t, lt.tree, settings)

	assert.Equal(t, 0, eventlist.CountByType(res.Events)[eventlist.LoopIterationEnd])
}
