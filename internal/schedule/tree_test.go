package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_DerivesSignals(t *testing.T) {
	tr := NewTree()
	a := addPulse(tr, "b", 4, 1)
	b := addPulse(tr, "a", 4, 1)
	inner := addSection(tr, &Section{Name: "inner", Triggers: []Trigger{{Signal: "t", Bit: 0}}}, a)
	root := addSection(tr, &Section{Name: "root"}, inner, b)
	tr.SetRoot(root)

	require.NoError(t, tr.Validate())
	assert.Equal(t, []string{"b", "t"}, tr.Node(inner).Base().Signals)
	assert.Equal(t, []string{"a", "b", "t"}, tr.Node(root).Base().Signals)
	assert.Equal(t, root, tr.Parent(inner))
	assert.Equal(t, NoHandle, tr.Parent(root))
	assert.Equal(t, "inner", tr.SectionOf(a))
	assert.Equal(t, "root", tr.SectionOf(b))
}

func TestTree_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		build   func() *Tree
		wantErr string
	}{
		{
			name:    "no root",
			build:   NewTree,
			wantErr: "root is not set",
		},
		{
			name: "non-positive grid",
			build: func() *Tree {
				tr := NewTree()
				return rooted(tr, tr.Add(&Section{Name: "root"}))
			},
			wantErr: "non-positive grid",
		},
		{
			name: "child added after parent",
			build: func() *Tree {
				tr := NewTree()
				root := tr.Add(&Section{IntervalBase: IntervalBase{Grid: 1, Children: []Handle{1}}, Name: "root"})
				addPulse(tr, "a", 1, 1)
				return rooted(tr, root)
			},
			wantErr: "not added before it",
		},
		{
			name: "two parents",
			build: func() *Tree {
				tr := NewTree()
				p := addPulse(tr, "a", 1, 1)
				s1 := addSection(tr, &Section{Name: "s1"}, p)
				s2 := addSection(tr, &Section{Name: "s2"}, p)
				return rooted(tr, addSection(tr, &Section{Name: "root"}, s1, s2))
			},
			wantErr: "more than one parent",
		},
		{
			name: "duplicate sibling names",
			build: func() *Tree {
				tr := NewTree()
				s1 := addSection(tr, &Section{Name: "A"})
				s2 := addSection(tr, &Section{Name: "A"})
				return rooted(tr, addSection(tr, &Section{Name: "root"}, s1, s2))
			},
			wantErr: "defined twice",
		},
		{
			name: "leaf without length",
			build: func() *Tree {
				tr := NewTree()
				d := tr.Add(&Delay{IntervalBase: IntervalBase{Grid: 1, Signals: []string{"a"}}})
				return rooted(tr, addSection(tr, &Section{Name: "root"}, d))
			},
			wantErr: "has no length",
		},
		{
			name: "loop without section body",
			build: func() *Tree {
				tr := NewTree()
				p := addPulse(tr, "a", 1, 1)
				l := tr.Add(&Loop{IntervalBase: IntervalBase{Grid: 1, Children: []Handle{p}}, Name: "l", Iterations: 2})
				return rooted(tr, addSection(tr, &Section{Name: "root"}, l))
			},
			wantErr: "must be a section",
		},
		{
			name: "loop with zero iterations",
			build: func() *Tree {
				tr := NewTree()
				body := addSection(tr, &Section{Name: "l_iteration"})
				l := tr.Add(&Loop{IntervalBase: IntervalBase{Grid: 1, Children: []Handle{body}}, Name: "l"})
				return rooted(tr, addSection(tr, &Section{Name: "root"}, l))
			},
			wantErr: "has 0 iterations",
		},
		{
			name: "filter reset to a delay",
			build: func() *Tree {
				tr := NewTree()
				d := tr.Add(&Delay{IntervalBase: leafBase("a", 1, 1)})
				f := tr.Add(&FilterReset{IntervalBase: IntervalBase{Grid: 1, Signals: []string{"a"}}, Pulse: d})
				return rooted(tr, addSection(tr, &Section{Name: "root"}, d, f))
			},
			wantErr: "which is not a pulse",
		},
		{
			name: "root with a parent",
			build: func() *Tree {
				tr := NewTree()
				inner := addSection(tr, &Section{Name: "inner"})
				addSection(tr, &Section{Name: "root"}, inner)
				return rooted(tr, inner)
			},
			wantErr: "is a child of another node",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build().Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTree))
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
