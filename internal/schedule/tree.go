// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package schedule

import (
	"fmt"
	"sort"
)

// Tree is the append-only arena of input intervals. Nodes are immutable once added.
type Tree struct {
	nodes   []Interval
	parents []Handle
	root    Handle
}

// NewTree returns an empty tree without a root.
func NewTree() *Tree {
	return &Tree{root: NoHandle}
}

// Add appends n to the tree and returns its handle. The children of n must already
// be part of the tree. Sections and loops declared without signals take the union of
// their children's signals and their trigger signals.
func (t *Tree) Add(n Interval) Handle {
	h := Handle(len(t.nodes))
	base := n.Base()
	if base.Signals == nil {
		switch v := n.(type) {
		case *Section:
			base.Signals = t.unionSignals(base.Children, v.Triggers)
		case *Loop:
			base.Signals = t.unionSignals(base.Children, nil)
		}
	}
	t.nodes = append(t.nodes, n)
	t.parents = append(t.parents, NoHandle)
	for _, ch := range base.Children {
		if t.valid(ch) && t.parents[ch] == NoHandle {
			t.parents[ch] = h
		}
	}
	return h
}

// SetRoot marks h as the root of the tree.
func (t *Tree) SetRoot(h Handle) {
	t.root = h
}

// Root returns the root handle, or NoHandle when unset.
func (t *Tree) Root() Handle {
	return t.root
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the interval behind h.
func (t *Tree) Node(h Handle) Interval {
	return t.nodes[h]
}

// Parent returns the parent of h, or NoHandle for the root and detached nodes.
func (t *Tree) Parent(h Handle) Handle {
	return t.parents[h]
}

// SectionOf returns the name of the closest section or loop enclosing h, h included.
func (t *Tree) SectionOf(h Handle) string {
	for cur := h; cur != NoHandle; cur = t.parents[cur] {
		if sl, ok := t.nodes[cur].(sectionLike); ok {
			return sl.sectionName()
		}
	}
	return ""
}

func (t *Tree) valid(h Handle) bool {
	return h >= 0 && int(h) < len(t.nodes)
}

func (t *Tree) unionSignals(children []Handle, triggers []Trigger) []string {
	set := make(map[string]struct{})
	for _, ch := range children {
		if !t.valid(ch) {
			continue
		}
		for _, s := range t.nodes[ch].Base().Signals {
			set[s] = struct{}{}
		}
	}
	for _, tr := range triggers {
		set[tr.Signal] = struct{}{}
	}
	signals := make([]string, 0, len(set))
	for s := range set {
		signals = append(signals, s)
	}
	sort.Strings(signals)
	return signals
}

// Validate checks the structural rules the engine relies on: a root is set, children
// precede their parent and have exactly one parent, grids are positive, leaves declare
// a length, sibling section names are unique, loops wrap exactly one section and every
// filter reset references a pulse.
func (t *Tree) Validate() error {
	if !t.valid(t.root) {
		return fmt.Errorf("%w: root is not set", ErrInvalidTree)
	}
	owners := make([]int, len(t.nodes))
	for i, n := range t.nodes {
		h := Handle(i)
		base := n.Base()
		if base.Grid <= 0 {
			return fmt.Errorf("%w: node %d (%s) has non-positive grid %d", ErrInvalidTree, h, t.SectionOf(h), base.Grid)
		}
		names := make(map[string]struct{})
		for _, ch := range base.Children {
			if !t.valid(ch) || ch >= h {
				return fmt.Errorf("%w: node %d references child %d that was not added before it", ErrInvalidTree, h, ch)
			}
			owners[ch]++
			if owners[ch] > 1 {
				return fmt.Errorf("%w: node %d has more than one parent", ErrInvalidTree, ch)
			}
			if sl, ok := t.nodes[ch].(sectionLike); ok {
				if _, dup := names[sl.sectionName()]; dup {
					return fmt.Errorf("%w: section '%s' is defined twice in '%s'", ErrInvalidTree, sl.sectionName(), t.SectionOf(h))
				}
				names[sl.sectionName()] = struct{}{}
			}
		}
		switch v := n.(type) {
		case *Loop:
			if v.Iterations < 1 {
				return fmt.Errorf("%w: loop '%s' has %d iterations", ErrInvalidTree, v.Name, v.Iterations)
			}
			if len(v.Children) != 1 {
				return fmt.Errorf("%w: loop '%s' must have exactly one body section", ErrInvalidTree, v.Name)
			}
			if _, ok := t.nodes[v.Children[0]].(*Section); !ok {
				return fmt.Errorf("%w: the body of loop '%s' must be a section", ErrInvalidTree, v.Name)
			}
		case *FilterReset:
			if !t.valid(v.Pulse) {
				return fmt.Errorf("%w: filter reset %d references missing node %d", ErrInvalidTree, h, v.Pulse)
			}
			if _, ok := t.nodes[v.Pulse].(*Pulse); !ok {
				return fmt.Errorf("%w: filter reset %d references node %d which is not a pulse", ErrInvalidTree, h, v.Pulse)
			}
		case *Pulse, *Acquire, *Delay:
			if base.Length == nil {
				return fmt.Errorf("%w: leaf %d in '%s' has no length", ErrInvalidTree, h, t.SectionOf(h))
			}
		}
	}
	if owners[t.root] != 0 {
		return fmt.Errorf("%w: root %d is a child of another node", ErrInvalidTree, t.root)
	}
	return nil
}
