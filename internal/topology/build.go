package topology

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/pulsegrid/internal/config"
	"github.com/specialistvlad/pulsegrid/internal/ctxlog"
	"github.com/specialistvlad/pulsegrid/internal/schedule"
)

// IterationSuffix is appended to a loop name to name its body section.
const IterationSuffix = "_iteration"

// builder accumulates one tree.
type builder struct {
	r      *Resolver
	tree   *schedule.Tree
	logger *slog.Logger
}

// Build resolves the signals of model and converts its experiment into a schedule
// tree whose root is the experiment section.
func Build(ctx context.Context, model *config.Model) (*schedule.Tree, error) {
	r, err := NewResolver(model.Signals)
	if err != nil {
		return nil, err
	}
	return r.Build(ctx, model.Root)
}

// Build converts root and everything below it into a schedule tree.
func (r *Resolver) Build(ctx context.Context, root *config.Section) (*schedule.Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: experiment has no root section", ErrTopology)
	}
	b := &builder{r: r, tree: schedule.NewTree(), logger: ctxlog.FromContext(ctx)}
	h, err := b.section(root)
	if err != nil {
		return nil, err
	}
	b.tree.SetRoot(h)
	b.logger.Debug("Schedule tree built.", "root", root.Name, "nodes", b.tree.Len(), "system_grid", r.systemGrid)
	return b.tree, nil
}

// body holds the children of a section or loop body while they are built.
type body struct {
	name     string
	children []schedule.Handle
	signals  map[string]struct{}
	siblings map[string]struct{}
	plays    map[string]schedule.Handle
}

func (b *builder) signal(section, name string) (*SignalInfo, error) {
	info := b.r.Signal(name)
	if info == nil {
		return nil, &Error{Section: section, Detail: fmt.Sprintf("signal '%s' is not declared", name)}
	}
	return info, nil
}

func (b *builder) items(name string, items []config.Item) (*body, error) {
	bd := &body{
		name:     name,
		signals:  make(map[string]struct{}),
		siblings: make(map[string]struct{}),
		plays:    make(map[string]schedule.Handle),
	}
	for _, it := range items {
		if err := b.item(bd, it); err != nil {
			return nil, err
		}
	}
	return bd, nil
}

func (b *builder) sibling(bd *body, name string) error {
	if _, dup := bd.siblings[name]; dup {
		return &Error{Section: bd.name, Detail: fmt.Sprintf("section '%s' is defined twice", name)}
	}
	bd.siblings[name] = struct{}{}
	return nil
}

func (b *builder) leaf(bd *body, signal string, seconds float64) (schedule.IntervalBase, error) {
	info, err := b.signal(bd.name, signal)
	if err != nil {
		return schedule.IntervalBase{}, err
	}
	if seconds < 0 {
		return schedule.IntervalBase{}, &Error{Section: bd.name, Detail: fmt.Sprintf("negative duration %g s on signal '%s'", seconds, signal)}
	}
	bd.signals[signal] = struct{}{}
	return schedule.IntervalBase{
		Grid:    info.Grid,
		Length:  schedule.Int64(b.r.LeafLength(signal, seconds)),
		Signals: []string{signal},
	}, nil
}

func (b *builder) item(bd *body, it config.Item) error {
	var h schedule.Handle
	switch v := it.(type) {
	case *config.Section:
		if err := b.sibling(bd, v.Name); err != nil {
			return err
		}
		ch, err := b.section(v)
		if err != nil {
			return err
		}
		h = ch
	case *config.Loop:
		if err := b.sibling(bd, v.Name); err != nil {
			return err
		}
		ch, err := b.loop(v)
		if err != nil {
			return err
		}
		h = ch
	case *config.Play:
		base, err := b.leaf(bd, v.Signal, v.Length)
		if err != nil {
			return err
		}
		if _, dup := bd.plays[v.ID]; dup {
			return &Error{Section: bd.name, Detail: fmt.Sprintf("pulse '%s' is played twice", v.ID)}
		}
		h = b.tree.Add(&schedule.Pulse{IntervalBase: base, ID: v.ID})
		bd.plays[v.ID] = h
	case *config.Acquire:
		base, err := b.leaf(bd, v.Signal, v.Length)
		if err != nil {
			return err
		}
		h = b.tree.Add(&schedule.Acquire{IntervalBase: base, Handle: v.Handle})
	case *config.Delay:
		base, err := b.leaf(bd, v.Signal, v.Time)
		if err != nil {
			return err
		}
		h = b.tree.Add(&schedule.Delay{IntervalBase: base})
	case *config.FilterReset:
		base, err := b.leaf(bd, v.Signal, 0)
		if err != nil {
			return err
		}
		pulse, ok := bd.plays[v.Pulse]
		if !ok {
			return &Error{Section: bd.name, Detail: fmt.Sprintf("filter reset refers to pulse '%s' which is not played before it", v.Pulse)}
		}
		base.Length = nil
		h = b.tree.Add(&schedule.FilterReset{IntervalBase: base, Pulse: pulse})
	case *config.Reserve:
		if _, err := b.signal(bd.name, v.Signal); err != nil {
			return err
		}
		bd.signals[v.Signal] = struct{}{}
		return nil
	default:
		return &Error{Section: bd.name, Detail: fmt.Sprintf("unsupported item %T", it)}
	}

	for _, sig := range b.tree.Node(h).Base().Signals {
		bd.signals[sig] = struct{}{}
	}
	bd.children = append(bd.children, h)
	return nil
}

func (b *builder) section(sec *config.Section) (schedule.Handle, error) {
	bd, err := b.items(sec.Name, sec.Items)
	if err != nil {
		return schedule.NoHandle, err
	}

	triggers := make([]schedule.Trigger, 0, len(sec.Triggers))
	for _, tr := range sec.Triggers {
		if _, err := b.signal(sec.Name, tr.Signal); err != nil {
			return schedule.NoHandle, err
		}
		if tr.Bit < 0 {
			return schedule.NoHandle, &Error{Section: sec.Name, Detail: fmt.Sprintf("trigger bit %d on '%s' is negative", tr.Bit, tr.Signal)}
		}
		triggers = append(triggers, schedule.Trigger{Signal: tr.Signal, Bit: tr.Bit})
		bd.signals[tr.Signal] = struct{}{}
	}

	signals := sortedKeys(bd.signals)
	node := &schedule.Section{
		IntervalBase: schedule.IntervalBase{
			Grid:     b.r.Grid(signals),
			Signals:  signals,
			Children: bd.children,
		},
		Name:         sec.Name,
		RightAligned: sec.Alignment == config.AlignRight,
		PlayAfter:    append([]string(nil), sec.PlayAfter...),
		Triggers:     triggers,
	}
	if sec.Length != nil {
		node.Length = schedule.Int64(Ticks(*sec.Length))
	}
	if sec.OnSystemGrid {
		node.StartGrid = b.r.systemGrid
	}
	b.logger.Debug("Section resolved onto grid.", "section", sec.Name, "grid", node.Grid, "signals", signals, "children", len(bd.children))
	return b.tree.Add(node), nil
}

func (b *builder) loop(l *config.Loop) (schedule.Handle, error) {
	bodyHandle, err := b.section(&config.Section{
		Name:      l.Name + IterationSuffix,
		Alignment: l.Alignment,
		Items:     l.Items,
	})
	if err != nil {
		return schedule.NoHandle, err
	}
	bodyBase := b.tree.Node(bodyHandle).Base()

	node := &schedule.Loop{
		IntervalBase: schedule.IntervalBase{
			Grid:     bodyBase.Grid,
			Signals:  append([]string(nil), bodyBase.Signals...),
			Children: []schedule.Handle{bodyHandle},
		},
		Name:       l.Name,
		Iterations: l.Count,
		PlayAfter:  append([]string(nil), l.PlayAfter...),
	}
	if l.RepetitionTime != nil {
		node.RepetitionLength = schedule.Int64(Ticks(*l.RepetitionTime))
	}
	b.logger.Debug("Loop resolved onto grid.", "loop", l.Name, "iterations", l.Count, "grid", node.Grid)
	return b.tree.Add(node), nil
}
