package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/pulsegrid/internal/config"
)

// itemBlocks are the blocks allowed in the body of a section or a loop.
var itemBlocks = []hcl.BlockHeaderSchema{
	{Type: "trigger"},
	{Type: "play", LabelNames: []string{"id"}},
	{Type: "acquire", LabelNames: []string{"handle"}},
	{Type: "delay"},
	{Type: "reserve"},
	{Type: "precomp_reset"},
	{Type: "section", LabelNames: []string{"name"}},
	{Type: "loop", LabelNames: []string{"name"}},
}

var sectionSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "alignment"},
		{Name: "length"},
		{Name: "play_after"},
		{Name: "on_system_grid"},
	},
	Blocks: itemBlocks,
}

var loopSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "count", Required: true},
		{Name: "repetition_time"},
		{Name: "alignment"},
		{Name: "play_after"},
	},
	Blocks: itemBlocks,
}

type triggerBlock struct {
	Signal string `hcl:"signal"`
	Bit    int    `hcl:"bit"`
}

type playBlock struct {
	Signal string  `hcl:"signal"`
	Length float64 `hcl:"length"`
}

type delayBlock struct {
	Signal string  `hcl:"signal"`
	Time   float64 `hcl:"time"`
}

type reserveBlock struct {
	Signal string `hcl:"signal"`
}

type resetBlock struct {
	Signal string `hcl:"signal"`
	Pulse  string `hcl:"pulse"`
}

func (l *Loader) translateSection(ctx context.Context, name string, body hcl.Body, evalCtx *hcl.EvalContext) (*config.Section, error) {
	content, diags := body.Content(sectionSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode section %q: %w", name, diags)
	}

	sec := &config.Section{Name: name, Alignment: config.AlignLeft}
	if attr, ok := content.Attributes["alignment"]; ok {
		if err := decodeAttr(ctx, attr, evalCtx, &sec.Alignment); err != nil {
			return nil, err
		}
		if err := checkAlignment(attr, sec.Alignment); err != nil {
			return nil, err
		}
	}
	if attr, ok := content.Attributes["length"]; ok {
		var length float64
		if err := decodeAttr(ctx, attr, evalCtx, &length); err != nil {
			return nil, err
		}
		sec.Length = &length
	}
	if attr, ok := content.Attributes["play_after"]; ok {
		refs, err := decodeStringList(ctx, attr, evalCtx)
		if err != nil {
			return nil, err
		}
		sec.PlayAfter = refs
	}
	if attr, ok := content.Attributes["on_system_grid"]; ok {
		if err := decodeAttr(ctx, attr, evalCtx, &sec.OnSystemGrid); err != nil {
			return nil, err
		}
	}

	for _, block := range content.Blocks {
		if block.Type == "trigger" {
			var tb triggerBlock
			if diags := gohcl.DecodeBody(block.Body, evalCtx, &tb); diags.HasErrors() {
				return nil, fmt.Errorf("failed to decode trigger in section %q: %w", name, diags)
			}
			sec.Triggers = append(sec.Triggers, &config.Trigger{Signal: tb.Signal, Bit: tb.Bit})
			continue
		}
		item, err := l.translateItem(ctx, name, block, evalCtx)
		if err != nil {
			return nil, err
		}
		sec.Items = append(sec.Items, item)
	}
	return sec, nil
}

func (l *Loader) translateLoop(ctx context.Context, name string, body hcl.Body, evalCtx *hcl.EvalContext) (*config.Loop, error) {
	content, diags := body.Content(loopSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode loop %q: %w", name, diags)
	}

	loop := &config.Loop{Name: name, Alignment: config.AlignLeft}
	if err := decodeAttr(ctx, content.Attributes["count"], evalCtx, &loop.Count); err != nil {
		return nil, err
	}
	if loop.Count < 1 {
		return nil, fmt.Errorf("%s: loop %q must run at least once, got count %d", content.Attributes["count"].Range, name, loop.Count)
	}
	if attr, ok := content.Attributes["repetition_time"]; ok {
		var rt float64
		if err := decodeAttr(ctx, attr, evalCtx, &rt); err != nil {
			return nil, err
		}
		loop.RepetitionTime = &rt
	}
	if attr, ok := content.Attributes["alignment"]; ok {
		if err := decodeAttr(ctx, attr, evalCtx, &loop.Alignment); err != nil {
			return nil, err
		}
		if err := checkAlignment(attr, loop.Alignment); err != nil {
			return nil, err
		}
	}
	if attr, ok := content.Attributes["play_after"]; ok {
		refs, err := decodeStringList(ctx, attr, evalCtx)
		if err != nil {
			return nil, err
		}
		loop.PlayAfter = refs
	}

	for _, block := range content.Blocks {
		if block.Type == "trigger" {
			return nil, fmt.Errorf("%s: loop %q cannot declare triggers; put them into a section", block.DefRange, name)
		}
		item, err := l.translateItem(ctx, name, block, evalCtx)
		if err != nil {
			return nil, err
		}
		loop.Items = append(loop.Items, item)
	}
	return loop, nil
}

// translateItem converts one body block other than a trigger.
func (l *Loader) translateItem(ctx context.Context, parent string, block *hcl.Block, evalCtx *hcl.EvalContext) (config.Item, error) {
	switch block.Type {
	case "section":
		return l.translateSection(ctx, block.Labels[0], block.Body, evalCtx)
	case "loop":
		return l.translateLoop(ctx, block.Labels[0], block.Body, evalCtx)
	case "play":
		var pb playBlock
		if diags := gohcl.DecodeBody(block.Body, evalCtx, &pb); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode play %q in %q: %w", block.Labels[0], parent, diags)
		}
		return &config.Play{ID: block.Labels[0], Signal: pb.Signal, Length: pb.Length}, nil
	case "acquire":
		var ab playBlock
		if diags := gohcl.DecodeBody(block.Body, evalCtx, &ab); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode acquire %q in %q: %w", block.Labels[0], parent, diags)
		}
		return &config.Acquire{Handle: block.Labels[0], Signal: ab.Signal, Length: ab.Length}, nil
	case "delay":
		var db delayBlock
		if diags := gohcl.DecodeBody(block.Body, evalCtx, &db); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode delay in %q: %w", parent, diags)
		}
		return &config.Delay{Signal: db.Signal, Time: db.Time}, nil
	case "reserve":
		var rb reserveBlock
		if diags := gohcl.DecodeBody(block.Body, evalCtx, &rb); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode reserve in %q: %w", parent, diags)
		}
		return &config.Reserve{Signal: rb.Signal}, nil
	case "precomp_reset":
		var fb resetBlock
		if diags := gohcl.DecodeBody(block.Body, evalCtx, &fb); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode precomp_reset in %q: %w", parent, diags)
		}
		return &config.FilterReset{Signal: fb.Signal, Pulse: fb.Pulse}, nil
	}
	return nil, fmt.Errorf("%s: unexpected block %q", block.DefRange, block.Type)
}

func checkAlignment(attr *hcl.Attribute, alignment string) error {
	switch alignment {
	case config.AlignLeft, config.AlignRight:
		return nil
	}
	return fmt.Errorf("%s: alignment must be %q or %q, got %q", attr.Range, config.AlignLeft, config.AlignRight, alignment)
}
