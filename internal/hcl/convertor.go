package hcl

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/pulsegrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// unitVariables are in scope of every expression, so that times can be written as
// `32 * ns` or `2.5 * us`. Times are evaluated to seconds.
var unitVariables = map[string]cty.Value{
	"ns": cty.NumberFloatVal(1e-9),
	"us": cty.NumberFloatVal(1e-6),
	"ms": cty.NumberFloatVal(1e-3),
	"s":  cty.NumberFloatVal(1),
}

// newEvalContext returns the evaluation context used for all experiment files.
func newEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{Variables: unitVariables}
}

// decodeAttr evaluates attr and stores the result in the Go value goVal points to.
func decodeAttr(ctx context.Context, attr *hcl.Attribute, evalCtx *hcl.EvalContext, goVal any) error {
	val, diags := attr.Expr.Value(evalCtx)
	if diags.HasErrors() {
		return diags
	}
	if val.IsNull() {
		return fmt.Errorf("%s: attribute %q must not be null", attr.Range, attr.Name)
	}
	if err := decode(ctx, val, goVal); err != nil {
		return fmt.Errorf("%s: failed to decode attribute %q: %w", attr.Range, attr.Name, err)
	}
	return nil
}

// decodeStringList accepts either a single string or a list of strings.
func decodeStringList(ctx context.Context, attr *hcl.Attribute, evalCtx *hcl.EvalContext) ([]string, error) {
	val, diags := attr.Expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.Type() == cty.String {
		val = cty.ListVal([]cty.Value{val})
	}
	var out []string
	if err := decode(ctx, val, &out); err != nil {
		return nil, fmt.Errorf("%s: failed to decode attribute %q: %w", attr.Range, attr.Name, err)
	}
	return out, nil
}

// decode handles the conversion and decoding of a cty.Value into a Go pointer.
func decode(ctx context.Context, val cty.Value, goVal any) error {
	logger := ctxlog.FromContext(ctx)
	valPtr := reflect.ValueOf(goVal)
	if valPtr.Kind() != reflect.Ptr {
		return fmt.Errorf("target for decoding must be a pointer, got %T", goVal)
	}

	impliedType, err := gocty.ImpliedType(valPtr.Elem().Interface())
	if err != nil {
		logger.Debug("Could not imply cty.Type from Go type, attempting direct decoding.", "go_type", valPtr.Elem().Type().String(), "error", err)
		return gocty.FromCtyValue(val, goVal)
	}

	convertedVal, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}

	if !val.Type().Equals(convertedVal.Type()) {
		logger.Debug("Implicitly converted value type.",
			"from", val.Type().FriendlyName(),
			"to", convertedVal.Type().FriendlyName(),
		)
	}

	return gocty.FromCtyValue(convertedVal, goVal)
}
