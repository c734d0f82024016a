// Package catalog holds small, deterministic illustrative tools beyond web
// search, demonstrating that the tool registry supports more than one
// registered tool without relaxing the at-most-one-call-per-turn guardrail
// (that limit lives in internal/guardrail, not in any individual tool).
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/haasonsaas/turnruntime/internal/toolbox"
)

// CurrentTimeTool reports the current time in a named IANA location,
// defaulting to UTC. It never touches memory or turn state.
type CurrentTimeTool struct {
	now func() time.Time
}

// NewCurrentTimeTool returns a CurrentTimeTool backed by time.Now.
func NewCurrentTimeTool() CurrentTimeTool {
	return CurrentTimeTool{now: time.Now}
}

func (CurrentTimeTool) Name() string { return "current_time" }

func (CurrentTimeTool) Description() string {
	return "Return the current date and time, optionally in a named IANA timezone."
}

func (CurrentTimeTool) InputSchema() toolbox.InputSchema {
	return toolbox.InputSchema{
		Properties: map[string]toolbox.Property{
			"timezone": {Type: "string", Description: "IANA timezone name, e.g. \"America/New_York\" (default UTC)"},
		},
	}
}

func (t CurrentTimeTool) Execute(ctx context.Context, arguments map[string]any) toolbox.ToolResult {
	start := time.Now()

	zone, _ := arguments["timezone"].(string)
	loc := time.UTC
	if zone != "" {
		l, err := time.LoadLocation(zone)
		if err != nil {
			return toolbox.ToolResult{
				Success:         false,
				Error:           fmt.Sprintf("unknown timezone %q", zone),
				ExecutionTimeMs: time.Since(start).Milliseconds(),
			}
		}
		loc = l
	}

	now := t.now().In(loc)
	return toolbox.ToolResult{
		Success: true,
		Data: map[string]any{
			"timestamp": now.Format(time.RFC3339),
			"timezone":  loc.String(),
		},
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
}

// UnitConvertTool converts a value between a small fixed set of units
// (length and mass), purely in-process with no network dependency.
type UnitConvertTool struct{}

func NewUnitConvertTool() UnitConvertTool { return UnitConvertTool{} }

func (UnitConvertTool) Name() string { return "unit_convert" }

func (UnitConvertTool) Description() string {
	return "Convert a numeric value between a fixed set of length and mass units."
}

func (UnitConvertTool) InputSchema() toolbox.InputSchema {
	return toolbox.InputSchema{
		Properties: map[string]toolbox.Property{
			"value": {Type: "number", Description: "value to convert"},
			"from":  {Type: "string", Description: "source unit: m, km, mi, ft, kg, lb"},
			"to":    {Type: "string", Description: "target unit: m, km, mi, ft, kg, lb"},
		},
		Required: []string{"value", "from", "to"},
	}
}

// toMeters/toKilograms express each supported unit in its dimension's base
// unit, so any same-dimension pair converts via one multiply and one divide.
var toMeters = map[string]float64{
	"m": 1, "km": 1000, "mi": 1609.344, "ft": 0.3048,
}
var toKilograms = map[string]float64{
	"kg": 1, "lb": 0.45359237,
}

func (UnitConvertTool) Execute(ctx context.Context, arguments map[string]any) toolbox.ToolResult {
	start := time.Now()

	value, ok := numberArg(arguments["value"])
	from, _ := arguments["from"].(string)
	to, _ := arguments["to"].(string)
	if !ok {
		return errResult(start, "value must be a number")
	}

	if factor, err := convert(value, from, to, toMeters); err == nil {
		return okResult(start, factor)
	}
	if factor, err := convert(value, from, to, toKilograms); err == nil {
		return okResult(start, factor)
	}
	return errResult(start, fmt.Sprintf("unsupported or mismatched units: %q -> %q", from, to))
}

func convert(value float64, from, to string, table map[string]float64) (float64, error) {
	fromFactor, fromOK := table[from]
	toFactor, toOK := table[to]
	if !fromOK || !toOK {
		return 0, fmt.Errorf("unit not in this dimension")
	}
	return value * fromFactor / toFactor, nil
}

func numberArg(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func okResult(start time.Time, result float64) toolbox.ToolResult {
	return toolbox.ToolResult{
		Success:         true,
		Data:            map[string]any{"result": result},
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
}

func errResult(start time.Time, msg string) toolbox.ToolResult {
	return toolbox.ToolResult{
		Success:         false,
		Error:           msg,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
}
