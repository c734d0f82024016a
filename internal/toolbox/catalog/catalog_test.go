package catalog

import (
	"context"
	"testing"
)

func TestCurrentTimeToolDefaultsToUTC(t *testing.T) {
	tool := NewCurrentTimeTool()
	result := tool.Execute(context.Background(), map[string]any{})
	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if result.Data["timezone"] != "UTC" {
		t.Fatalf("expected UTC default, got %v", result.Data["timezone"])
	}
}

func TestCurrentTimeToolRejectsUnknownZone(t *testing.T) {
	tool := NewCurrentTimeTool()
	result := tool.Execute(context.Background(), map[string]any{"timezone": "Not/AZone"})
	if result.Success {
		t.Fatal("expected failure for unknown timezone")
	}
}

func TestUnitConvertKilometersToMiles(t *testing.T) {
	tool := NewUnitConvertTool()
	result := tool.Execute(context.Background(), map[string]any{
		"value": 10.0, "from": "km", "to": "mi",
	})
	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	got := result.Data["result"].(float64)
	if got < 6.2 || got > 6.3 {
		t.Fatalf("expected ~6.21 miles, got %v", got)
	}
}

func TestUnitConvertRejectsMismatchedDimensions(t *testing.T) {
	tool := NewUnitConvertTool()
	result := tool.Execute(context.Background(), map[string]any{
		"value": 1.0, "from": "km", "to": "kg",
	})
	if result.Success {
		t.Fatal("expected failure when converting across dimensions")
	}
}

func TestUnitConvertRejectsNonNumericValue(t *testing.T) {
	tool := NewUnitConvertTool()
	result := tool.Execute(context.Background(), map[string]any{
		"value": "ten", "from": "km", "to": "mi",
	})
	if result.Success {
		t.Fatal("expected failure for non-numeric value")
	}
}
