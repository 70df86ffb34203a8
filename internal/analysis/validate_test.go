package analysis

import (
	"encoding/json"
	"testing"

	"github.com/quantlens/chartlens/internal/models"
)

func validPayload() map[string]any {
	return map[string]any{
		"story":            "Price ranged $10-$20",
		"regime":           "range",
		"support":          map[string]any{"price": 10.0, "label": "bounced 3x"},
		"resistance":       map[string]any{"price": 20.0, "label": "rejected twice"},
		"pivot":            nil,
		"currentPrice":     15.0,
		"watchAbove":       "Above 20 = bullish",
		"watchBelow":       "Below 10 = bearish",
		"confidence":       "high",
		"confidenceReason": "clean range",
	}
}

func TestValidate_EndToEndScenario(t *testing.T) {
	read, err := ValidateChartRead(validPayload())
	if err != nil {
		t.Fatalf("expected valid read, got %v", err)
	}
	if read.Regime != models.RegimeRange {
		t.Errorf("regime = %s", read.Regime)
	}
	if read.Support == nil || read.Support.Price != 10 {
		t.Fatalf("support = %+v", read.Support)
	}
	if read.Resistance == nil || read.Resistance.Price != 20 {
		t.Fatalf("resistance = %+v", read.Resistance)
	}
	if read.Pivot != nil {
		t.Errorf("pivot should be nil, got %+v", read.Pivot)
	}
	if read.Support.Price >= read.Resistance.Price {
		t.Error("support must sit below resistance")
	}
}

func TestValidate_TotalityOnNonObjects(t *testing.T) {
	inputs := []any{
		nil,
		"a string",
		42.0,
		true,
		[]any{1.0, 2.0},
		json.Number("7"),
	}
	for _, in := range inputs {
		if _, err := ValidateChartRead(in); err == nil {
			t.Errorf("input %#v: expected rejection", in)
		}
	}
}

func TestValidate_RejectsSupportAboveResistance(t *testing.T) {
	p := validPayload()
	p["support"] = map[string]any{"price": 25.0, "label": "wrong side"}

	_, err := ValidateChartRead(p)
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Field != "support" {
		t.Errorf("field = %q, want support", verr.Field)
	}
}

func TestValidate_LevelRangeInvariant(t *testing.T) {
	p := validPayload()
	p["resistance"] = map[string]any{"price": 15.0 * 11, "label": "too far"}

	_, err := ValidateChartRead(p)
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Field != "resistance" {
		t.Errorf("field = %q, want resistance", verr.Field)
	}
}

func TestValidate_SupportSlightlyAboveCurrentIsAllowed(t *testing.T) {
	p := validPayload()
	// 10% above the current price is the cutoff; just inside passes.
	p["support"] = map[string]any{"price": 16.4, "label": "retest from above"}
	p["resistance"] = map[string]any{"price": 20.0, "label": "ceiling"}

	if _, err := ValidateChartRead(p); err != nil {
		t.Fatalf("expected valid read, got %v", err)
	}

	p["support"] = map[string]any{"price": 16.6, "label": "too far above"}
	if _, err := ValidateChartRead(p); err == nil {
		t.Fatal("expected rejection above the 10% cutoff")
	}
}

func TestValidate_NullLevelIsValidInvalidLevelIsNot(t *testing.T) {
	p := validPayload()
	p["pivot"] = nil
	if _, err := ValidateChartRead(p); err != nil {
		t.Fatalf("null pivot must validate, got %v", err)
	}

	p["pivot"] = map[string]any{"price": 14.0, "label": "   "}
	_, err := ValidateChartRead(p)
	verr, ok := err.(*ValidationError)
	if !ok || verr.Field != "pivot" {
		t.Fatalf("expected pivot rejection, got %v", err)
	}

	p["pivot"] = "14"
	if _, err := ValidateChartRead(p); err == nil {
		t.Fatal("non-object pivot must be rejected")
	}
}

func TestValidate_EnumsAreCaseSensitive(t *testing.T) {
	p := validPayload()
	p["regime"] = "Range"
	if _, err := ValidateChartRead(p); err == nil {
		t.Fatal("capitalized regime must be rejected, not normalized")
	}

	p = validPayload()
	p["confidence"] = "HIGH"
	if _, err := ValidateChartRead(p); err == nil {
		t.Fatal("capitalized confidence must be rejected, not normalized")
	}
}

func TestValidate_TrimmingIsIdempotent(t *testing.T) {
	p := validPayload()
	p["story"] = "  X  "

	read, err := ValidateChartRead(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if read.Story != "X" {
		t.Fatalf("story = %q, want %q", read.Story, "X")
	}

	// Re-validating the trimmed output is a fixed point.
	data, _ := json.Marshal(read)
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	again, err := ValidateChartRead(raw)
	if err != nil {
		t.Fatalf("re-validation failed: %v", err)
	}
	if again.Story != read.Story {
		t.Errorf("re-validation changed story: %q", again.Story)
	}
}

func TestValidate_CoercesQuotedNumbers(t *testing.T) {
	p := validPayload()
	p["currentPrice"] = "15.5"
	p["support"] = map[string]any{"price": "10.25", "label": "shelf"}

	read, err := ValidateChartRead(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if read.CurrentPrice != 15.5 {
		t.Errorf("currentPrice = %v", read.CurrentPrice)
	}
	if read.Support.Price != 10.25 {
		t.Errorf("support price = %v", read.Support.Price)
	}
}

func TestValidate_RejectsNonFiniteQuotedNumbers(t *testing.T) {
	for _, price := range []string{"1e999", "-1e999"} {
		p := validPayload()
		p["support"], p["resistance"], p["pivot"] = nil, nil, nil
		p["currentPrice"] = price

		_, err := ValidateChartRead(p)
		verr, ok := err.(*ValidationError)
		if !ok {
			t.Fatalf("currentPrice %q: expected *ValidationError, got %v", price, err)
		}
		if verr.Field != "currentPrice" {
			t.Errorf("currentPrice %q: field = %q", price, verr.Field)
		}
	}
}

func TestValidate_RejectsBadScalars(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value any
	}{
		{"empty story", "story", "   "},
		{"missing story", "story", nil},
		{"numeric watchAbove", "watchAbove", 5.0},
		{"zero price", "currentPrice", 0.0},
		{"negative price", "currentPrice", -3.0},
		{"price garbage", "currentPrice", "not a number"},
		{"non-string reason", "confidenceReason", 9.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPayload()
			if tc.value == nil {
				delete(p, tc.field)
			} else {
				p[tc.field] = tc.value
			}
			_, err := ValidateChartRead(p)
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Errorf("field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}
