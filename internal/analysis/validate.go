package analysis

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quantlens/chartlens/internal/models"
)

// Validation gate for untrusted model output. The discipline is fail closed,
// never coerce: trimming whitespace and numeric type coercion are the only
// transformations performed; a value that fails any rule rejects the whole
// read. There is no repair, no defaulting, no clamping.

const (
	// A level further than one order of magnitude from the current price is
	// treated as a misread rather than a real level.
	levelRangeFactor = 10.0
	// Cross-field slack: support may sit at most 10% above the current
	// price, resistance at most 10% below it.
	crossFieldSlack = 0.1
)

// ValidateChartRead turns an arbitrary decoded JSON value into a ChartRead
// or a *ValidationError. Checks run in a fixed order and the first failure
// wins. It never panics, whatever the input.
func ValidateChartRead(raw any) (*models.ChartRead, error) {
	obj, ok := raw.(map[string]any)
	if !ok || obj == nil {
		return nil, &ValidationError{Reason: "response is not a JSON object"}
	}
	r := models.RawChartRead(obj)

	story, verr := requiredString(r, "story")
	if verr != nil {
		return nil, verr
	}
	watchAbove, verr := requiredString(r, "watchAbove")
	if verr != nil {
		return nil, verr
	}
	watchBelow, verr := requiredString(r, "watchBelow")
	if verr != nil {
		return nil, verr
	}
	confidenceReason, ok := stringField(r, "confidenceReason")
	if !ok {
		return nil, &ValidationError{Field: "confidenceReason", Reason: "must be a string"}
	}

	regime, verr := enumField(r, "regime",
		string(models.RegimeUptrend), string(models.RegimeDowntrend), string(models.RegimeRange))
	if verr != nil {
		return nil, verr
	}
	confidence, verr := enumField(r, "confidence",
		string(models.ConfidenceLow), string(models.ConfidenceMedium), string(models.ConfidenceHigh))
	if verr != nil {
		return nil, verr
	}

	currentPrice, ok := coerceNumber(r["currentPrice"])
	if !ok || currentPrice <= 0 {
		return nil, &ValidationError{Field: "currentPrice", Reason: "must be a positive number"}
	}

	support, verr := levelField(r, "support", currentPrice)
	if verr != nil {
		return nil, verr
	}
	resistance, verr := levelField(r, "resistance", currentPrice)
	if verr != nil {
		return nil, verr
	}
	pivot, verr := levelField(r, "pivot", currentPrice)
	if verr != nil {
		return nil, verr
	}

	if support != nil && support.Price > currentPrice*(1+crossFieldSlack) {
		return nil, &ValidationError{Field: "support", Reason: "support sits more than 10% above the current price"}
	}
	if resistance != nil && resistance.Price < currentPrice*(1-crossFieldSlack) {
		return nil, &ValidationError{Field: "resistance", Reason: "resistance sits more than 10% below the current price"}
	}
	if support != nil && resistance != nil && support.Price >= resistance.Price {
		return nil, &ValidationError{Field: "support", Reason: "support must be strictly below resistance"}
	}

	return &models.ChartRead{
		Story:            story,
		Regime:           models.Regime(regime),
		Support:          support,
		Resistance:       resistance,
		Pivot:            pivot,
		CurrentPrice:     currentPrice,
		WatchAbove:       watchAbove,
		WatchBelow:       watchBelow,
		Confidence:       models.Confidence(confidence),
		ConfidenceReason: confidenceReason,
	}, nil
}

// levelField validates one optional price level. Absence (nil) is a valid,
// distinct outcome; a present level must be fully correct.
func levelField(r models.RawChartRead, field string, currentPrice float64) (*models.PriceLevel, *ValidationError) {
	v, present := r[field]
	if !present || v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ValidationError{Field: field, Reason: "must be an object with price and label, or null"}
	}
	price, ok := coerceNumber(obj["price"])
	if !ok || price <= 0 {
		return nil, &ValidationError{Field: field, Reason: "price must be a positive number"}
	}
	if price < currentPrice/levelRangeFactor || price > currentPrice*levelRangeFactor {
		return nil, &ValidationError{Field: field, Reason: "price is not within an order of magnitude of the current price"}
	}
	label, ok := obj["label"].(string)
	if !ok || strings.TrimSpace(label) == "" {
		return nil, &ValidationError{Field: field, Reason: "label must be a non-empty string"}
	}
	return &models.PriceLevel{Price: price, Label: strings.TrimSpace(label)}, nil
}

func requiredString(r models.RawChartRead, field string) (string, *ValidationError) {
	s, ok := r[field].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", &ValidationError{Field: field, Reason: "must be a non-empty string"}
	}
	return strings.TrimSpace(s), nil
}

// stringField requires the field to be a string but allows it to be empty.
func stringField(r models.RawChartRead, field string) (string, bool) {
	s, ok := r[field].(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// enumField matches case-sensitively against the allowed values; no
// normalization is applied.
func enumField(r models.RawChartRead, field string, allowed ...string) (string, *ValidationError) {
	s, ok := r[field].(string)
	if ok {
		for _, a := range allowed {
			if s == a {
				return s, nil
			}
		}
	}
	return "", &ValidationError{Field: field, Reason: "must be one of " + strings.Join(allowed, ", ")}
}

// coerceNumber accepts the numeric shapes JSON decoding can produce. Models
// occasionally quote numbers; decimal parsing covers that case without
// accepting garbage.
func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case json.Number:
		f, err := n.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		// Huge exponents parse as decimals but overflow float64.
		f, _ := d.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
