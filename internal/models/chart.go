package models

// Regime classifies recent price action on the chart.
type Regime string

const (
	RegimeUptrend   Regime = "uptrend"
	RegimeDowntrend Regime = "downtrend"
	RegimeRange     Regime = "range"
)

// Confidence grades how much weight the read carries.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// PriceLevel is a specific chart price where something observable happened:
// a bounce, a rejection, a decision boundary.
type PriceLevel struct {
	Price float64 `json:"price"`
	Label string  `json:"label"`
}

// ChartRead is the validated, structured result of reading one chart image.
// It is constructed only by the validator and is read-only afterward.
type ChartRead struct {
	Story            string      `json:"story"`
	Regime           Regime      `json:"regime"`
	Support          *PriceLevel `json:"support"`
	Resistance       *PriceLevel `json:"resistance"`
	Pivot            *PriceLevel `json:"pivot"`
	CurrentPrice     float64     `json:"currentPrice"`
	WatchAbove       string      `json:"watchAbove"`
	WatchBelow       string      `json:"watchBelow"`
	Confidence       Confidence  `json:"confidence"`
	ConfidenceReason string      `json:"confidenceReason"`
}

// RawChartRead is the untrusted shape of model output before validation.
// Every field may be absent or garbage; it never escapes the validator.
type RawChartRead map[string]any
