package models

import "github.com/shopspring/decimal"

// MarkType selects the drawing primitive for one annotation mark.
type MarkType string

const (
	MarkZone  MarkType = "zone"
	MarkLine  MarkType = "line"
	MarkLabel MarkType = "label"
)

// MarkRole determines the color a mark is drawn with.
type MarkRole string

const (
	RoleSupport      MarkRole = "support"
	RoleResistance   MarkRole = "resistance"
	RoleCurrentPrice MarkRole = "current_price"
	RoleOther        MarkRole = "other"
)

// LineStyle selects the stroke pattern for line marks.
type LineStyle string

const (
	StyleSolid  LineStyle = "solid"
	StyleDashed LineStyle = "dashed"
)

// Theme selects the label palette for overlay rendering.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// AnnotationMark is one drawing instruction. Zone marks use PriceLow and
// PriceHigh; line and label marks use Price. Text is only read for labels.
type AnnotationMark struct {
	Type      MarkType  `json:"type"`
	Role      MarkRole  `json:"role"`
	Price     float64   `json:"price,omitempty"`
	PriceLow  float64   `json:"priceLow,omitempty"`
	PriceHigh float64   `json:"priceHigh,omitempty"`
	Text      string    `json:"text,omitempty"`
	Style     LineStyle `json:"style,omitempty"`
	Opacity   float64   `json:"opacity,omitempty"`
}

// AnnotationPlan is an ordered sequence of marks. Later marks paint over
// earlier ones; there is no z-ordering beyond sequence.
type AnnotationPlan struct {
	Marks []AnnotationMark `json:"marks"`
	Theme Theme            `json:"theme"`
	Story string           `json:"story,omitempty"`
}

// zoneHalfWidth is the half-height of a level zone as a fraction of the
// level price.
const zoneHalfWidth = 0.005

// FormatPrice renders a price for label text with cents precision and no
// float artifacts.
func FormatPrice(price float64) string {
	return decimal.NewFromFloat(price).Round(2).String()
}

// PlanFromRead maps a validated read into renderer drawing primitives:
// support becomes a green zone, resistance a red zone, the pivot a dashed
// blue line and the current price a solid reference line, each with a
// right-edge label. Pure function, no side effects.
func PlanFromRead(read *ChartRead, theme Theme) AnnotationPlan {
	plan := AnnotationPlan{Theme: theme, Story: read.Story}

	addZone := func(lv *PriceLevel, role MarkRole) {
		if lv == nil {
			return
		}
		plan.Marks = append(plan.Marks,
			AnnotationMark{
				Type:      MarkZone,
				Role:      role,
				PriceLow:  lv.Price * (1 - zoneHalfWidth),
				PriceHigh: lv.Price * (1 + zoneHalfWidth),
				Opacity:   0.25,
			},
			AnnotationMark{
				Type:  MarkLabel,
				Role:  role,
				Price: lv.Price,
				Text:  string(role) + " " + FormatPrice(lv.Price) + ": " + lv.Label,
			},
		)
	}

	addZone(read.Support, RoleSupport)
	addZone(read.Resistance, RoleResistance)

	if read.Pivot != nil {
		plan.Marks = append(plan.Marks,
			AnnotationMark{
				Type:  MarkLine,
				Role:  RoleOther,
				Price: read.Pivot.Price,
				Style: StyleDashed,
			},
			AnnotationMark{
				Type:  MarkLabel,
				Role:  RoleOther,
				Price: read.Pivot.Price,
				Text:  "pivot " + FormatPrice(read.Pivot.Price) + ": " + read.Pivot.Label,
			},
		)
	}

	plan.Marks = append(plan.Marks, AnnotationMark{
		Type:  MarkLine,
		Role:  RoleCurrentPrice,
		Price: read.CurrentPrice,
		Style: StyleSolid,
	}, AnnotationMark{
		Type:  MarkLabel,
		Role:  RoleCurrentPrice,
		Price: read.CurrentPrice,
		Text:  FormatPrice(read.CurrentPrice),
	})

	return plan
}
