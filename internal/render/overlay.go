// Package render draws annotation plans onto chart rasters without any
// model call. It is the deterministic sibling of the model-redraw path and
// the fallback when every generation variant is exhausted.
package render

import (
	"github.com/fogleman/gg"

	"github.com/quantlens/chartlens/internal/imaging"
	"github.com/quantlens/chartlens/internal/models"
)

// The plotting rectangle inside a flattened chart screenshot cannot be
// recovered exactly, so it is estimated with fixed fractional margins.
const (
	marginLeft   = 0.08
	marginRight  = 0.92
	marginTop    = 0.05
	marginBottom = 0.88

	// Padding applied to each end of the observed price range.
	rangePad = 0.15

	// Caption character budget before ellipsis truncation.
	captionBudget = 80
)

type plotArea struct {
	left, right, top, bottom float64
}

// projection maps the price domain linearly onto the vertical pixel range
// of the plotting rectangle. Monotonic: higher prices land higher on the
// canvas (smaller y).
type projection struct {
	min, max    float64
	top, bottom float64
}

func (p projection) toY(price float64) float64 {
	span := p.max - p.min
	if span == 0 {
		span = 1
	}
	return p.bottom - (price-p.min)/span*(p.bottom-p.top)
}

// newProjection derives the visible price range from the current price plus
// every zone price in the read (support and resistance; the pivot is drawn
// as a line, not a zone, and does not widen the range), padded by 15% of the
// range on each end. With no prices at all it falls back to [0,100].
func newProjection(read *models.ChartRead, area plotArea) projection {
	var prices []float64
	if read != nil {
		if read.CurrentPrice > 0 {
			prices = append(prices, read.CurrentPrice)
		}
		for _, lv := range []*models.PriceLevel{read.Support, read.Resistance} {
			if lv != nil {
				prices = append(prices, lv.Price)
			}
		}
	}

	lo, hi := 0.0, 100.0
	if len(prices) > 0 {
		lo, hi = prices[0], prices[0]
		for _, p := range prices[1:] {
			if p < lo {
				lo = p
			}
			if p > hi {
				hi = p
			}
		}
		pad := (hi - lo) * rangePad
		lo -= pad
		hi += pad
	}
	return projection{min: lo, max: hi, top: area.top, bottom: area.bottom}
}

func roleColor(role models.MarkRole) (r, g, b float64) {
	switch role {
	case models.RoleSupport:
		return 0.13, 0.77, 0.37
	case models.RoleResistance:
		return 0.94, 0.27, 0.27
	case models.RoleCurrentPrice:
		return 0.96, 0.62, 0.04
	default:
		return 0.23, 0.51, 0.96
	}
}

// Overlay paints the plan onto the source image and returns the result as
// a PNG data URI. The output canvas matches the source pixel dimensions
// exactly. The only failure path is an undecodable source image; every
// other input is pre-validated.
func Overlay(imageB64 string, plan models.AnnotationPlan, read *models.ChartRead) (string, error) {
	img, err := imaging.DecodeBase64(imageB64)
	if err != nil {
		return "", err
	}

	dc := gg.NewContextForImage(img)
	w, h := float64(dc.Width()), float64(dc.Height())
	area := plotArea{
		left:   w * marginLeft,
		right:  w * marginRight,
		top:    h * marginTop,
		bottom: h * marginBottom,
	}
	proj := newProjection(read, area)

	// Marks paint in array order; later marks draw over earlier ones.
	for _, mark := range plan.Marks {
		switch mark.Type {
		case models.MarkZone:
			drawZone(dc, area, proj, mark)
		case models.MarkLine:
			drawLine(dc, area, proj, mark)
		case models.MarkLabel:
			drawLabel(dc, area, proj, mark, plan.Theme)
		}
	}

	if plan.Story != "" {
		drawCaption(dc, area, truncate(plan.Story, captionBudget), plan.Theme)
	}

	encoded, err := imaging.EncodePNGBase64(dc.Image())
	if err != nil {
		return "", err
	}
	return imaging.DataURI(encoded), nil
}

func drawZone(dc *gg.Context, area plotArea, proj projection, mark models.AnnotationMark) {
	yTop := proj.toY(mark.PriceHigh)
	yBottom := proj.toY(mark.PriceLow)
	opacity := mark.Opacity
	if opacity == 0 {
		opacity = 0.25
	}

	r, g, b := roleColor(mark.Role)
	dc.SetRGBA(r, g, b, opacity)
	dc.DrawRectangle(area.left, yTop, area.right-area.left, yBottom-yTop)
	dc.Fill()

	// Center guideline through the band.
	dc.SetRGBA(r, g, b, 0.8)
	dc.SetLineWidth(1.5)
	yMid := (yTop + yBottom) / 2
	dc.DrawLine(area.left, yMid, area.right, yMid)
	dc.Stroke()
}

func drawLine(dc *gg.Context, area plotArea, proj projection, mark models.AnnotationMark) {
	y := proj.toY(mark.Price)
	r, g, b := roleColor(mark.Role)
	dc.SetRGBA(r, g, b, 0.9)
	dc.SetLineWidth(2)
	if mark.Style == models.StyleDashed {
		dc.SetDash(8, 6)
	} else {
		dc.SetDash()
	}
	dc.DrawLine(area.left, y, area.right, y)
	dc.Stroke()
	dc.SetDash()
}

func labelPalette(theme models.Theme) (bgR, bgG, bgB, fgR, fgG, fgB float64) {
	if theme == models.ThemeLight {
		return 1, 1, 1, 0.07, 0.09, 0.15
	}
	return 0.07, 0.09, 0.15, 0.93, 0.95, 0.98
}

// drawLabel draws right-aligned boxed text anchored at the projected y of
// the mark's price.
func drawLabel(dc *gg.Context, area plotArea, proj projection, mark models.AnnotationMark, theme models.Theme) {
	if mark.Text == "" {
		return
	}
	y := proj.toY(mark.Price)
	tw, th := dc.MeasureString(mark.Text)
	pad := 4.0

	x := area.right - tw - 2*pad
	boxTop := y - th/2 - pad

	bgR, bgG, bgB, fgR, fgG, fgB := labelPalette(theme)
	dc.SetRGBA(bgR, bgG, bgB, 0.85)
	dc.DrawRectangle(x, boxTop, tw+2*pad, th+2*pad)
	dc.Fill()

	r, g, b := roleColor(mark.Role)
	dc.SetRGBA(r, g, b, 1)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, boxTop, tw+2*pad, th+2*pad)
	dc.Stroke()

	dc.SetRGBA(fgR, fgG, fgB, 1)
	dc.DrawString(mark.Text, x+pad, y+th/2)
}

func drawCaption(dc *gg.Context, area plotArea, caption string, theme models.Theme) {
	tw, th := dc.MeasureString(caption)
	pad := 6.0
	x, y := area.left, area.top

	bgR, bgG, bgB, fgR, fgG, fgB := labelPalette(theme)
	dc.SetRGBA(bgR, bgG, bgB, 0.85)
	dc.DrawRectangle(x, y, tw+2*pad, th+2*pad)
	dc.Fill()

	dc.SetRGBA(fgR, fgG, fgB, 1)
	dc.DrawString(caption, x+pad, y+pad+th)
}

func truncate(s string, budget int) string {
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[:budget]) + "..."
}
