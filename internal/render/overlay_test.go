package render

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/quantlens/chartlens/internal/imaging"
	"github.com/quantlens/chartlens/internal/models"
)

func testRead() *models.ChartRead {
	return &models.ChartRead{
		Story:        "Price ranged $10-$20",
		Regime:       models.RegimeRange,
		Support:      &models.PriceLevel{Price: 10, Label: "bounced 3x"},
		Resistance:   &models.PriceLevel{Price: 20, Label: "rejected twice"},
		CurrentPrice: 15,
		WatchAbove:   "Above 20 = bullish",
		WatchBelow:   "Below 10 = bearish",
		Confidence:   models.ConfidenceHigh,
	}
}

func whiteChartB64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	b64, err := imaging.EncodePNGBase64(img)
	if err != nil {
		t.Fatal(err)
	}
	return b64
}

func TestProjection_EndpointsAndMonotonicity(t *testing.T) {
	area := plotArea{left: 16, right: 184, top: 5, bottom: 88}
	proj := projection{min: 8.5, max: 21.5, top: area.top, bottom: area.bottom}

	if got := proj.toY(proj.min); got != area.bottom {
		t.Errorf("toY(min) = %v, want bottom %v", got, area.bottom)
	}
	if got := proj.toY(proj.max); got != area.top {
		t.Errorf("toY(max) = %v, want top %v", got, area.top)
	}

	prev := proj.toY(proj.min)
	for p := proj.min; p <= proj.max; p += 0.5 {
		y := proj.toY(p)
		if y > prev {
			t.Fatalf("toY not monotonically non-increasing at price %v", p)
		}
		prev = y
	}
}

func TestProjection_DegenerateRangeGuard(t *testing.T) {
	proj := projection{min: 15, max: 15, top: 5, bottom: 88}
	y := proj.toY(15)
	if y != proj.bottom {
		t.Errorf("toY on a zero-width range = %v, want bottom", y)
	}
}

func TestNewProjection_PadsObservedRange(t *testing.T) {
	area := plotArea{top: 5, bottom: 88}
	proj := newProjection(testRead(), area)

	// Observed [10,20] padded by 15% of the range on each end.
	if proj.min != 8.5 || proj.max != 21.5 {
		t.Errorf("range = [%v,%v], want [8.5,21.5]", proj.min, proj.max)
	}
}

func TestNewProjection_PivotDoesNotWidenRange(t *testing.T) {
	area := plotArea{top: 5, bottom: 88}
	read := testRead()
	base := newProjection(read, area)

	// The pivot is drawn as a line, not a zone; even an extreme one leaves
	// the visible price range untouched.
	read.Pivot = &models.PriceLevel{Price: 95, Label: "decision level"}
	withPivot := newProjection(read, area)

	if withPivot.min != base.min || withPivot.max != base.max {
		t.Errorf("range = [%v,%v], want [%v,%v]",
			withPivot.min, withPivot.max, base.min, base.max)
	}
}

func TestNewProjection_DefaultsWithoutPrices(t *testing.T) {
	proj := newProjection(nil, plotArea{top: 0, bottom: 100})
	if proj.min != 0 || proj.max != 100 {
		t.Errorf("range = [%v,%v], want [0,100]", proj.min, proj.max)
	}
}

func TestOverlay_SupportZoneBelowResistanceZone(t *testing.T) {
	const w, h = 600, 300
	read := testRead()
	plan := models.PlanFromRead(read, models.ThemeDark)

	out, err := Overlay(whiteChartB64(t, w, h), plan, read)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "data:image/png;base64,") {
		t.Fatalf("output is not a png data URI: %.40s", out)
	}

	img, err := imaging.DecodeBase64(out)
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		t.Fatalf("output is %dx%d, want source dimensions %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy(), w, h)
	}

	area := plotArea{left: w * marginLeft, right: w * marginRight, top: h * marginTop, bottom: h * marginBottom}
	proj := newProjection(read, area)
	supportY := int(proj.toY(read.Support.Price))
	resistanceY := int(proj.toY(read.Resistance.Price))
	if supportY <= resistanceY {
		t.Fatalf("support y %d must be strictly below resistance y %d", supportY, resistanceY)
	}

	// Inside the bands the white canvas takes on the zone tint. Sample just
	// right of the plot edge, clear of the right-aligned labels.
	x := int(area.left) + 4
	sr, sg, sb, _ := img.At(x, supportY).RGBA()
	if !(sg > sr && sg > sb) {
		t.Errorf("pixel in support band is not green-tinted: r=%d g=%d b=%d", sr, sg, sb)
	}
	rr, rg, rb, _ := img.At(x, resistanceY).RGBA()
	if !(rr > rg && rr > rb) {
		t.Errorf("pixel in resistance band is not red-tinted: r=%d g=%d b=%d", rr, rg, rb)
	}
}

func TestOverlay_BadImageIsTheOnlyFailurePath(t *testing.T) {
	read := testRead()
	plan := models.PlanFromRead(read, models.ThemeDark)

	_, err := Overlay("definitely-not-base64!!!", plan, read)
	if err == nil {
		t.Fatal("expected image load failure")
	}
	var loadErr *imaging.ImageLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected ImageLoadError, got %v", err)
	}
}

func TestOverlay_CaptionTruncation(t *testing.T) {
	long := strings.Repeat("a", 300)
	if got := truncate(long, captionBudget); len(got) != captionBudget+3 {
		t.Errorf("truncated caption length = %d", len(got))
	}
	if got := truncate("short", captionBudget); got != "short" {
		t.Errorf("short caption changed: %q", got)
	}
}
