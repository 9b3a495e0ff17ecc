package transform

import (
	"testing"

	"github.com/arourke/paleofed/internal/record"
	"github.com/arourke/paleofed/internal/reqctx"
)

func ageRecord(older, younger float64) record.Record {
	r := record.Record{}
	r.SetFloat(record.KeyAgeOlder, older)
	r.SetFloat(record.KeyAgeYounger, younger)
	return r
}

// Mirrors spec end-to-end scenario 5: min_ma=1, max_ma=2 -> window
// [1e6, 2e6] ybp; one record at [1.4e6, 2.1e6] passes (ratio 0.857), one at
// [1.9e6, 5.0e6] fails (ratio 0.032).
func TestFilterMajorOverlapRule(t *testing.T) {
	passes := FilterMajor(ageRecord(2.1e6, 1.4e6), 1e6, 2e6)
	fails := FilterMajor(ageRecord(5.0e6, 1.9e6), 1e6, 2e6)
	if !passes {
		t.Error("expected 0.857 overlap ratio record to pass")
	}
	if fails {
		t.Error("expected 0.032 overlap ratio record to fail")
	}
}

func TestFilterMajorZeroSpanInsideWindow(t *testing.T) {
	if !FilterMajor(ageRecord(1.5e6, 1.5e6), 1e6, 2e6) {
		t.Error("zero-span record inside window should pass")
	}
	if FilterMajor(ageRecord(3e6, 3e6), 1e6, 2e6) {
		t.Error("zero-span record outside window should fail")
	}
}

func TestFilterBufferExactWindow(t *testing.T) {
	// timebuffer=0 with timerule=buffer accepts only records exactly inside
	// the base window.
	if !FilterBuffer(ageRecord(2e6, 1e6), 1e6, 2e6, 0, 0) {
		t.Error("record exactly spanning the window should pass with zero buffer")
	}
	if FilterBuffer(ageRecord(2.5e6, 1e6), 1e6, 2e6, 0, 0) {
		t.Error("record older than max with zero buffer should fail")
	}
}

func TestFilterBufferRespectsMagnitudes(t *testing.T) {
	if !FilterBuffer(ageRecord(2.4e6, 1e6), 1e6, 2e6, 0.5e6, 0) {
		t.Error("record within old buffer should pass")
	}
	if FilterBuffer(ageRecord(2.6e6, 1e6), 1e6, 2e6, 0.5e6, 0) {
		t.Error("record beyond old buffer should fail")
	}
}

func TestAgeConversionRoundTrip(t *testing.T) {
	for _, unit := range []reqctx.AgeUnit{reqctx.UnitMa, reqctx.UnitYBP} {
		v := 1.2345
		got := YBPToUnit(UnitToYBP(v, unit), unit)
		if diff := got - v; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("round-trip for unit %s: got %v, want %v", unit, got, v)
		}
	}
}

func TestOrderMissingKeySortsLast(t *testing.T) {
	withAge := ageRecord(2e6, 1e6)
	missing := record.Record{}
	records := []record.Record{missing, withAge}
	out := Order(records, []int{0, 1}, []reqctx.OrderKey{{Field: "ageolder", Desc: false}})
	older0, ok0 := out[0].AgeOlderYBP()
	if !ok0 || older0 != 2e6 {
		t.Errorf("expected record with age first regardless of ascending order, got %#v", out[0])
	}
}

func TestOrderTieBreaksByRegistrationIndex(t *testing.T) {
	a := ageRecord(2e6, 1e6)
	b := ageRecord(2e6, 1e6)
	a.SetString("tag", "a")
	b.SetString("tag", "b")
	records := []record.Record{b, a}
	out := Order(records, []int{1, 0}, []reqctx.OrderKey{{Field: "ageolder"}})
	if len(out) != 2 {
		t.Fatalf("expected 2 records")
	}
	if out[0].String("tag") != "a" {
		t.Errorf("expected record from subquery 0 first on a tie, got %#v", out[0])
	}
}
