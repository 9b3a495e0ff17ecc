package transform

import (
	"net/url"
	"testing"

	"github.com/arourke/paleofed/internal/reqctx"
)

func TestParseRequiresSelector(t *testing.T) {
	_, err := Parse("json", url.Values{})
	if err == nil {
		t.Fatal("expected error when no selector parameter is given")
	}
}

func TestParseAgeMaConversion(t *testing.T) {
	q := url.Values{"base_name": {"Canis"}, "min_ma": {"1"}, "max_ma": {"2"}}
	ctx, err := Parse("json", q)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ctx.MinYBP != 1e6 || ctx.MaxYBP != 2e6 {
		t.Errorf("MinYBP=%v MaxYBP=%v, want 1e6/2e6", ctx.MinYBP, ctx.MaxYBP)
	}
	if ctx.Rule != reqctx.RuleMajor {
		t.Errorf("Rule = %v, want major default", ctx.Rule)
	}
}

func TestParseAtMostOneAge(t *testing.T) {
	q := url.Values{"base_name": {"Canis"}, "min_age": {"1"}, "min_ma": {"2"}}
	if _, err := Parse("json", q); err == nil {
		t.Fatal("expected conflict error for min_age+min_ma")
	}
}

func TestParseTimebufferForcesBufferRule(t *testing.T) {
	q := url.Values{"base_name": {"Canis"}, "min_ma": {"1"}, "max_ma": {"2"}, "timebuffer": {"10%"}}
	ctx, err := Parse("json", q)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ctx.Rule != reqctx.RuleBuffer || !ctx.HasBuffer {
		t.Errorf("Rule=%v HasBuffer=%v, want buffer/true", ctx.Rule, ctx.HasBuffer)
	}
	wantBuf := 1e6 * 0.10
	if ctx.OldBufferYBP != wantBuf || ctx.YoungBufferYBP != wantBuf {
		t.Errorf("buffers = %v/%v, want %v", ctx.OldBufferYBP, ctx.YoungBufferYBP, wantBuf)
	}
}

func TestParseTimebufferConflictingRule(t *testing.T) {
	q := url.Values{"base_name": {"Canis"}, "timebuffer": {"0"}, "timerule": {"contain"}}
	if _, err := Parse("json", q); err == nil {
		t.Fatal("expected conflict between timebuffer and explicit timerule")
	}
}

func TestParseMutuallyExclusiveNameParams(t *testing.T) {
	q := url.Values{"taxon_name": {"Canis"}, "base_name": {"Canis"}}
	if _, err := Parse("json", q); err == nil {
		t.Fatal("expected conflict between taxon_name and base_name")
	}
}

func TestParseDropsUnparseableIdentifier(t *testing.T) {
	q := url.Values{"occ_id": {"not-an-id,41055"}}
	ctx, err := Parse("json", q)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ctx.Identifiers["occ_id"]) != 1 {
		t.Fatalf("Identifiers[occ_id] = %v, want 1 surviving id", ctx.Identifiers["occ_id"])
	}
	if len(ctx.Warnings()) != 1 {
		t.Errorf("Warnings = %v, want 1", ctx.Warnings())
	}
}

func TestParseBBox(t *testing.T) {
	q := url.Values{"bbox": {"-10,20,30,40"}}
	ctx, err := Parse("json", q)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ctx.BBox == nil || ctx.BBox.West != -10 || ctx.BBox.North != 40 {
		t.Errorf("BBox = %+v", ctx.BBox)
	}
}
