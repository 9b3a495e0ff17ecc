package upstream

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/arourke/paleofed/internal/composite"
	"github.com/arourke/paleofed/internal/identifier"
	"github.com/arourke/paleofed/internal/reqctx"
	"github.com/arourke/paleofed/internal/transform"
)

func mustCtx(t *testing.T, format string, q url.Values) *reqctx.Context {
	t.Helper()
	ctx, err := transform.Parse(format, q)
	if err != nil {
		t.Fatalf("transform.Parse: %v", err)
	}
	return ctx
}

func TestPaleobioBuildListURL(t *testing.T) {
	ctx := mustCtx(t, "json", url.Values{"base_name": {"Canis"}, "min_ma": {"1"}, "max_ma": {"2"}})
	d := composite.New(ctx, http.DefaultClient, 0, 0)
	a := NewPaleobio("https://paleo.example/data1.2")
	sq := d.AddSubquery(LabelPaleo, true, composite.KindList, a)

	got, err := a.BuildListURL(d, sq)
	if err != nil {
		t.Fatalf("BuildListURL: %v", err)
	}
	if !strings.Contains(got, "base_name=Canis") {
		t.Errorf("url %q missing base_name", got)
	}
	if !strings.Contains(got, "min_ma=1") || !strings.Contains(got, "max_ma=2") {
		t.Errorf("url %q missing age bounds", got)
	}
	if !strings.Contains(got, "timerule=major") {
		t.Errorf("url %q missing default timerule", got)
	}
}

func TestPaleobioAbortsWithNoTranslatableParams(t *testing.T) {
	ctx := mustCtx(t, "json", url.Values{"taxon_name": {"Canis"}, "ds": {"quaternary"}})
	// taxon_name does translate though -- force a scenario where paleobio has
	// nothing of its own: only a quaternary-domain identifier was given.
	ctx.TaxonName = ""
	ctx.Identifiers["occ_id"] = []identifier.ID{{Domain: identifier.DomainQuaternary, Type: identifier.TypeOccurrence, Number: 1}}

	d := composite.New(ctx, http.DefaultClient, 0, 0)
	a := NewPaleobio("https://paleo.example")
	sq := d.AddSubquery(LabelPaleo, true, composite.KindList, a)

	got, err := a.BuildListURL(d, sq)
	if err != nil {
		t.Fatalf("BuildListURL: %v", err)
	}
	if got != "" {
		t.Errorf("expected abort (empty URL), got %q", got)
	}
}

func TestQuaternaryBuildListURLRequestsCoarseOverlap(t *testing.T) {
	ctx := mustCtx(t, "json", url.Values{"base_name": {"Canis"}, "min_ma": {"1"}, "max_ma": {"2"}})
	d := composite.New(ctx, http.DefaultClient, 0, 0)
	a := NewQuaternary("https://quat.example", "https://paleo.example")
	sq := d.AddSubquery(LabelQuaternary, true, composite.KindList, a)

	got, err := a.BuildListURL(d, sq)
	if err != nil {
		t.Fatalf("BuildListURL: %v", err)
	}
	if !strings.Contains(got, "agedocontain=0") {
		t.Errorf("url %q missing agedocontain=0", got)
	}
	if !strings.Contains(got, "limit=999999") {
		t.Errorf("url %q missing limit override", got)
	}
}

func TestQuaternaryOnChunkAppliesMajorFilter(t *testing.T) {
	ctx := mustCtx(t, "json", url.Values{"base_name": {"Canis"}, "min_ma": {"1"}, "max_ma": {"2"}})
	d := composite.New(ctx, http.DefaultClient, 0, 0)
	a := NewQuaternary("https://quat.example", "https://paleo.example")
	sq := d.AddSubquery(LabelQuaternary, true, composite.KindList, a)

	body := `{"success":true,"data":[` +
		`{"occid":1,"ageold":2100000,"ageyoung":1400000},` + // overlap ratio 0.857 -> passes
		`{"occid":2,"ageold":5000000,"ageyoung":1900000}` + // ratio 0.032 -> fails
		`]}`
	if err := a.OnChunk(d, sq, []byte(body)); err != nil {
		t.Fatalf("OnChunk: %v", err)
	}
	if got := len(sq.Records()); got != 1 {
		t.Errorf("got %d records, want 1", got)
	}
	if got := sq.Removed(); got != 1 {
		t.Errorf("Removed() = %d, want 1", got)
	}
}

func TestPaleobioOnChunkCollectsWarnings(t *testing.T) {
	ctx := mustCtx(t, "json", url.Values{"base_name": {"Canis"}})
	d := composite.New(ctx, http.DefaultClient, 0, 0)
	a := NewPaleobio("https://paleo.example")
	sq := d.AddSubquery(LabelPaleo, true, composite.KindList, a)

	body := `{"records":[],"status_code":500,"warnings":["rate limited"]}`
	if err := a.OnChunk(d, sq, []byte(body)); err != nil {
		t.Fatalf("OnChunk: %v", err)
	}
	warnings := sq.Warnings()
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2 (status + rate limited)", warnings)
	}
}
