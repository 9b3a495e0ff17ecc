package upstream

import (
	"fmt"
	"strings"

	"github.com/arourke/paleofed/internal/composite"
	"github.com/arourke/paleofed/internal/identifier"
	"github.com/arourke/paleofed/internal/paramenc"
	"github.com/arourke/paleofed/internal/record"
	"github.com/arourke/paleofed/internal/reqctx"
	"github.com/arourke/paleofed/internal/streamjson"
	"github.com/arourke/paleofed/internal/transform"
)

// QuaternaryAdapter talks to the Quaternary-fauna source, which is
// years-before-present-native but can only express a coarse overlap
// filter: the major and buffer time rules are enforced locally instead.
type QuaternaryAdapter struct {
	BaseURL         string
	PaleobioBaseURL string // used to resolve a cross-domain taxon id, if any
}

func NewQuaternary(baseURL, paleobioBaseURL string) *QuaternaryAdapter {
	return &QuaternaryAdapter{
		BaseURL:         strings.TrimSuffix(baseURL, "/"),
		PaleobioBaseURL: strings.TrimSuffix(paleobioBaseURL, "/"),
	}
}

func (a *QuaternaryAdapter) BuildListURL(d *composite.Driver, sq *composite.Subquery) (string, error) {
	ctx := d.Ctx
	var params []string
	any := false

	if nums, ok := numbersForDomain(ctx.Identifiers["occ_id"], identifier.DomainQuaternary); ok {
		params = append(params, paramenc.Encode("occid", nums))
		any = true
	}
	if nums, ok := numbersForDomain(ctx.Identifiers["site_id"], identifier.DomainQuaternary); ok {
		params = append(params, paramenc.Encode("siteid", nums))
		any = true
	}

	taxonName := ctx.TaxonName
	if taxonName == "" {
		if name, tried, ok := a.resolveCrossDomainTaxon(d, sq); tried {
			if !ok {
				sq.AddWarning("secondary taxon lookup failed")
				return "", nil
			}
			taxonName = name
		}
	}
	if taxonName != "" {
		params = append(params, paramenc.Encode("taxonname", taxonName))
		any = true
	}
	if ctx.BaseName != "" {
		params = append(params, paramenc.Encode("taxonname", ctx.BaseName))
		any = true
	}

	if ctx.HasMin {
		params = append(params, paramenc.Encode("ageyoung", formatFloat(ctx.MinYBP)))
		any = true
	}
	if ctx.HasMax {
		params = append(params, paramenc.Encode("ageold", formatFloat(ctx.MaxYBP)))
		any = true
	}
	if ctx.HasMin || ctx.HasMax {
		// This source cannot express major/buffer natively: always ask for
		// a coarse overlap and re-filter locally in OnChunk.
		params = append(params, "agedocontain=0")
	}

	if ctx.BBox != nil {
		b := ctx.BBox
		params = append(params,
			paramenc.Encode("lngmin", formatFloat(b.West)),
			paramenc.Encode("lngmax", formatFloat(b.East)),
			paramenc.Encode("latmin", formatFloat(b.South)),
			paramenc.Encode("latmax", formatFloat(b.North)),
		)
		any = true
	}

	for name, vals := range ctx.Passthrough {
		for _, v := range vals {
			params = append(params, paramenc.Encode(name, v))
		}
	}

	if !any {
		return "", nil
	}
	// Bypass the upstream's own default page cap: filtering happens here.
	params = append(params, "limit=999999")
	return fmt.Sprintf("%s/occurrences/list.json?%s", a.BaseURL, strings.Join(params, "&")), nil
}

func (a *QuaternaryAdapter) BuildSingleURL(d *composite.Driver, sq *composite.Subquery) (string, error) {
	nums, ok := numbersForDomain(d.Ctx.Identifiers["occ_id"], identifier.DomainQuaternary)
	if !ok {
		return "", nil
	}
	return fmt.Sprintf("%s/occurrences/single.json?occid=%s", a.BaseURL, nums), nil
}

// resolveCrossDomainTaxon looks for a base_id/taxon_id tagged for the
// paleobiology source and, if found, launches a secondary subquery to
// resolve it to a taxon name before the primary URL can be built (§4.4
// secondary subquery flow). tried reports whether a cross-domain id was
// found at all; ok reports whether the lookup succeeded.
func (a *QuaternaryAdapter) resolveCrossDomainTaxon(d *composite.Driver, sq *composite.Subquery) (name string, tried bool, ok bool) {
	for _, param := range []string{"base_id", "taxon_id"} {
		for _, id := range d.Ctx.Identifiers[param] {
			if id.Domain != identifier.DomainPaleo {
				continue
			}
			sec := d.AddSubquery(sq.Label+".secondary", false, composite.KindSingle,
				&taxonLookupAdapter{baseURL: a.PaleobioBaseURL, number: id.Number})
			<-sec.Done()
			recs := sec.Records()
			if len(recs) == 0 {
				return "", true, false
			}
			return recs[0].String("taxon_name"), true, true
		}
	}
	return "", false, false
}

func (a *QuaternaryAdapter) OnChunk(d *composite.Driver, sq *composite.Subquery, chunk []byte) error {
	ex, _ := sq.Extra.(*streamjson.Extractor)
	if ex == nil {
		ex = streamjson.New("/data/^", "/success", "/message")
		sq.Extra = ex
	}
	pairs, err := ex.Feed(chunk)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		switch {
		case p.Path == "/data/^":
			normalizeQuaternaryRecord(d.Ctx, sq, p.Value)
		case p.Path == "/success":
			if ok, isBool := p.Value.(bool); isBool && !ok {
				sq.AddWarning("request failed")
			}
		case p.Path == "/message":
			if s, isStr := p.Value.(string); isStr && s != "" {
				sq.AddWarning(s)
			}
		}
	}
	return nil
}

func normalizeQuaternaryRecord(ctx *reqctx.Context, sq *composite.Subquery, raw any) {
	m, ok := raw.(map[string]any)
	if !ok {
		return
	}
	r := record.Record(m)

	olderYBP, _ := asFloat(m["ageold"])
	youngerYBP, _ := asFloat(m["ageyoung"])
	transform.SetAge(r, olderYBP, youngerYBP, ctx.AgeUnit)
	transform.SetDatabaseType(r, "neotoma", identifier.TypeOccurrence)
	if n, ok := asFloat(m["occid"]); ok {
		transform.SetIdentifier(r, "occid", identifier.DomainQuaternary, identifier.TypeOccurrence, int64(n))
	}
	if lngMin, ok1 := asFloat(m["lngmin"]); ok1 {
		lngMax, _ := asFloat(m["lngmax"])
		latMin, _ := asFloat(m["latmin"])
		latMax, _ := asFloat(m["latmax"])
		transform.SetMidpoint(r, lngMin, lngMax, latMin, latMax)
	}

	if !localFilterPasses(ctx, r) {
		sq.IncRemoved()
		return
	}
	sq.AppendRecord(r)
}

// localFilterPasses re-applies the major/buffer rule this upstream cannot
// express natively; contain/overlap are trusted since the coarse overlap
// request already matches their semantics closely enough.
func localFilterPasses(ctx *reqctx.Context, r record.Record) bool {
	if !ctx.HasMin && !ctx.HasMax {
		return true
	}
	switch ctx.Rule {
	case reqctx.RuleMajor:
		return transform.FilterMajor(r, ctx.MinYBP, ctx.MaxYBP)
	case reqctx.RuleBuffer:
		return transform.FilterBuffer(r, ctx.MinYBP, ctx.MaxYBP, ctx.OldBufferYBP, ctx.YoungBufferYBP)
	default:
		return true
	}
}

// taxonLookupAdapter is a minimal single-purpose adapter used only to
// resolve one paleobiology taxon id to its name for the secondary subquery
// flow; it never produces list URLs or contributes to composite results.
type taxonLookupAdapter struct {
	baseURL string
	number  int64
}

func (a *taxonLookupAdapter) BuildListURL(d *composite.Driver, sq *composite.Subquery) (string, error) {
	return "", nil
}

func (a *taxonLookupAdapter) BuildSingleURL(d *composite.Driver, sq *composite.Subquery) (string, error) {
	return fmt.Sprintf("%s/taxa/single.json?id=%d", a.baseURL, a.number), nil
}

func (a *taxonLookupAdapter) OnChunk(d *composite.Driver, sq *composite.Subquery, chunk []byte) error {
	ex, _ := sq.Extra.(*streamjson.Extractor)
	if ex == nil {
		ex = streamjson.New("/records/^")
		sq.Extra = ex
	}
	pairs, err := ex.Feed(chunk)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if p.Path != "/records/^" {
			continue
		}
		if m, ok := p.Value.(map[string]any); ok {
			sq.AppendRecord(record.Record(m))
		}
	}
	return nil
}
