// Package upstream implements the two concrete adapters the composite
// driver fans out to: a paleobiology source speaking Ma and named time
// rules, and a Quaternary-fauna source speaking years-before-present with
// only a coarse overlap filter.
package upstream

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arourke/paleofed/internal/composite"
	"github.com/arourke/paleofed/internal/identifier"
	"github.com/arourke/paleofed/internal/paramenc"
	"github.com/arourke/paleofed/internal/record"
	"github.com/arourke/paleofed/internal/reqctx"
	"github.com/arourke/paleofed/internal/streamjson"
	"github.com/arourke/paleofed/internal/transform"
)

// Label is the subquery label prefix recorded against warnings.
const (
	LabelPaleo      = "PaleoBioDB"
	LabelQuaternary = "Quaternary"
)

// PaleobioAdapter talks to the paleobiology source, which accepts ages in
// Ma and understands named time rules natively.
type PaleobioAdapter struct {
	BaseURL string
}

func NewPaleobio(baseURL string) *PaleobioAdapter {
	return &PaleobioAdapter{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

func (a *PaleobioAdapter) BuildListURL(d *composite.Driver, sq *composite.Subquery) (string, error) {
	return a.buildURL(d, "occs/list.json")
}

func (a *PaleobioAdapter) BuildSingleURL(d *composite.Driver, sq *composite.Subquery) (string, error) {
	return a.buildURL(d, "occs/single.json")
}

func (a *PaleobioAdapter) buildURL(d *composite.Driver, path string) (string, error) {
	ctx := d.Ctx
	var params []string
	any := false

	if nums, ok := numbersForDomain(ctx.Identifiers["occ_id"], identifier.DomainPaleo); ok {
		params = append(params, paramenc.Encode("occ_id", nums))
		any = true
	}
	if nums, ok := numbersForDomain(ctx.Identifiers["site_id"], identifier.DomainPaleo); ok && nums != "" {
		params = append(params, paramenc.Encode("coll_id", nums))
		any = true
	}

	if ctx.TaxonName != "" {
		params = append(params, paramenc.Encode("taxon_name", ctx.TaxonName))
		any = true
	}
	if ctx.BaseName != "" {
		params = append(params, paramenc.Encode("base_name", ctx.BaseName))
		any = true
	}
	if ctx.MatchName != "" {
		params = append(params, paramenc.Encode("match_name", ctx.MatchName))
		any = true
	}

	if ctx.HasMin {
		params = append(params, paramenc.Encode("min_ma", formatFloat(transform.YBPToUnit(ctx.MinYBP, reqctx.UnitMa))))
		any = true
	}
	if ctx.HasMax {
		params = append(params, paramenc.Encode("max_ma", formatFloat(transform.YBPToUnit(ctx.MaxYBP, reqctx.UnitMa))))
		any = true
	}
	if ctx.HasMin || ctx.HasMax {
		params = append(params, paramenc.Encode("timerule", string(ctx.Rule)))
		if ctx.HasBuffer {
			params = append(params, paramenc.Encode("oldbuffer", formatFloat(transform.YBPToUnit(ctx.OldBufferYBP, reqctx.UnitMa))))
			params = append(params, paramenc.Encode("youngbuffer", formatFloat(transform.YBPToUnit(ctx.YoungBufferYBP, reqctx.UnitMa))))
		}
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
		return "", nil // nothing this adapter can translate: abort, not an error
	}
	return fmt.Sprintf("%s/%s?%s", a.BaseURL, path, strings.Join(params, "&")), nil
}

func (a *PaleobioAdapter) OnChunk(d *composite.Driver, sq *composite.Subquery, chunk []byte) error {
	ex, _ := sq.Extra.(*streamjson.Extractor)
	if ex == nil {
		ex = streamjson.New("/records/^", "/status_code", "/warnings/^", "/errors/^")
		sq.Extra = ex
	}
	pairs, err := ex.Feed(chunk)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		switch {
		case p.Path == "/records/^":
			normalizePaleobioRecord(d.Ctx, sq, p.Value)
		case p.Path == "/status_code":
			if v, ok := p.Value.(float64); ok && (v < 200 || v >= 300) {
				sq.AddWarning("request failed")
			}
		case p.Path == "/warnings/^" || p.Path == "/errors/^":
			if s, ok := p.Value.(string); ok {
				sq.AddWarning(s)
			}
		}
	}
	return nil
}

func normalizePaleobioRecord(ctx *reqctx.Context, sq *composite.Subquery, raw any) {
	m, ok := raw.(map[string]any)
	if !ok {
		return
	}
	r := record.Record(m)

	var olderYBP, youngerYBP float64
	if v, ok := asFloat(m["max_ma"]); ok {
		olderYBP = v * 1e6
	}
	if v, ok := asFloat(m["min_ma"]); ok {
		youngerYBP = v * 1e6
	}
	transform.SetAge(r, olderYBP, youngerYBP, ctx.AgeUnit)
	transform.SetDatabaseType(r, "pbdb", identifier.TypeOccurrence)
	if n, ok := asFloat(m["occurrence_no"]); ok {
		transform.SetIdentifier(r, "occurrence_no", identifier.DomainPaleo, identifier.TypeOccurrence, int64(n))
	}
	sq.AppendRecord(r)
}

func asFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// numbersForDomain returns a comma-joined list of the raw numeric ids among
// ids whose domain matches want, and whether at least one id matched. An
// empty list and a list with no id for want both report false.
func numbersForDomain(ids []identifier.ID, want identifier.Domain) (string, bool) {
	var nums []string
	for _, id := range ids {
		if id.Domain == want {
			nums = append(nums, strconv.FormatInt(id.Number, 10))
		}
	}
	if len(nums) == 0 {
		return "", false
	}
	return strings.Join(nums, ","), true
}
