// Package transform implements the request transform: parsing and
// canonicalizing the composite query parameters into a reqctx.Context, and
// later re-shaping and filtering merged records before they reach a client.
package transform

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/arourke/paleofed/internal/identifier"
	"github.com/arourke/paleofed/internal/reqctx"
)

// ValidationError is a caller-input error (spec error class 1): malformed
// parameter, missing mandatory selector, or conflicting parameters. It maps
// to an HTTP 400 response.
type ValidationError struct{ msg string }

func (e *ValidationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

var knownParams = map[string]bool{
	"occ_id": true, "site_id": true, "taxon_id": true, "base_id": true,
	"taxon_name": true, "base_name": true, "match_name": true,
	"bbox": true, "min_age": true, "max_age": true, "min_ma": true, "max_ma": true,
	"timerule": true, "timebuffer": true, "ds": true, "ageunit": true,
	"order": true, "vocab": true, "show": true,
}

var idParamType = map[string]identifier.Type{
	"occ_id":   identifier.TypeOccurrence,
	"site_id":  identifier.TypeSite,
	"taxon_id": identifier.TypeTaxon,
	"base_id":  identifier.TypeTaxon,
}

// Parse builds a reqctx.Context from raw query parameters and a target
// output format (the <fmt> path segment). It returns a ValidationError for
// any class-1 caller mistake; identifier classification problems are
// recorded as warnings on the returned context instead of failing parsing.
func Parse(format string, q url.Values) (*reqctx.Context, error) {
	ctx := reqctx.New()
	ctx.Format = format

	if err := parseSelectors(ctx, q); err != nil {
		return nil, err
	}
	if err := parseUpstreams(ctx, q); err != nil {
		return nil, err
	}
	parseVocabAndUnit(ctx, q)
	if err := parseAgeWindow(ctx, q); err != nil {
		return nil, err
	}
	if err := parseTimeRule(ctx, q); err != nil {
		return nil, err
	}
	if err := parseBBox(ctx, q); err != nil {
		return nil, err
	}
	parseOrder(ctx, q)
	ctx.Show = splitCSV(q.Get("show"))
	parsePassthrough(ctx, q)
	resolveIdentifierDomains(ctx)

	if !hasAnySelector(ctx, q) {
		return nil, invalid("at least one selector parameter is required")
	}
	return ctx, nil
}

func parseSelectors(ctx *reqctx.Context, q url.Values) error {
	nameParams := []string{"taxon_name", "base_name", "match_name"}
	seen := 0
	for _, p := range nameParams {
		if q.Get(p) != "" {
			seen++
		}
	}
	if seen > 1 {
		return invalid("at most one of taxon_name, base_name, match_name may be given")
	}
	ctx.TaxonName = q.Get("taxon_name")
	ctx.BaseName = q.Get("base_name")
	ctx.MatchName = q.Get("match_name")

	for _, param := range []string{"occ_id", "site_id", "taxon_id", "base_id"} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		var ids []identifier.ID
		for _, tok := range splitCSV(raw) {
			id, err := identifier.Parse(tok)
			if err != nil {
				ctx.AddWarning(fmt.Sprintf("%s: dropping unparseable identifier %q: %v", param, tok, err))
				continue
			}
			if want, ok := idParamType[param]; ok && id.Type != "" && id.Type != want {
				ctx.AddWarning(fmt.Sprintf("%s: identifier %q has wrong type for this parameter", param, tok))
				continue
			}
			ids = append(ids, id)
		}
		ctx.Identifiers[param] = ids
	}
	return nil
}

func hasAnySelector(ctx *reqctx.Context, q url.Values) bool {
	if ctx.TaxonName != "" || ctx.BaseName != "" || ctx.MatchName != "" {
		return true
	}
	for _, ids := range ctx.Identifiers {
		if len(ids) > 0 {
			return true
		}
	}
	if ctx.BBox != nil {
		return true
	}
	if ctx.HasMin || ctx.HasMax {
		return true
	}
	return false
}

func parseUpstreams(ctx *reqctx.Context, q url.Values) error {
	raw := q.Get("ds")
	if raw == "" {
		return nil
	}
	for _, tok := range splitCSV(raw) {
		d, err := identifier.ParseDomain(tok)
		if err != nil {
			return invalid("unknown upstream selector %q", tok)
		}
		ctx.Upstreams[d] = true
	}
	return nil
}

func parseVocabAndUnit(ctx *reqctx.Context, q url.Values) {
	ctx.Vocab = reqctx.VocabCommon
	if v := q.Get("vocab"); v != "" {
		ctx.Vocab = reqctx.Vocab(strings.ToLower(v))
	}
	ctx.AgeUnit = reqctx.UnitMa
	if u := q.Get("ageunit"); u != "" {
		ctx.AgeUnit = reqctx.AgeUnit(strings.ToLower(u))
	}
}

func parseAgeWindow(ctx *reqctx.Context, q url.Values) error {
	min, hasMin, err := atMostOneAge(q, "min_age", "min_ma")
	if err != nil {
		return err
	}
	max, hasMax, err := atMostOneAge(q, "max_age", "max_ma")
	if err != nil {
		return err
	}
	ctx.HasMin, ctx.MinYBP = hasMin, min
	ctx.HasMax, ctx.MaxYBP = hasMax, max

	if raw := q.Get("timebuffer"); raw != "" {
		rng := ctx.MaxYBP
		if ctx.HasMin {
			rng -= ctx.MinYBP
		}
		old, young, err := parseTimebuffer(raw, rng, ctx.AgeUnit)
		if err != nil {
			return err
		}
		ctx.HasBuffer = true
		ctx.OldBufferYBP = old
		ctx.YoungBufferYBP = young
	}
	return nil
}

// atMostOneAge reads the ybp-form and Ma-form of one bound, rejecting both
// being set, and converts Ma to years-before-present.
func atMostOneAge(q url.Values, ybpParam, maParam string) (float64, bool, error) {
	ybpRaw, maRaw := q.Get(ybpParam), q.Get(maParam)
	if ybpRaw != "" && maRaw != "" {
		return 0, false, invalid("at most one of %s, %s may be given", ybpParam, maParam)
	}
	switch {
	case ybpRaw != "":
		v, err := strconv.ParseFloat(ybpRaw, 64)
		if err != nil {
			return 0, false, invalid("%s: invalid number %q", ybpParam, ybpRaw)
		}
		return v, true, nil
	case maRaw != "":
		v, err := strconv.ParseFloat(maRaw, 64)
		if err != nil {
			return 0, false, invalid("%s: invalid number %q", maParam, maRaw)
		}
		return v * 1e6, true, nil
	default:
		return 0, false, nil
	}
}

// parseTimebuffer parses "old[,young]" where each term is either a percentage
// of rng or an absolute value in unit, returning both in years-before-present.
func parseTimebuffer(raw string, rng float64, unit reqctx.AgeUnit) (old, young float64, err error) {
	parts := strings.SplitN(raw, ",", 2)
	old, err = parseBufferTerm(parts[0], rng, unit)
	if err != nil {
		return 0, 0, err
	}
	young = old
	if len(parts) == 2 {
		young, err = parseBufferTerm(parts[1], rng, unit)
		if err != nil {
			return 0, 0, err
		}
	}
	return old, young, nil
}

func parseBufferTerm(term string, rng float64, unit reqctx.AgeUnit) (float64, error) {
	term = strings.TrimSpace(term)
	if pct, ok := strings.CutSuffix(term, "%"); ok {
		v, err := strconv.ParseFloat(pct, 64)
		if err != nil {
			return 0, invalid("timebuffer: invalid percentage %q", term)
		}
		return rng * v / 100, nil
	}
	v, err := strconv.ParseFloat(term, 64)
	if err != nil {
		return 0, invalid("timebuffer: invalid value %q", term)
	}
	if unit == reqctx.UnitMa {
		v *= 1e6
	}
	return v, nil
}

func parseTimeRule(ctx *reqctx.Context, q url.Values) error {
	raw := strings.ToLower(strings.TrimSpace(q.Get("timerule")))
	switch {
	case ctx.HasBuffer && raw != "" && raw != string(reqctx.RuleBuffer):
		return invalid("timebuffer forces timerule=buffer, but timerule=%s was also given", raw)
	case ctx.HasBuffer:
		ctx.Rule = reqctx.RuleBuffer
	case raw == "":
		ctx.Rule = reqctx.RuleMajor
	default:
		ctx.Rule = reqctx.TimeRule(raw)
	}
	return nil
}

func parseBBox(ctx *reqctx.Context, q url.Values) error {
	raw := q.Get("bbox")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return invalid("bbox requires exactly 4 comma-separated coordinates")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return invalid("bbox: invalid coordinate %q", p)
		}
		vals[i] = v
	}
	ctx.BBox = &reqctx.BBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}
	return nil
}

func parseOrder(ctx *reqctx.Context, q url.Values) {
	for _, tok := range splitCSV(q.Get("order")) {
		field, dir, _ := strings.Cut(tok, ".")
		ctx.Order = append(ctx.Order, reqctx.OrderKey{
			Field: strings.ToLower(field),
			Desc:  strings.EqualFold(dir, "desc"),
		})
	}
}

func parsePassthrough(ctx *reqctx.Context, q url.Values) {
	for name, vals := range q {
		if knownParams[name] {
			continue
		}
		ctx.Passthrough[name] = vals
	}
}

// resolveIdentifierDomains assigns an empty-domain identifier to the
// request's single enabled upstream when unambiguous, or warns and drops it.
func resolveIdentifierDomains(ctx *reqctx.Context) {
	single, unambiguous := ctx.SingleEnabledUpstream()
	for param, ids := range ctx.Identifiers {
		var kept []identifier.ID
		for _, id := range ids {
			if id.Domain == identifier.DomainEmpty {
				if !unambiguous {
					ctx.AddWarning(fmt.Sprintf("%s: identifier has no domain and multiple upstreams are enabled", param))
					continue
				}
				id.Domain = single
			}
			kept = append(kept, id)
		}
		ctx.Identifiers[param] = kept
	}
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
