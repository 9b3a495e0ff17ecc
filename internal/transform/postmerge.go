package transform

import (
	"math"
	"sort"

	"github.com/arourke/paleofed/internal/identifier"
	"github.com/arourke/paleofed/internal/record"
	"github.com/arourke/paleofed/internal/reqctx"
)

// UnitToYBP converts an age expressed in unit into years-before-present.
func UnitToYBP(v float64, unit reqctx.AgeUnit) float64 {
	if unit == reqctx.UnitMa {
		return v * 1e6
	}
	return v
}

// YBPToUnit converts a canonical years-before-present age into unit.
func YBPToUnit(ybp float64, unit reqctx.AgeUnit) float64 {
	if unit == reqctx.UnitMa {
		return ybp / 1e6
	}
	return ybp
}

// SetIdentifier stores the canonical prefixed identifier form at key,
// replacing whatever raw numeric id the upstream returned.
func SetIdentifier(r record.Record, key string, domain identifier.Domain, typ identifier.Type, number int64) {
	r.SetString(key, identifier.Format(domain, typ, number))
}

// SetAge records both the canonical years-before-present age (used for
// filtering and ordering) and the client-requested display unit.
func SetAge(r record.Record, olderYBP, youngerYBP float64, unit reqctx.AgeUnit) {
	r.SetFloat(record.KeyAgeOlder, olderYBP)
	r.SetFloat(record.KeyAgeYounger, youngerYBP)
	r.SetFloat(record.KeyAgeOlderOut, YBPToUnit(olderYBP, unit))
	r.SetFloat(record.KeyAgeYoungerOut, YBPToUnit(youngerYBP, unit))
}

// SetMidpoint derives lng/lat from a bounding rectangle's corners, the shape
// some upstreams return sites/collections in instead of a single point.
func SetMidpoint(r record.Record, lngMin, lngMax, latMin, latMax float64) {
	r.SetFloat(record.KeyLng, (lngMin+lngMax)/2)
	r.SetFloat(record.KeyLat, (latMin+latMax)/2)
}

// SetDatabaseType sets the two fields every record exposed externally must
// carry (data-model invariant): a non-empty database tag and record type.
func SetDatabaseType(r record.Record, database string, recordType identifier.Type) {
	r.SetString(record.KeyDatabase, database)
	r.SetString(record.KeyRecordType, string(recordType))
}

// FilterMajor implements the "major" time-rule post-filter: keep a record
// iff its fractional overlap with [minYBP, maxYBP] is at least half of its
// own span. A zero-span record passes iff it lies inside the closed window.
func FilterMajor(r record.Record, minYBP, maxYBP float64) bool {
	older, ok1 := r.AgeOlderYBP()
	younger, ok2 := r.AgeYoungerYBP()
	if !ok1 || !ok2 {
		return true // nothing to filter on; trust the record
	}
	span := older - younger
	overlap := math.Min(older, maxYBP) - math.Max(younger, minYBP)
	if span <= 0 {
		return younger >= minYBP && older <= maxYBP
	}
	if overlap <= 0 {
		return false
	}
	return overlap/span >= 0.5
}

// FilterBuffer implements the "buffer" time-rule post-filter.
func FilterBuffer(r record.Record, minYBP, maxYBP, oldBufferYBP, youngBufferYBP float64) bool {
	older, ok1 := r.AgeOlderYBP()
	younger, ok2 := r.AgeYoungerYBP()
	if !ok1 || !ok2 {
		return true
	}
	if older > maxYBP+oldBufferYBP {
		return false
	}
	floor := minYBP - youngBufferYBP
	if floor < 0 {
		floor = 0
	}
	return younger >= floor
}

// Apply runs the configured time-rule post-filter over records, returning
// the survivors and a count of how many were removed. "contain" and
// "overlap" are trusted to the upstream and pass everything through.
func Apply(ctx *reqctx.Context, records []record.Record) (kept []record.Record, removed int) {
	if !ctx.HasMin && !ctx.HasMax {
		return records, 0
	}
	var pass func(record.Record) bool
	switch ctx.Rule {
	case reqctx.RuleMajor:
		pass = func(r record.Record) bool { return FilterMajor(r, ctx.MinYBP, ctx.MaxYBP) }
	case reqctx.RuleBuffer:
		pass = func(r record.Record) bool {
			return FilterBuffer(r, ctx.MinYBP, ctx.MaxYBP, ctx.OldBufferYBP, ctx.YoungBufferYBP)
		}
	default: // contain, overlap: upstream already enforced this
		return records, 0
	}
	kept = make([]record.Record, 0, len(records))
	for _, r := range records {
		if pass(r) {
			kept = append(kept, r)
		} else {
			removed++
		}
	}
	return kept, removed
}

// orderedRecord pairs a record with the registration index of the subquery
// that produced it, so Order can tie-break stably.
type orderedRecord struct {
	rec        record.Record
	subqueryIx int
}

// Order sorts records by the requested order keys. Records missing a key
// sort after records that have it, regardless of ascending/descending
// direction; ties are broken by subquery registration order, which the
// caller supplies pre-flattened as subqueryIx per record.
func Order(records []record.Record, subqueryIx []int, keys []reqctx.OrderKey) []record.Record {
	if len(keys) == 0 {
		return records
	}
	pairs := make([]orderedRecord, len(records))
	for i, r := range records {
		pairs[i] = orderedRecord{rec: r, subqueryIx: subqueryIx[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		for _, k := range keys {
			vi, oki := pairs[i].rec.Float(fieldForOrderKey(k.Field))
			vj, okj := pairs[j].rec.Float(fieldForOrderKey(k.Field))
			switch {
			case oki && !okj:
				return true
			case !oki && okj:
				return false
			case !oki && !okj:
				continue
			case vi == vj:
				continue
			case k.Desc:
				return vi > vj
			default:
				return vi < vj
			}
		}
		return pairs[i].subqueryIx < pairs[j].subqueryIx
	})
	out := make([]record.Record, len(pairs))
	for i, p := range pairs {
		out[i] = p.rec
	}
	return out
}

func fieldForOrderKey(field string) string {
	switch field {
	case "ageolder":
		return record.KeyAgeOlder
	case "ageyounger":
		return record.KeyAgeYounger
	default:
		return field
	}
}
