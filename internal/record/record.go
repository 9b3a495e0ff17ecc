// Package record defines the heterogeneous internal record shape that
// upstream adapters populate and the request transform re-shapes before it
// reaches a client.
package record

// Well-known keys augmented onto every record after adapter normalization,
// on top of whatever source-specific fields the upstream schema carried.
const (
	KeyDatabase   = "database"
	KeyRecordType = "record_type"
	KeyAgeOlder   = "age_older"   // years-before-present, canonical
	KeyAgeYounger = "age_younger" // years-before-present, canonical
	KeyAgeOlderOut = "AgeOlder"   // client-requested unit
	KeyAgeYoungerOut = "AgeYounger"
	KeyLng        = "lng"
	KeyLat        = "lat"
)

// Record is a heterogeneous key/value bag: one upstream's native fields
// plus the unified keys every adapter is responsible for setting before the
// record is considered normalized.
type Record map[string]any

// Clone returns a shallow copy, used when a record needs to be re-emitted
// under a different identifier or unit without mutating the original.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (r Record) SetString(key, v string) { r[key] = v }

func (r Record) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func (r Record) SetFloat(key string, v float64) { r[key] = v }

// Float returns the value at key as a float64 and whether it was present
// and numeric. Upstream-decoded JSON numbers always arrive as float64.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func (r Record) Database() string   { return r.String(KeyDatabase) }
func (r Record) RecordType() string { return r.String(KeyRecordType) }

// AgeOlderYBP and AgeYoungerYBP read the canonical, filtering/ordering unit.
func (r Record) AgeOlderYBP() (float64, bool)   { return r.Float(KeyAgeOlder) }
func (r Record) AgeYoungerYBP() (float64, bool) { return r.Float(KeyAgeYounger) }

// Span returns AgeOlderYBP - AgeYoungerYBP, 0 if either is missing.
func (r Record) Span() float64 {
	older, ok1 := r.AgeOlderYBP()
	younger, ok2 := r.AgeYoungerYBP()
	if !ok1 || !ok2 {
		return 0
	}
	return older - younger
}
