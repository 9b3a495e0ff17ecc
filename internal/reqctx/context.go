// Package reqctx holds the normalized, immutable-after-parse bundle a
// composite request is built from. It is populated once by the request
// transform and thereafter read-only to subqueries and adapters — mirroring
// the non-owning request-context reference the composite driver carries.
package reqctx

import (
	"sync"

	"github.com/arourke/paleofed/internal/identifier"
)

// Vocab names which field-name scheme a response is rendered under.
type Vocab string

const (
	VocabNeotoma Vocab = "neotoma"
	VocabPBDB    Vocab = "pbdb"
	VocabCommon  Vocab = "com"
	VocabDwC     Vocab = "dwc"
)

// TimeRule is the policy comparing a record's age range to the request
// window.
type TimeRule string

const (
	RuleContain TimeRule = "contain"
	RuleMajor   TimeRule = "major"
	RuleBuffer  TimeRule = "buffer"
	RuleOverlap TimeRule = "overlap"
)

// AgeUnit is the unit ages are expressed in on the wire, in either
// direction: parsing the request, and rendering the response.
type AgeUnit string

const (
	UnitMa  AgeUnit = "ma"
	UnitYBP AgeUnit = "ybp"
)

// BBox is a client-supplied bounding box, west/south/east/north.
type BBox struct {
	West, South, East, North float64
}

// OrderKey is one entry of the comma-separated `order` parameter.
type OrderKey struct {
	Field string // "ageolder" | "ageyounger"
	Desc  bool
}

// Context is the normalized, read-only-after-construction request bundle
// described as the "Request context" in the data model: one per inbound
// composite request, shared by every subquery it spawns.
type Context struct {
	Format  string // json|csv|tsv|txt
	Vocab   Vocab
	AgeUnit AgeUnit

	HasMin, HasMax     bool
	MinYBP, MaxYBP     float64
	Rule               TimeRule
	HasBuffer          bool
	OldBufferYBP       float64
	YoungBufferYBP     float64

	BBox *BBox

	TaxonName, BaseName, MatchName string
	Identifiers                    map[string][]identifier.ID // keyed by query param: occ_id, site_id, base_id, taxon_id

	Upstreams map[identifier.Domain]bool

	Order []OrderKey
	Show  []string

	// Passthrough carries parameters the core does not interpret but still
	// forwards verbatim to upstream adapters (limit, offset, count, ...).
	Passthrough map[string][]string

	warnMu   sync.Mutex
	warnings []string
}

// New returns an empty Context with its maps initialized.
func New() *Context {
	return &Context{
		Identifiers: map[string][]identifier.ID{},
		Upstreams:   map[identifier.Domain]bool{},
		Passthrough: map[string][]string{},
	}
}

// AddWarning records a non-fatal classification or parse problem against
// the request, e.g. an ambiguous empty-domain identifier. Safe for
// concurrent use since identifier classification can happen from more than
// one subquery's adapter.
func (c *Context) AddWarning(msg string) {
	c.warnMu.Lock()
	c.warnings = append(c.warnings, msg)
	c.warnMu.Unlock()
}

// Warnings returns every warning recorded so far, in the order added.
func (c *Context) Warnings() []string {
	c.warnMu.Lock()
	defer c.warnMu.Unlock()
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// UpstreamEnabled reports whether d is among the request's selected
// upstreams. An empty Upstreams set means "all upstreams".
func (c *Context) UpstreamEnabled(d identifier.Domain) bool {
	if len(c.Upstreams) == 0 {
		return true
	}
	return c.Upstreams[d]
}

// SingleEnabledUpstream returns the one enabled upstream domain when exactly
// one is selected, used to resolve identifiers with an empty domain.
func (c *Context) SingleEnabledUpstream() (identifier.Domain, bool) {
	if len(c.Upstreams) != 1 {
		return identifier.DomainEmpty, false
	}
	for d := range c.Upstreams {
		return d, true
	}
	return identifier.DomainEmpty, false
}
