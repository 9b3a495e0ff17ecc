// Package identifier parses and formats the gateway's external identifier
// format, a domain-prefixed triple that makes a record's origin database
// explicit: "<domain>:<type>:<number>".
package identifier

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Domain names the upstream database an identifier belongs to.
type Domain string

const (
	DomainEmpty      Domain = ""
	DomainPaleo      Domain = "paleo"
	DomainQuaternary Domain = "quaternary"
)

// Type tags the kind of record an identifier names.
type Type string

const (
	TypeEmpty      Type = ""
	TypeOccurrence Type = "occ"
	TypeSite       Type = "sit"
	TypeCollection Type = "col"
	TypeTaxon      Type = "txn"
	TypeDataset    Type = "dst"
	TypeUnknown    Type = "unk"
)

// wireDomain maps a Domain to the prefix used on the wire (§6 "Identifier
// wire format"): paleo -> pbdb, quaternary -> neotoma.
var wireDomain = map[Domain]string{
	DomainPaleo:      "pbdb",
	DomainQuaternary: "neotoma",
}

// domainAliases matches §4.2: domain is matched case-insensitively against a
// closed set of aliases for each upstream.
var domainAliases = map[string]Domain{
	"paleo": DomainPaleo,
	"p":     DomainPaleo,
	"pbdb":  DomainPaleo,

	"quaternary": DomainQuaternary,
	"q":          DomainQuaternary,
	"n":          DomainQuaternary,
	"neotoma":    DomainQuaternary,
}

// ErrUnknownDomain is returned by Parse for a domain that matches none of
// the known aliases.
var ErrUnknownDomain = errors.New("identifier: unknown domain")

// ID is a parsed external identifier: (domain, type, number).
type ID struct {
	Domain Domain
	Type   Type
	Number int64
}

// ParseDomain resolves a domain alias case-insensitively. It returns
// ErrUnknownDomain for anything outside the closed alias set.
func ParseDomain(s string) (Domain, error) {
	d, ok := domainAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return DomainEmpty, fmt.Errorf("%w: %q", ErrUnknownDomain, s)
	}
	return d, nil
}

// Parse accepts the three shapes described in §4.2: a bare positive
// integer, "<domain>:<number>", or "<domain>:<type>:<number>".
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}, errors.New("identifier: empty string")
	}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		n, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || n <= 0 {
			return ID{}, fmt.Errorf("identifier: invalid bare number %q", s)
		}
		return ID{Number: n}, nil

	case 2:
		dom, err := ParseDomain(parts[0])
		if err != nil {
			return ID{}, err
		}
		n, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || n <= 0 {
			return ID{}, fmt.Errorf("identifier: invalid number %q", parts[1])
		}
		return ID{Domain: dom, Number: n}, nil

	case 3:
		dom, err := ParseDomain(parts[0])
		if err != nil {
			return ID{}, err
		}
		typ := Type(strings.ToLower(strings.TrimSpace(parts[1])))
		n, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || n <= 0 {
			return ID{}, fmt.Errorf("identifier: invalid number %q", parts[2])
		}
		return ID{Domain: dom, Type: typ, Number: n}, nil

	default:
		return ID{}, fmt.Errorf("identifier: malformed identifier %q", s)
	}
}

// Format emits the canonical "d:t:n" form using the wire domain name.
func Format(domain Domain, typ Type, number int64) string {
	return fmt.Sprintf("%s:%s:%d", WireDomain(domain), typ, number)
}

// WireDomain returns the on-the-wire domain prefix for a Domain, falling
// back to the internal name if it has no registered wire form.
func WireDomain(d Domain) string {
	if w, ok := wireDomain[d]; ok {
		return w
	}
	return string(d)
}

// String renders the identifier in canonical form.
func (id ID) String() string {
	return Format(id.Domain, id.Type, id.Number)
}
