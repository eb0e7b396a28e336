// Package refdb loads the two reference tables used for typing: the
// locus→schemes index and the per-scheme allele profiles.
package refdb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"mlst/internal/typing"
)

// ErrBadTable is wrapped by every reference decoding failure.
var ErrBadTable = errors.New("malformed reference table")

// Scheme is one typing scheme.
type Scheme struct {
	Loci     []string
	Profiles map[string]typing.Profile
}

// Tables implements typing.Reference over the decoded tables.
type Tables struct {
	LocusSchemes map[string][]string
	Schemes      map[string]Scheme
}

var _ typing.Reference = (*Tables)(nil)

// New joins the two decoded tables.
func New(locusSchemes map[string][]string, schemes map[string]Scheme) *Tables {
	return &Tables{LocusSchemes: locusSchemes, Schemes: schemes}
}

func (t *Tables) SchemesFor(locus string) ([]string, bool) {
	s, ok := t.LocusSchemes[locus]
	return s, ok
}

func (t *Tables) LocusCount(scheme string) (int, bool) {
	s, ok := t.Schemes[scheme]
	if !ok {
		return 0, false
	}
	return len(s.Loci), true
}

func (t *Tables) Profile(scheme, key string) (typing.Profile, bool) {
	s, ok := t.Schemes[scheme]
	if !ok {
		return typing.Profile{}, false
	}
	p, ok := s.Profiles[key]
	return p, ok
}

// ReadLocusSchemes decodes {"locus": ["scheme", ...], ...}. Duplicate scheme
// names under one locus are dropped, first occurrence wins.
func ReadLocusSchemes(r io.Reader, name string) (map[string][]string, error) {
	var raw map[string][]string
	if err := decode(r, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out := make(map[string][]string, len(raw))
	for locus, schemes := range raw {
		locus = typing.NormalizeID(locus)
		seen := map[string]bool{}
		for _, s := range out[locus] {
			seen[s] = true
		}
		for _, s := range schemes {
			s = typing.NormalizeID(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out[locus] = append(out[locus], s)
		}
		if _, ok := out[locus]; !ok {
			out[locus] = nil
		}
	}
	return out, nil
}

type rawScheme struct {
	Loci    []string              `json:"locuses"`
	Alleles map[string]rawProfile `json:"alleles"`
}

type rawProfile struct {
	ST            flexString `json:"st"`
	ClonalComplex flexString `json:"clonal_complex"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("want string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// ReadSchemeProfiles decodes
//
//	{"scheme": {"locuses": [...], "alleles": {"l1@a1|l2@a2": {"st": "1", "clonal_complex": "CC1"}}}}
func ReadSchemeProfiles(r io.Reader, name string) (map[string]Scheme, error) {
	var raw map[string]rawScheme
	if err := decode(r, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out := make(map[string]Scheme, len(raw))
	for id, rs := range raw {
		if len(rs.Loci) == 0 {
			return nil, fmt.Errorf("%s: %w: scheme %q lists no loci", name, ErrBadTable, id)
		}
		s := Scheme{
			Loci:     make([]string, len(rs.Loci)),
			Profiles: make(map[string]typing.Profile, len(rs.Alleles)),
		}
		for i, l := range rs.Loci {
			s.Loci[i] = typing.NormalizeID(l)
		}
		for key, p := range rs.Alleles {
			s.Profiles[normalizeKey(key)] = typing.Profile{
				ST:            strings.TrimSpace(string(p.ST)),
				ClonalComplex: strings.TrimSpace(string(p.ClonalComplex)),
			}
		}
		out[typing.NormalizeID(id)] = s
	}
	return out, nil
}

func normalizeKey(key string) string {
	parts := strings.Split(key, "|")
	for i, p := range parts {
		parts[i] = typing.NormalizeID(p)
	}
	return strings.Join(parts, "|")
}

func decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadTable, err)
	}
	return nil
}
