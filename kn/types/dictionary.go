package types

import "sort"

// Dictionary is an immutable full-term → abbreviation table, built once per
// compression run and embedded in the compressed output so decompression is
// self-contained. Construct with NewDictionary; there is no mutation API, so
// a single Dictionary value can be shared across goroutines.
type Dictionary struct {
	version    int
	fullToAbbr map[string]string
	abbrToFull map[string]string
}

// DictEntry is one abbreviation pair for iteration and serialization.
type DictEntry struct {
	Abbr string `json:"abbr"`
	Full string `json:"full"`
}

// NewDictionary builds a dictionary from a full-term → abbreviation map.
// When two terms claim the same abbreviation, the longest full term keeps
// it and the others are dropped, so the table stays bijective and the entry
// that saves the most survives. Length ties break lexicographically.
func NewDictionary(version int, fullToAbbr map[string]string) *Dictionary {
	d := &Dictionary{
		version:    version,
		fullToAbbr: make(map[string]string, len(fullToAbbr)),
		abbrToFull: make(map[string]string, len(fullToAbbr)),
	}
	fulls := make([]string, 0, len(fullToAbbr))
	for full := range fullToAbbr {
		fulls = append(fulls, full)
	}
	sort.Slice(fulls, func(i, j int) bool {
		if len(fulls[i]) != len(fulls[j]) {
			return len(fulls[i]) > len(fulls[j])
		}
		return fulls[i] < fulls[j]
	})
	for _, full := range fulls {
		abbr := fullToAbbr[full]
		if _, taken := d.abbrToFull[abbr]; taken {
			continue
		}
		d.fullToAbbr[full] = abbr
		d.abbrToFull[abbr] = full
	}
	return d
}

// Version returns the dictionary format version.
func (d *Dictionary) Version() int { return d.version }

// Len returns the number of entries.
func (d *Dictionary) Len() int { return len(d.abbrToFull) }

// Abbreviate returns the abbreviation for a full term.
func (d *Dictionary) Abbreviate(full string) (string, bool) {
	abbr, ok := d.fullToAbbr[full]
	return abbr, ok
}

// Expand returns the full term for an abbreviation.
func (d *Dictionary) Expand(abbr string) (string, bool) {
	full, ok := d.abbrToFull[abbr]
	return full, ok
}

// Entries returns all pairs sorted by abbreviation, for deterministic
// rendering.
func (d *Dictionary) Entries() []DictEntry {
	out := make([]DictEntry, 0, len(d.abbrToFull))
	for abbr, full := range d.abbrToFull {
		out = append(out, DictEntry{Abbr: abbr, Full: full})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Abbr < out[j].Abbr })
	return out
}
