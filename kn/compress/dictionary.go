package compress

import (
	"sort"
	"strings"

	"github.com/knotlang/knot/kn/types"
)

// dictionaryStrategy frequency-counts entity types, ids, property keys and
// values, and tags, and replaces every term that clears the occurrence
// threshold while paying for its own table entry. The table is embedded so
// decompression is self-contained.
type dictionaryStrategy struct{}

func (dictionaryStrategy) Stage() types.ExpandStage { return types.StageDictionary }

func (dictionaryStrategy) Apply(doc *types.Document, opts Options) ([]string, bool) {
	if doc.Dict != nil {
		return nil, false
	}

	counts := make(map[string]int)
	reserved := make(map[string]bool)
	bump := func(term string) {
		if term == "" {
			return
		}
		counts[term]++
		reserved[term] = true
	}
	reserve := func(term string) {
		if term != "" {
			reserved[term] = true
		}
	}
	countProps := func(props types.Properties) {
		for _, p := range props {
			bump(p.Key)
			switch p.Val.Kind {
			case types.ValueIdent, types.ValueString:
				bump(p.Val.Str)
			}
		}
	}
	for _, id := range doc.Order {
		e := doc.Entities[id]
		if doc.IsPreserved(e.ID) {
			// Preserved entities are exempt from rewrites: their terms
			// contribute no rewritable occurrences, but they still block
			// colliding abbreviations.
			reserve(e.Type)
			reserve(e.ID)
			for _, p := range e.Props {
				reserve(p.Key)
				reserve(p.Val.Str)
			}
			for _, t := range e.Tags {
				reserve(t)
			}
			continue
		}
		bump(e.Type)
		if !e.Anonymous {
			bump(e.ID)
		}
		countProps(e.Props)
		for _, t := range e.Tags {
			bump(t)
		}
	}
	for _, r := range doc.Relationships {
		countProps(r.Props)
	}

	type candidate struct {
		term    string
		count   int
		savings int
	}
	var cands []candidate
	for term, count := range counts {
		if count < opts.MinOccurrences {
			continue
		}
		abbr := abbreviate(term)
		// Net saving accounts for the term's own dictionary entry.
		savings := (len(term)-len(abbr))*count - (len(term) + len(abbr) + 2)
		if savings < 1 {
			continue
		}
		cands = append(cands, candidate{term: term, count: count, savings: savings})
	}
	// Deterministic admission order: highest savings, then shortest original
	// term, then lexicographic.
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.savings != b.savings {
			return a.savings > b.savings
		}
		if len(a.term) != len(b.term) {
			return len(a.term) < len(b.term)
		}
		return a.term < b.term
	})

	fullToAbbr := make(map[string]string, len(cands))
	taken := make(map[string]bool)
	for _, c := range cands {
		abbr := uniqueAbbr(c.term, func(a string) bool {
			return !taken[a] && !reserved[a] && len(a) < len(c.term)
		})
		if abbr == "" {
			continue
		}
		fullToAbbr[c.term] = abbr
		taken[abbr] = true
	}
	if len(fullToAbbr) == 0 {
		return nil, false
	}

	dict := types.NewDictionary(1, fullToAbbr)
	abbreviateTerms(doc, dict)
	doc.Dict = dict
	return nil, true
}

// abbreviateTerms rewrites every occurrence of a dictionary term to its
// abbreviation. Id renames run last, through the shared rename helper, so
// all references follow.
func abbreviateTerms(doc *types.Document, dict *types.Dictionary) {
	shortenProps := func(props types.Properties) {
		for i, p := range props {
			if abbr, ok := dict.Abbreviate(p.Key); ok {
				props[i].Key = abbr
			}
			v := p.Val
			if v.Kind == types.ValueIdent || v.Kind == types.ValueString {
				if abbr, ok := dict.Abbreviate(v.Str); ok {
					props[i].Val.Str = abbr
				}
			}
		}
	}
	for _, id := range doc.Order {
		e := doc.Entities[id]
		if doc.IsPreserved(e.ID) {
			continue
		}
		if abbr, ok := dict.Abbreviate(e.Type); ok {
			e.Type = abbr
		}
		shortenProps(e.Props)
		for _, tag := range append([]string(nil), e.Tags...) {
			if abbr, ok := dict.Abbreviate(tag); ok {
				e.RemoveTag(tag)
				e.AddTag(abbr)
			}
		}
	}
	for _, r := range doc.Relationships {
		shortenProps(r.Props)
	}
	for _, id := range append([]string(nil), doc.Order...) {
		if doc.IsPreserved(id) {
			continue
		}
		if abbr, ok := dict.Abbreviate(id); ok {
			doc.RenameEntity(id, abbr)
		}
	}
}

// abbreviate derives the preferred short form of a term: initials of its
// underscore- or hyphen-separated words, so knowledge_representation
// becomes kr and domain becomes d.
func abbreviate(term string) string {
	words := strings.FieldsFunc(term, func(r rune) bool { return r == '_' || r == '-' })
	if len(words) == 0 {
		return term
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteByte(w[0])
	}
	return b.String()
}

// uniqueAbbr extends the preferred abbreviation until it is both free and
// still shorter than the original: first by taking more characters of the
// first word, then with a numeric suffix.
func uniqueAbbr(term string, free func(string) bool) string {
	base := abbreviate(term)
	if free(base) {
		return base
	}
	words := strings.FieldsFunc(term, func(r rune) bool { return r == '_' || r == '-' })
	for n := 2; len(words) > 0 && n <= len(words[0]); n++ {
		ext := words[0][:n] + base[1:]
		if free(ext) {
			return ext
		}
	}
	for n := 2; n < 10; n++ {
		ext := base + string(rune('0'+n))
		if free(ext) {
			return ext
		}
	}
	return ""
}
