package types

// Template is a parameterized, reusable graph fragment. The body is stored
// as raw notation text; instantiation substitutes arguments for parameters
// and re-parses the fragment with the shared parser under a bounded
// expansion depth.
type Template struct {
	Name        string   `json:"name"`
	Params      []string `json:"params"`
	Body        string   `json:"body"`
	Synthesized bool     `json:"synthesized,omitempty"` // hoisted by pattern extraction
}

// Arity returns the declared parameter count.
func (t *Template) Arity() int {
	return len(t.Params)
}

// Clone returns a deep copy.
func (t *Template) Clone() *Template {
	out := *t
	out.Params = append([]string(nil), t.Params...)
	return &out
}

// TemplateUse is an instantiation site. Argument count must match the
// template's declared parameter count exactly; a mismatch is a structural
// error, not a warning.
type TemplateUse struct {
	Name    string   `json:"name"`
	Args    []string `json:"args"`
	Context string   `json:"context,omitempty"` // enclosing context name, if any
}

// Clone returns a deep copy.
func (u *TemplateUse) Clone() *TemplateUse {
	out := *u
	out.Args = append([]string(nil), u.Args...)
	return &out
}
