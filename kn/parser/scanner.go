package parser

import (
	"strconv"
	"strings"

	"github.com/knotlang/knot/sym"
)

// Scanner tokenizes notation text in a single left-to-right pass with
// bounded lookahead. It never aborts on a bad token: unrecognized input
// produces a lexical diagnostic and scanning resumes at the next plausible
// delimiter, so one malformed construct cannot hide later errors.
type Scanner struct {
	src   string
	pt    *PositionTracker
	diags Diagnostics
}

// NewScanner creates a scanner over source text.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src, pt: NewPositionTracker(src)}
}

// Scan tokenizes src and returns the token stream plus accumulated lexical
// diagnostics.
func Scan(src string) ([]Token, Diagnostics) {
	return NewScanner(src).Scan()
}

// Scan runs the scanner to the end of input.
func (s *Scanner) Scan() ([]Token, Diagnostics) {
	var tokens []Token
	for {
		s.skipWhitespace()
		if s.pt.AtEnd() {
			break
		}
		start := s.pt.Mark()
		var (
			tok Token
			ok  bool
		)
		switch c := s.peek(0); {
		case c == '@':
			tok, ok = s.scanEntity()
		case c == '#':
			tok, ok = s.scanReference()
		case c == ':':
			tok, ok = s.scanSuffixBlock()
		case c == '^':
			tok, ok = s.scanInherit()
		case c == '[':
			tok, ok = s.scanContext()
		case c == 'q' && (s.peek(1) == ':' || s.peek(1) == '{'):
			tok, ok = s.scanQuantum()
		case c == '$':
			tok, ok = s.scanDirective()
		case c == '%':
			tok, ok = s.scanTemplate()
		case c == '(':
			tok, ok = s.scanRefList()
		default:
			tok, ok = s.scanOperator()
		}
		if !ok {
			s.recover(start)
			continue
		}
		tok.Range = s.pt.RangeFrom(start)
		tok.Text = s.src[start.Offset:tok.Range.End.Offset]
		tokens = append(tokens, tok)
	}
	return tokens, s.diags
}

func (s *Scanner) peek(ahead int) byte {
	i := s.pt.Offset() + ahead
	if i >= len(s.src) {
		return 0
	}
	return s.src[i]
}

func (s *Scanner) advance(n int) {
	s.pt.AdvanceBytes(n)
}

func (s *Scanner) skipWhitespace() {
	for !s.pt.AtEnd() {
		switch s.peek(0) {
		case ' ', '\t', '\r', '\n':
			s.advance(1)
		default:
			return
		}
	}
}

// isIdentByte reports whether c continues an identifier. '-' is accepted
// only when it does not begin a relationship operator, so `#a->#b` splits
// correctly while `anon-1f2e` stays one token.
func (s *Scanner) isIdentByte(ahead int) bool {
	c := s.peek(ahead)
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '.':
		return true
	case c == '-':
		next := s.peek(ahead + 1)
		return next != '>' && next != '-'
	}
	return false
}

func (s *Scanner) scanIdent() string {
	start := s.pt.Offset()
	for s.isIdentByte(0) {
		s.advance(1)
	}
	return s.src[start:s.pt.Offset()]
}

// scanDelimited consumes a balanced open..close block, honoring nesting and
// double-quoted strings, and returns the inner body. On unterminated input
// (truncated stream) it consumes the rest, reports a lexical diagnostic, and
// still returns the partial body so recovery has something to work with.
func (s *Scanner) scanDelimited(open, close byte) (string, bool) {
	if s.peek(0) != open {
		return "", false
	}
	start := s.pt.Mark()
	s.advance(1)
	bodyStart := s.pt.Offset()
	depth := 1
	inString := false
	for !s.pt.AtEnd() {
		c := s.peek(0)
		switch {
		case inString:
			if c == '\\' {
				s.advance(1)
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == open && open != close:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				body := s.src[bodyStart:s.pt.Offset()]
				s.advance(1)
				return body, true
			}
		}
		s.advance(1)
	}
	s.diags = append(s.diags, NewDiagnostic(KindLexical,
		"unterminated %q block", string(open)).
		WithRange(s.pt.RangeFrom(start)).
		WithSuggestion("add a closing %q; the stream may be truncated", string(close)))
	return s.src[bodyStart:s.pt.Offset()], true
}

func (s *Scanner) scanEntity() (Token, bool) {
	s.advance(1) // @
	typ := s.scanIdent()
	if typ == "" {
		s.lexError("@", "entity sigil '@' without a type tag").
			WithSuggestion("write @type or @type{id}")
		return Token{}, false
	}
	tok := Token{Kind: TokenEntity, Name: typ, Anonymous: true}
	if s.peek(0) == '{' {
		body, _ := s.scanDelimited('{', '}')
		id := strings.TrimSpace(body)
		if id != "" {
			tok.ID = id
			tok.Anonymous = false
		}
	}
	return tok, true
}

func (s *Scanner) scanReference() (Token, bool) {
	s.advance(1) // #
	id := s.scanIdent()
	if id == "" {
		s.lexError("#", "reference sigil '#' without an id").
			WithSuggestion("did you mean #id?")
		return Token{}, false
	}
	return Token{Kind: TokenReference, ID: id}, true
}

func (s *Scanner) scanSuffixBlock() (Token, bool) {
	kind := s.peek(1)
	if (kind != 'p' && kind != 't') || s.peek(2) != '{' {
		s.lexError(":", "':' must begin a :p{...} or :t{...} block").
			WithSuggestion("did you mean :p{key:value} or :t{tag}?")
		return Token{}, false
	}
	s.advance(2) // :p or :t
	body, _ := s.scanDelimited('{', '}')
	if kind == 'p' {
		return Token{Kind: TokenPropertyBlock, Body: body}, true
	}
	return Token{Kind: TokenTagBlock, Body: body}, true
}

func (s *Scanner) scanInherit() (Token, bool) {
	s.advance(1) // ^
	first := s.scanIdent()
	if first == "" {
		s.lexError("^", "inheritance marker '^' without a parent id").
			WithSuggestion("write ^parent after the entity declaration")
		return Token{}, false
	}
	tok := Token{Kind: TokenInherit, Args: []string{first}}
	for {
		switch s.peek(0) {
		case '+':
			s.advance(1)
			p := s.scanIdent()
			if p == "" {
				s.lexError("+", "'+' in inheritance list without a parent id")
				return tok, true
			}
			tok.Args = append(tok.Args, p)
		case '\\':
			s.advance(1)
			x := s.scanIdent()
			if x == "" {
				s.lexError("\\", "'\\' in inheritance list without an exception key")
				return tok, true
			}
			tok.Exceptions = append(tok.Exceptions, x)
		default:
			return tok, true
		}
	}
}

func (s *Scanner) scanContext() (Token, bool) {
	name, ok := s.scanDelimited('[', ']')
	if !ok {
		return Token{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		s.lexError("[]", "context block with empty name").
			WithSuggestion("write [name]{...}")
		return Token{}, false
	}
	if s.peek(0) != '{' {
		s.lexError("["+name+"]", "context [%s] without a body", name).
			WithSuggestion("write [%s]{...}", name)
		return Token{}, false
	}
	body, _ := s.scanDelimited('{', '}')
	return Token{Kind: TokenContext, Name: name, Body: body}, true
}

func (s *Scanner) scanQuantum() (Token, bool) {
	s.advance(1) // q
	tok := Token{Kind: TokenQuantum}
	if s.peek(0) == ':' {
		s.advance(1)
		tok.QuantKind = s.scanIdent()
	}
	if s.peek(0) != '{' {
		s.lexError("q", "quantum partition without a {label}").
			WithSuggestion("write q:%s{label}[...]", tok.QuantKind)
		return Token{}, false
	}
	label, _ := s.scanDelimited('{', '}')
	tok.Name = strings.TrimSpace(label)
	if s.peek(0) == '(' {
		raw, _ := s.scanDelimited('(', ')')
		w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			s.lexError(raw, "invalid partition weight %q", raw).
				WithSuggestion("weight must be a number, e.g. q{%s}(0.8)", tok.Name)
		} else {
			tok.Weight = &w
		}
	}
	if s.peek(0) == '[' {
		body, _ := s.scanDelimited('[', ']')
		for _, m := range splitTopLevel(body, ',') {
			m = strings.TrimSpace(m)
			if m == "" {
				continue
			}
			tok.Members = append(tok.Members, strings.TrimPrefix(m, "#"))
		}
	}
	return tok, true
}

func (s *Scanner) scanDirective() (Token, bool) {
	s.advance(1) // $
	name := s.scanIdent()
	if name == "" {
		s.lexError("$", "directive sigil '$' without a name").
			WithSuggestion("write $%s{...} or $%s{...}", sym.DirectiveCompress, sym.DirectivePreserve)
		return Token{}, false
	}
	if s.peek(0) != '{' {
		s.lexError("$"+name, "directive $%s without a body", name).
			WithSuggestion("write $%s{...}", name)
		return Token{}, false
	}
	body, _ := s.scanDelimited('{', '}')
	return Token{Kind: TokenDirective, Name: name, Body: body}, true
}

func (s *Scanner) scanTemplate() (Token, bool) {
	s.advance(1) // %
	name := s.scanIdent()
	if name == "" {
		s.lexError("%", "template sigil '%%' without a name").
			WithSuggestion("write %%name(params){...} to define or %%name(args) to use")
		return Token{}, false
	}
	if s.peek(0) != '(' {
		s.lexError("%"+name, "template %%%s without an argument list", name).
			WithSuggestion("write %%%s(...)", name)
		return Token{}, false
	}
	raw, _ := s.scanDelimited('(', ')')
	var args []string
	for _, a := range splitTopLevel(raw, ',') {
		if a = strings.TrimSpace(a); a != "" {
			args = append(args, a)
		}
	}
	// A body brace after the argument list makes this a definition.
	ws := 0
	for s.peek(ws) == ' ' || s.peek(ws) == '\t' {
		ws++
	}
	if s.peek(ws) == '{' {
		s.advance(ws)
		body, _ := s.scanDelimited('{', '}')
		return Token{Kind: TokenTemplateDef, Name: name, Args: args, Body: body}, true
	}
	return Token{Kind: TokenTemplateUse, Name: name, Args: args}, true
}

func (s *Scanner) scanRefList() (Token, bool) {
	body, ok := s.scanDelimited('(', ')')
	if !ok {
		return Token{}, false
	}
	tok := Token{Kind: TokenRefList}
	for _, part := range splitTopLevel(body, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, "#") {
			s.lexError(part, "reference list element %q is not a reference", part).
				WithSuggestion("did you mean #%s?", part)
			continue
		}
		tok.Args = append(tok.Args, part[1:])
	}
	return tok, true
}

func (s *Scanner) scanOperator() (Token, bool) {
	rest := s.src[s.pt.Offset():]
	if strings.HasPrefix(rest, sym.OpPartitionRel) {
		s.advance(len(sym.OpPartitionRel))
		return Token{Kind: TokenPartitionRel, Name: sym.OpPartitionRel}, true
	}
	for _, glyph := range sym.RelationOperators {
		if strings.HasPrefix(rest, glyph) {
			s.advance(len(glyph))
			return Token{Kind: TokenRelOp, Name: glyph}, true
		}
	}
	return Token{}, false
}

// lexError records a lexical diagnostic at the current position.
func (s *Scanner) lexError(tok string, format string, args ...interface{}) *Diagnostic {
	d := NewDiagnostic(KindLexical, format, args...).
		WithToken(tok).
		WithRange(Range{Start: s.pt.Mark(), End: s.pt.Mark()})
	s.diags = append(s.diags, d)
	return d
}

// recover skips past an unrecognized sequence to the next plausible
// delimiter and records what was skipped.
func (s *Scanner) recover(start Position) {
	for !s.pt.AtEnd() {
		switch s.peek(0) {
		case '@', '#', '[', '$', '%', '(', ' ', '\t', '\r', '\n':
			goto done
		}
		s.advance(1)
	}
done:
	if s.pt.Offset() > start.Offset {
		skipped := s.src[start.Offset:s.pt.Offset()]
		s.diags = append(s.diags, NewDiagnostic(KindLexical,
			"unrecognized token %q", skipped).
			WithToken(skipped).
			WithRange(s.pt.RangeFrom(start)).
			WithSuggestion("did you mean @%s or #%s?", skipped, skipped))
	} else if !s.pt.AtEnd() {
		// Delimiter character that still failed its own scan; skip one byte
		// so progress is guaranteed.
		s.advance(1)
	}
}

// splitTopLevel splits s on sep, ignoring separators nested inside braces,
// brackets, parens, or double-quoted strings.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	inString := false
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{' || c == '[' || c == '(':
			depth++
		case c == '}' || c == ']' || c == ')':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[last:i])
			last = i + 1
		}
	}
	parts = append(parts, s[last:])
	return parts
}
