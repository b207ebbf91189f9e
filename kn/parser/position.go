package parser

// Position is a line/column position in source text.
// Uses LSP conventions: 1-based line numbers, 0-based character offsets.
type Position struct {
	Line      int `json:"line"`      // 1-based line number
	Character int `json:"character"` // 0-based character offset within line
	Offset    int `json:"offset"`    // 0-based byte offset in entire source
}

// Range is a source span from start to end position.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// PositionTracker maintains line/column/offset state during tokenization.
// The scanner advances it for every consumed byte so each token carries an
// accurate source range.
type PositionTracker struct {
	source    string
	line      int // 1-based
	character int // 0-based within line
	offset    int // 0-based in source
}

// NewPositionTracker creates a tracker starting at the beginning of source.
func NewPositionTracker(source string) *PositionTracker {
	return &PositionTracker{source: source, line: 1}
}

// Offset returns the current byte offset.
func (pt *PositionTracker) Offset() int {
	return pt.offset
}

// AtEnd reports whether the whole source has been consumed.
func (pt *PositionTracker) AtEnd() bool {
	return pt.offset >= len(pt.source)
}

// AdvanceBytes advances by n bytes, updating line/column on newlines.
func (pt *PositionTracker) AdvanceBytes(n int) {
	for i := 0; i < n && pt.offset < len(pt.source); i++ {
		if pt.source[pt.offset] == '\n' {
			pt.line++
			pt.character = 0
		} else {
			pt.character++
		}
		pt.offset++
	}
}

// Mark returns the current position snapshot.
func (pt *PositionTracker) Mark() Position {
	return Position{Line: pt.line, Character: pt.character, Offset: pt.offset}
}

// RangeFrom creates a range from a marked start to the current position.
func (pt *PositionTracker) RangeFrom(start Position) Range {
	return Range{Start: start, End: pt.Mark()}
}
