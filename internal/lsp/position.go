package lsp

import (
	"math"
	"strings"
	"unicode/utf16"

	"fortio.org/safecast"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// toUInteger converts a non-negative int to an LSP unsigned integer,
// saturating instead of wrapping.
func toUInteger(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		if n < 0 {
			return 0
		}
		return math.MaxUint32
	}
	return v
}

// position builds an LSP position from a 0-based line and UTF-16 column.
func position(line, character int) protocol.Position {
	return protocol.Position{
		Line:      toUInteger(line),
		Character: toUInteger(character),
	}
}

// utf16Len is the length of s in UTF-16 code units, the unit LSP columns are
// counted in.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// byteOffset converts a UTF-16 column on line to a byte offset, clamped to
// the line length.
func byteOffset(line string, character uint32) int {
	col := 0
	for i, r := range line {
		if uint32(col) >= character {
			return i
		}
		l := utf16.RuneLen(r)
		if l < 1 {
			l = 1
		}
		col += l
	}
	return len(line)
}

// splitLines splits content into lines, preserving empty trailing lines.
// Carriage returns before the newline are dropped.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// spanRange is the range of line[start:end] on line idx, with byte offsets
// converted to UTF-16 columns.
func spanRange(idx int, line string, start, end int) protocol.Range {
	return protocol.Range{
		Start: position(idx, utf16Len(line[:start])),
		End:   position(idx, utf16Len(line[:end])),
	}
}

// lineRange covers the text of line idx, excluding indentation.
func lineRange(idx int, line string) protocol.Range {
	start := len(line) - len(strings.TrimLeft(line, " \t"))
	end := len(strings.TrimRight(line, " \t"))
	if end < start {
		end = start
	}
	return spanRange(idx, line, start, end)
}

// posInRange returns true if pos is within the range [r.Start, r.End).
// The end position is exclusive.
func posInRange(pos protocol.Position, r protocol.Range) bool {
	if pos.Line < r.Start.Line || pos.Line > r.End.Line {
		return false
	}
	if pos.Line == r.Start.Line && pos.Character < r.Start.Character {
		return false
	}
	if pos.Line == r.End.Line && pos.Character >= r.End.Character {
		return false
	}
	return true
}
