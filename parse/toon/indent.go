package toon

import (
	"strings"
)

// =========================
// Line Scanning
// =========================

// line is one physical source line after indentation has been measured.
type line struct {
	num     int    // 1-based line number
	offset  int    // byte offset of the first byte of the line
	text    string // raw line without its terminator
	prefix  int    // byte length of the indentation
	width   int    // indentation width in columns
	content string // text after the indentation, trailing blanks removed
	blank   bool
}

// pos returns the position of byte i of the line content.
func (l line) pos(i int) Pos {
	col := l.prefix + i
	return Pos{Offset: l.offset + col, Line: l.num, Column: col + 1}
}

func (l line) start() Pos { return Pos{Offset: l.offset, Line: l.num, Column: 1} }

func (l line) end() Pos { return l.pos(len(l.content)) }

// scanLines splits src into lines. A trailing '\r' is treated as part of
// the line terminator.
func scanLines(src string) []line {
	var lines []line
	offset := 0
	for num := 1; offset <= len(src); num++ {
		text := src[offset:]
		next := len(src) + 1
		if end := strings.IndexByte(text, '\n'); end >= 0 {
			text = text[:end]
			next = offset + end + 1
		}
		text = strings.TrimSuffix(text, "\r")
		lines = append(lines, line{
			num:    num,
			offset: offset,
			text:   text,
			blank:  strings.TrimSpace(text) == "",
		})
		offset = next
	}
	return lines
}

// measure computes the indentation width and content of a non-blank line.
func (l *line) measure(opts Options) error {
	i, width := 0, 0
	for ; l.text[i] == ' ' || l.text[i] == '\t'; i++ {
		if l.text[i] == ' ' {
			width++
			continue
		}
		if !opts.AllowTabs {
			return indentErrf(Pos{Offset: l.offset + i, Line: l.num, Column: i + 1},
				"tab character in indentation")
		}
		width = (width/opts.TabWidth + 1) * opts.TabWidth
	}
	l.prefix = i
	l.width = width
	l.content = strings.TrimRight(l.text[i:], " \t")
	return nil
}

// =========================
// Indentation Stack
// =========================

// indenter tracks the widths of the open blocks. The bottom entry is 0.
//
// A list row such as `- key:` has an implied level at the column of its first
// key: its sibling fields live there while the nested value of the first key
// sits deeper. That level is pushed without a token and only becomes a real
// block when a later line dedents onto it.
type indenter struct {
	stack    []level
	maxDepth int
}

type level struct {
	width   int
	implied bool
}

func newIndenter(maxDepth int) *indenter {
	return &indenter{stack: []level{{}}, maxDepth: maxDepth}
}

func (in *indenter) top() int { return in.stack[len(in.stack)-1].width }

func (in *indenter) depth() int { return len(in.stack) - 1 }

func (in *indenter) push(width int, implied bool, pos Pos) error {
	if in.depth() >= in.maxDepth {
		return errorf(errorKinds.ResourceLimit, pos, "nesting deeper than %d levels", in.maxDepth)
	}
	in.stack = append(in.stack, level{width: width, implied: implied})
	return nil
}

// opening describes what the previous line allows the next one to do.
type opening struct {
	block  bool // the line expects a nested block
	rowCol int  // column of the first key of a list row, 0 if none
	inline bool // the row's first field has its value on the row line
}

// advance moves to a line of the given width. It returns whether a block was
// entered and how many blocks were exited.
func (in *indenter) advance(width int, prev opening, pos Pos) (bool, int, error) {
	top := in.top()
	switch {
	case width > top:
		if !prev.block {
			return false, 0, indentErrf(pos, "unexpected indent to width %d (block is at %d)", width, top)
		}
		if prev.rowCol > top && prev.inline && width != prev.rowCol {
			return false, 0, indentErrf(pos,
				"fields of a list item must align with its first key at width %d, got %d", prev.rowCol, width)
		}
		if prev.rowCol > top && width > prev.rowCol {
			if err := in.push(prev.rowCol, true, pos); err != nil {
				return false, 0, err
			}
		}
		if err := in.push(width, false, pos); err != nil {
			return false, 0, err
		}
		return true, 0, nil
	case width < top:
		exits := 0
		for in.top() > width {
			if !in.stack[len(in.stack)-1].implied {
				exits++
			}
			in.stack = in.stack[:len(in.stack)-1]
		}
		if in.top() != width {
			return false, 0, indentErrf(pos,
				"dedent to width %d does not match any enclosing block (nearest is %d)", width, in.top())
		}
		if last := &in.stack[len(in.stack)-1]; last.implied {
			last.implied = false
			return true, exits, nil
		}
		return false, exits, nil
	}
	return false, 0, nil
}

// finish pops every open block and returns how many were exited.
func (in *indenter) finish() int {
	exits := 0
	for _, l := range in.stack[1:] {
		if !l.implied {
			exits++
		}
	}
	in.stack = in.stack[:1]
	return exits
}
