package toon

import (
	"fmt"
	"strings"
)

// =========================
// Tokens
// =========================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokError
	tokNewline
	tokIndent
	tokDedent
	tokColon
	tokHyphen
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
	tokComma
	tokPipe
	tokTab
	tokString    // quoted string, Text is decoded
	tokText      // bare run between structural characters
	tokWord      // object-context bare word, runs to end of line
	tokArrayWord // array-context bare word, stops at delimiters
)

var tokenNames = [...]string{
	tokEOF:       "end of input",
	tokError:     "error",
	tokNewline:   "newline",
	tokIndent:    "indent",
	tokDedent:    "dedent",
	tokColon:     "':'",
	tokHyphen:    "'-'",
	tokLBracket:  "'['",
	tokRBracket:  "']'",
	tokLBrace:    "'{'",
	tokRBrace:    "'}'",
	tokComma:     "','",
	tokPipe:      "'|'",
	tokTab:       "tab",
	tokString:    "quoted string",
	tokText:      "text",
	tokWord:      "unquoted string",
	tokArrayWord: "unquoted string",
}

func (k tokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// token is a lexical token. SpaceBefore reports whether blanks separated it
// from the previous token on the same line.
type token struct {
	Kind        tokenKind
	Text        string
	Loc         Span
	SpaceBefore bool
}

func (t token) isDelimiter() bool {
	return t.Kind == tokComma || t.Kind == tokPipe || t.Kind == tokTab
}

var punctuation = map[byte]tokenKind{
	':': tokColon,
	'[': tokLBracket,
	']': tokRBracket,
	'{': tokLBrace,
	'}': tokRBrace,
	',': tokComma,
	'|': tokPipe,
}

var escapes = map[byte]byte{
	'"':  '"',
	'\\': '\\',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
}

func isStructural(c byte) bool {
	switch c {
	case ':', '"', '[', ']', '{', '}', ',', '|', '\t':
		return true
	}
	return false
}

// =========================
// Line Tokenizer
// =========================

// lexLine tokenizes the content of one non-blank line. A '-' is a row
// marker only as the first token of a line and only when followed by a
// blank or the end of the line.
func lexLine(ln line) ([]token, error) {
	s := ln.content
	var toks []token
	space := false
	emit := func(kind tokenKind, text string, start, end int) {
		toks = append(toks, token{
			Kind:        kind,
			Text:        text,
			Loc:         Span{Start: ln.pos(start), End: ln.pos(end)},
			SpaceBefore: space,
		})
		space = false
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ':
			space = true
			i++
		case c == '\t':
			emit(tokTab, "\t", i, i+1)
			i++
		case c == '"':
			text, end, err := lexString(ln, i)
			if err != nil {
				return nil, err
			}
			emit(tokString, text, i, end)
			i = end
		case c == '-' && len(toks) == 0 && (i+1 == len(s) || s[i+1] == ' ' || s[i+1] == '\t'):
			emit(tokHyphen, "-", i, i+1)
			for i++; i < len(s) && (s[i] == ' ' || s[i] == '\t'); i++ {
				space = true
			}
		case punctuation[c] != tokEOF:
			emit(punctuation[c], s[i:i+1], i, i+1)
			i++
		default:
			j := i
			for j < len(s) && !isStructural(s[j]) {
				j++
			}
			text := strings.TrimRight(s[i:j], " ")
			emit(tokText, text, i, i+len(text))
			i += len(text)
		}
	}
	return toks, nil
}

// lexString scans a quoted string starting at s[i] == '"' and returns the
// decoded text and the index just past the closing quote.
func lexString(ln line, i int) (string, int, error) {
	s := ln.content
	var b strings.Builder
	for j := i + 1; j < len(s); j++ {
		switch c := s[j]; c {
		case '"':
			return b.String(), j + 1, nil
		case '\\':
			if j+1 >= len(s) {
				return "", 0, lexErrf(ln.pos(i), "unterminated quoted string")
			}
			r, ok := escapes[s[j+1]]
			if !ok {
				return "", 0, lexErrf(ln.pos(j), "invalid escape sequence %q", s[j:j+2])
			}
			b.WriteByte(r)
			j++
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, lexErrf(ln.pos(i), "unterminated quoted string")
}

// =========================
// Bare Words
// =========================

// objectWord joins the tokens of an object-context scalar. Delimiters are
// ordinary text there, so the word is the source text from the first to the
// last token.
func objectWord(src string, toks []token) (token, error) {
	for _, t := range toks {
		if t.Kind != tokText && !t.isDelimiter() {
			return token{}, syntaxErrf(t.Loc.Start, "unexpected %s in unquoted value", t.Kind)
		}
	}
	first, last := toks[0], toks[len(toks)-1]
	w := token{
		Kind:        tokWord,
		Text:        src[first.Loc.Start.Offset:last.Loc.End.Offset],
		Loc:         Span{Start: first.Loc.Start, End: last.Loc.End},
		SpaceBefore: first.SpaceBefore,
	}
	return w, checkWord(w)
}

// arrayWord converts a single text token into an array-context word.
func arrayWord(t token) (token, error) {
	if t.Kind != tokText {
		return token{}, syntaxErrf(t.Loc.Start, "expected value, found %s", t.Kind)
	}
	t.Kind = tokArrayWord
	return t, checkWord(t)
}

func checkWord(t token) error {
	if t.Text == "-" || strings.HasPrefix(t.Text, "- ") || strings.HasPrefix(t.Text, "-\t") {
		return lexErrf(t.Loc.Start, "unquoted string cannot start with a row marker %q", "- ")
	}
	return nil
}

// opensBlock reports whether a line's tokens allow the next line to be
// indented deeper: a trailing ':' or a row marker that starts an object.
func opensBlock(toks []token) bool {
	if len(toks) == 0 {
		return false
	}
	if toks[len(toks)-1].Kind == tokColon {
		return true
	}
	if toks[0].Kind != tokHyphen {
		return false
	}
	if len(toks) == 1 {
		return true
	}
	for _, t := range toks[1:] {
		if t.Kind == tokColon {
			return true
		}
	}
	return false
}

// =========================
// Token Stream
// =========================

// lexer produces the token stream lazily, one line at a time. Each non-blank
// line yields dedent* [indent] content newline; the stream ends with the
// remaining dedents and EOF.
type lexer struct {
	src   string
	lines []line
	next  int
	buf   []token
	opts  Options
	in    *indenter
	prev opening
	done bool
	err  error
}

func newLexer(src string, opts Options) *lexer {
	return &lexer{
		src:   src,
		lines: scanLines(src),
		opts:  opts,
		in:    newIndenter(opts.MaxDepth),
	}
}

// peek returns the k-th buffered token without consuming it.
func (lx *lexer) peek(k int) token {
	for len(lx.buf) <= k && !lx.done {
		lx.scanNext()
	}
	if k < len(lx.buf) {
		return lx.buf[k]
	}
	return lx.buf[len(lx.buf)-1]
}

func (lx *lexer) advance() token {
	t := lx.peek(0)
	if t.Kind != tokEOF && t.Kind != tokError {
		lx.buf = lx.buf[1:]
	}
	return t
}

func (lx *lexer) scanNext() {
	for lx.next < len(lx.lines) && lx.lines[lx.next].blank {
		lx.next++
	}
	if lx.next >= len(lx.lines) {
		end := lx.eofPos()
		at := Span{Start: end, End: end}
		for n := lx.in.finish(); n > 0; n-- {
			lx.buf = append(lx.buf, token{Kind: tokDedent, Loc: at})
		}
		lx.buf = append(lx.buf, token{Kind: tokEOF, Loc: at})
		lx.done = true
		return
	}

	ln := lx.lines[lx.next]
	lx.next++
	if err := ln.measure(lx.opts); err != nil {
		lx.fail(err, ln.start())
		return
	}
	enter, exits, err := lx.in.advance(ln.width, lx.prev, ln.pos(0))
	if err != nil {
		lx.fail(err, ln.pos(0))
		return
	}
	toks, err := lexLine(ln)
	if err != nil {
		lx.fail(err, ln.pos(0))
		return
	}

	at := Span{Start: ln.pos(0), End: ln.pos(0)}
	for ; exits > 0; exits-- {
		lx.buf = append(lx.buf, token{Kind: tokDedent, Loc: at})
	}
	if enter {
		lx.buf = append(lx.buf, token{Kind: tokIndent, Loc: at})
	}
	lx.buf = append(lx.buf, toks...)
	lx.buf = append(lx.buf, token{Kind: tokNewline, Loc: Span{Start: ln.end(), End: ln.end()}})
	lx.prev = openingOf(ln, toks)
}

func openingOf(ln line, toks []token) opening {
	o := opening{block: opensBlock(toks)}
	if len(toks) > 1 && toks[0].Kind == tokHyphen {
		o.rowCol = ln.width + toks[1].Loc.Start.Offset - ln.pos(0).Offset
		o.inline = toks[len(toks)-1].Kind != tokColon
	}
	return o
}

// fail records the first lexical error and ends the stream with an error
// token so the parser stops at it.
func (lx *lexer) fail(err error, pos Pos) {
	lx.err = err
	lx.buf = append(lx.buf, token{Kind: tokError, Loc: Span{Start: pos, End: pos}})
	lx.done = true
}

func (lx *lexer) eofPos() Pos {
	last := lx.lines[len(lx.lines)-1]
	return Pos{Offset: len(lx.src), Line: last.num, Column: len(lx.src) - last.offset + 1}
}
