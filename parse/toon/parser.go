package toon

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

// =========================
// Public API
// =========================

// Parse reads a TOON document from r and parses it with DefaultOptions.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseWithOptions(data, DefaultOptions())
}

// ParseString parses src with DefaultOptions.
func ParseString(src string) (*Document, error) {
	return ParseWithOptions([]byte(src), DefaultOptions())
}

// ParseWithOptions parses src. It returns either the complete document or a
// single *Error; partial trees are never returned.
func ParseWithOptions(src []byte, opts Options) (*Document, error) {
	opts = opts.normalized()
	text := string(src)
	if !utf8.ValidString(text) {
		return nil, lexErrf(posAt(text, firstInvalidUTF8(text)), "invalid UTF-8 encoding")
	}

	lx := newLexer(text, opts)
	p := &parser{
		lx:   lx,
		src:  text,
		opts: opts,
		log:  opts.Logger.With(slog.String("component", "toon")),
	}
	doc, err := p.parseDocument()
	if lx.err != nil {
		return nil, lx.err
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// =========================
// Parser Implementation
// =========================

type parser struct {
	lx       *lexer
	src      string
	opts     Options
	log      *slog.Logger
	warnings []*Error
}

func (p *parser) peek() token { return p.lx.peek(0) }

func (p *parser) peekAt(k int) token { return p.lx.peek(k) }

func (p *parser) next() token { return p.lx.advance() }

func (p *parser) skipTabs() {
	for p.peek().Kind == tokTab {
		p.next()
	}
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.Kind != kind {
		return t, p.unexpected(t, what)
	}
	return t, nil
}

func (p *parser) unexpected(t token, what string) error {
	switch t.Kind {
	case tokError:
		return p.lx.err
	case tokIndent:
		return indentErrf(t.Loc.Start, "unexpected indent, expected %s", what)
	}
	return syntaxErrf(t.Loc.Start, "expected %s, found %s", what, describe(t))
}

// violation reports a semantic error. In lenient mode it is recorded as a
// warning and parsing continues.
func (p *parser) violation(e *Error) error {
	if p.opts.Strict {
		return e
	}
	p.warnings = append(p.warnings, e)
	p.log.Warn("semantic violation tolerated",
		slog.String("pos", e.Pos.String()),
		slog.String("msg", e.Msg))
	return nil
}

// atPairStart reports whether the next tokens are a key followed by ':' or
// by an attached array header.
func (p *parser) atPairStart() bool {
	t := p.peek()
	if t.Kind != tokText && t.Kind != tokString {
		return false
	}
	n := p.peekAt(1)
	return n.Kind == tokColon || (n.Kind == tokLBracket && !n.SpaceBefore)
}

// =========================
// Document
// =========================

func (p *parser) parseDocument() (*Document, error) {
	doc := &Document{Loc: Span{Start: Pos{Line: 1, Column: 1}, End: p.lx.eofPos()}}
	first := p.peek()

	var err error
	switch {
	case first.Kind == tokEOF:
		p.log.Debug("empty document")
		doc.Root = &Object{Loc: first.Loc}
	case first.Kind == tokLBracket:
		p.log.Debug("document is an array")
		var arr *Array
		if arr, err = p.parseArray(nil, false); err == nil {
			doc.Root = arr
			err = p.expectEnd()
		}
	case p.atPairStart():
		p.log.Debug("document is an object")
		var obj *Object
		if obj, err = p.parseObject(); err == nil {
			doc.Root = obj
			err = p.expectEnd()
		}
	default:
		var v *Value
		if v, err = p.parseDocumentValue(); err == nil {
			p.log.Debug("document is a single value", slog.String("kind", string(v.Type)))
			doc.Root = v
		}
	}
	if err != nil {
		return nil, err
	}
	doc.Warnings = p.warnings
	return doc, nil
}

func (p *parser) parseDocumentValue() (*Value, error) {
	v, err := p.parseObjectScalar()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokNewline, "end of line"); err != nil {
		return nil, err
	}
	return v, p.expectEnd()
}

func (p *parser) expectEnd() error {
	t := p.peek()
	switch t.Kind {
	case tokEOF:
		return nil
	case tokError:
		return p.lx.err
	}
	return syntaxErrf(t.Loc.Start, "unexpected %s after end of document", describe(t))
}

// =========================
// Objects and Pairs
// =========================

// parseObject parses pairs until the enclosing block ends.
func (p *parser) parseObject() (*Object, error) {
	obj := &Object{}
	for k := p.peek().Kind; k != tokEOF && k != tokDedent; k = p.peek().Kind {
		pair, err := p.parsePair(false)
		if err != nil {
			return nil, err
		}
		obj.Pairs = append(obj.Pairs, pair)
	}
	if n := len(obj.Pairs); n > 0 {
		obj.Loc = spanOf(obj.Pairs[0].Loc, obj.Pairs[n-1].Loc)
	}
	return obj, nil
}

// parseBlockObject parses an indented object: indent pair+ dedent.
func (p *parser) parseBlockObject() (*Object, error) {
	if _, err := p.expect(tokIndent, "indented block"); err != nil {
		return nil, err
	}
	obj, err := p.parseObject()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokDedent, "end of block"); err != nil {
		return nil, err
	}
	return obj, nil
}

// parsePair parses one of the three pair shapes:
//
//	key[header]: ...   array value
//	key: value         inline scalar
//	key:               nested object in the following block
//
// rowField is set for the first field of an object row, whose sibling fields
// may follow as an indented block.
func (p *parser) parsePair(rowField bool) (*Pair, error) {
	key, err := p.parseKey("key")
	if err != nil {
		return nil, err
	}
	pair := &Pair{Key: key}

	switch t := p.peek(); t.Kind {
	case tokLBracket:
		if t.SpaceBefore {
			return nil, syntaxErrf(t.Loc.Start, "array header must immediately follow key %q", key.Name)
		}
		arr, err := p.parseArray(key, rowField)
		if err != nil {
			return nil, err
		}
		pair.Val = arr
	case tokColon:
		colon := p.next()
		p.skipTabs()
		if p.peek().Kind != tokNewline {
			v, err := p.parseObjectScalar()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokNewline, "end of line after value"); err != nil {
				return nil, err
			}
			pair.Val = v
			break
		}
		p.next()
		if p.peek().Kind != tokIndent {
			return nil, syntaxErrf(colon.Loc.End, "missing value for key %q", key.Name)
		}
		obj, err := p.parseBlockObject()
		if err != nil {
			return nil, err
		}
		pair.Val = obj
	default:
		return nil, p.unexpected(t, fmt.Sprintf("':' after key %q", key.Name))
	}

	pair.Loc = spanOf(key.Loc, pair.Val.Location())
	return pair, nil
}

func (p *parser) parseKey(what string) (*Key, error) {
	t := p.next()
	switch t.Kind {
	case tokString:
		if t.Text == "" {
			return nil, syntaxErrf(t.Loc.Start, "empty %s", what)
		}
		return &Key{Name: t.Text, Quoted: true, Loc: t.Loc}, nil
	case tokText:
		if !IsUnquotedKey(t.Text) {
			return nil, syntaxErrf(t.Loc.Start, "invalid %s %q, quote it", what, t.Text)
		}
		return &Key{Name: t.Text, Loc: t.Loc}, nil
	}
	return nil, p.unexpected(t, what)
}

// =========================
// Scalars
// =========================

// parseObjectScalar parses a value that runs to the end of the line.
func (p *parser) parseObjectScalar() (*Value, error) {
	switch t := p.peek(); t.Kind {
	case tokString:
		return parseScalar(p.next())
	case tokHyphen:
		return nil, syntaxErrf(t.Loc.Start, "list item outside of an array")
	case tokText, tokComma, tokPipe:
	default:
		return nil, p.unexpected(t, "value")
	}

	var toks []token
	for k := p.peek().Kind; k != tokNewline && k != tokEOF && k != tokError; k = p.peek().Kind {
		toks = append(toks, p.next())
	}
	w, err := objectWord(p.src, toks)
	if err != nil {
		return nil, err
	}
	return parseScalar(w)
}

// parseArrayScalar parses a single value that stops at a delimiter.
func (p *parser) parseArrayScalar() (*Value, error) {
	t := p.next()
	switch t.Kind {
	case tokString:
		return parseScalar(t)
	case tokText:
		w, err := arrayWord(t)
		if err != nil {
			return nil, err
		}
		return parseScalar(w)
	}
	return nil, p.unexpected(t, "value")
}

// parseDelimited parses `value (delim value)*`. Comma, pipe and tab are all
// accepted as separators.
func (p *parser) parseDelimited() ([]*Value, error) {
	var vals []*Value
	for {
		v, err := p.parseArrayScalar()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if !p.peek().isDelimiter() {
			return vals, nil
		}
		p.next()
		p.skipTabs()
	}
}

// =========================
// Arrays
// =========================

func (p *parser) parseHeader() (*Header, error) {
	open, err := p.expect(tokLBracket, "'['")
	if err != nil {
		return nil, err
	}
	h := &Header{Delimiter: DelimComma}

	n := p.next()
	if n.Kind != tokText {
		return nil, p.unexpected(n, "array length")
	}
	if !lengthPattern.MatchString(n.Text) {
		return nil, syntaxErrf(n.Loc.Start, "array length must be a non-negative integer, found %q", n.Text)
	}
	if h.Length, err = strconv.Atoi(n.Text); err != nil {
		return nil, syntaxErrf(n.Loc.Start, "array length %s out of range", n.Text)
	}

	t := p.next()
	if t.Kind == tokTab || t.Kind == tokPipe {
		if t.SpaceBefore {
			return nil, syntaxErrf(t.Loc.Start, "delimiter must immediately follow the array length")
		}
		h.Delimiter = Delimiter(t.Text)
		t = p.next()
	}
	if t.Kind != tokRBracket {
		return nil, p.unexpected(t, "']'")
	}
	h.Loc = Span{Start: open.Loc.Start, End: t.Loc.End}

	if b := p.peek(); b.Kind == tokLBrace {
		if b.SpaceBefore {
			return nil, syntaxErrf(b.Loc.Start, "field list must immediately follow ']'")
		}
		fields, end, err := p.parseFieldList()
		if err != nil {
			return nil, err
		}
		h.Fields = fields
		h.Loc.End = end
	}
	return h, nil
}

func (p *parser) parseFieldList() ([]*Key, Pos, error) {
	p.next()
	var fields []*Key
	seen := make(map[string]bool)
	for {
		f, err := p.parseKey("field name")
		if err != nil {
			return nil, Pos{}, err
		}
		if seen[f.Name] {
			if err := p.violation(semanticErrf(f.Loc.Start, "duplicate field name %q in field list", f.Name)); err != nil {
				return nil, Pos{}, err
			}
		}
		seen[f.Name] = true
		fields = append(fields, f)

		t := p.next()
		if t.Kind == tokRBrace {
			return fields, t.Loc.End, nil
		}
		if !t.isDelimiter() {
			return nil, Pos{}, p.unexpected(t, "delimiter or '}' in field list")
		}
		p.skipTabs()
	}
}

// parseArray parses a header, its ':' and the body that follows. key is nil
// for a root array.
func (p *parser) parseArray(key *Key, rowField bool) (*Array, error) {
	h, err := p.parseHeader()
	if err != nil {
		return nil, err
	}
	colon, err := p.expect(tokColon, "':' after array header")
	if err != nil {
		return nil, err
	}
	p.skipTabs()
	arr := &Array{Header: h}

	if p.peek().Kind == tokNewline {
		p.next()
		if p.atBody(h, rowField) {
			if err := p.parseRows(arr); err != nil {
				return nil, err
			}
		} else {
			arr.Body = BodyEmpty
			arr.Loc = Span{Start: h.Loc.Start, End: colon.Loc.End}
		}
	} else {
		items, err := p.parseDelimited()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokNewline, "delimiter or end of line"); err != nil {
			return nil, err
		}
		arr.Body = BodyInline
		arr.Items = items
		arr.Loc = Span{Start: h.Loc.Start, End: items[len(items)-1].Loc.End}
	}

	if got := arr.Len(); got != h.Length {
		e := semanticErrf(h.Loc.Start, "length mismatch for array %s: expected %d, got %d",
			arrayName(key), h.Length, got)
		if err := p.violation(e); err != nil {
			return nil, err
		}
	}
	p.log.Debug("array closed",
		slog.String("array", arrayName(key)),
		slog.Int("length", h.Length),
		slog.String("body", string(arr.Body)))
	return arr, nil
}

// atBody reports whether an indented block follows that belongs to the
// array. Only on the first field of an object row may a block without a
// leading '-' under a header without fields be the row's sibling fields.
func (p *parser) atBody(h *Header, rowField bool) bool {
	if p.peek().Kind != tokIndent {
		return false
	}
	if !rowField || h.Fields != nil {
		return true
	}
	return p.peekAt(1).Kind == tokHyphen
}

func (p *parser) parseRows(arr *Array) error {
	p.next()
	tabular := true
	for p.peek().Kind != tokDedent {
		row, err := p.parseRow(arr.Header)
		if err != nil {
			return err
		}
		if _, ok := row.(*TabularRow); !ok {
			tabular = false
		}
		arr.Rows = append(arr.Rows, row)
	}
	p.next()

	arr.Body = BodyRows
	if tabular {
		arr.Body = BodyTabular
	}
	arr.Loc = Span{Start: arr.Header.Loc.Start, End: arr.Rows[len(arr.Rows)-1].Location().End}
	return nil
}

// parseRow parses one line of a block body. A hyphen-led line is always a
// list row; any other line is a tabular row when the header has fields.
func (p *parser) parseRow(h *Header) (Row, error) {
	t := p.peek()
	switch {
	case t.Kind == tokHyphen:
		return p.parseListRow()
	case h.Fields != nil:
		return p.parseTabularRow(h)
	}
	return nil, p.unexpected(t, "list item '-'")
}

func (p *parser) parseListRow() (Row, error) {
	hy := p.next()
	if p.peek().Kind == tokNewline {
		p.next()
		if p.peek().Kind != tokIndent {
			return nil, syntaxErrf(hy.Loc.End, "missing object after list item '-'")
		}
		obj, err := p.parseBlockObject()
		if err != nil {
			return nil, err
		}
		return &ObjectRow{Object: obj, Loc: Span{Start: hy.Loc.Start, End: obj.Loc.End}}, nil
	}
	if p.atPairStart() {
		return p.parseObjectRow(hy)
	}

	vals, err := p.parseDelimited()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokNewline, "delimiter or end of row"); err != nil {
		return nil, err
	}
	loc := Span{Start: hy.Loc.Start, End: vals[len(vals)-1].Loc.End}
	if len(vals) == 1 {
		return &ValueRow{Val: vals[0], Loc: loc}, nil
	}
	return &MultiValueRow{Values: vals, Loc: loc}, nil
}

// parseObjectRow parses `- key: ...` and the sibling fields indented under it.
func (p *parser) parseObjectRow(hy token) (*ObjectRow, error) {
	first, err := p.parsePair(true)
	if err != nil {
		return nil, err
	}
	obj := &Object{Pairs: []*Pair{first}}
	if p.peek().Kind == tokIndent {
		rest, err := p.parseBlockObject()
		if err != nil {
			return nil, err
		}
		obj.Pairs = append(obj.Pairs, rest.Pairs...)
	}
	obj.Loc = spanOf(first.Loc, obj.Pairs[len(obj.Pairs)-1].Loc)
	return &ObjectRow{Object: obj, Loc: Span{Start: hy.Loc.Start, End: obj.Loc.End}}, nil
}

func (p *parser) parseTabularRow(h *Header) (*TabularRow, error) {
	vals, err := p.parseDelimited()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokNewline, "delimiter or end of row"); err != nil {
		return nil, err
	}
	row := &TabularRow{
		Values: vals,
		Loc:    Span{Start: vals[0].Loc.Start, End: vals[len(vals)-1].Loc.End},
	}
	if len(vals) != len(h.Fields) {
		e := semanticErrf(row.Loc.Start, "tabular row has %d values, field list declares %d",
			len(vals), len(h.Fields))
		if err := p.violation(e); err != nil {
			return nil, err
		}
	}
	row.Object = zipRow(h.Fields, vals, row.Loc)
	return row, nil
}

// zipRow builds the implicit object of a tabular row.
func zipRow(fields []*Key, vals []*Value, loc Span) *Object {
	obj := &Object{Loc: loc}
	for i, f := range fields {
		if i >= len(vals) {
			break
		}
		obj.Pairs = append(obj.Pairs, &Pair{Key: f, Val: vals[i], Loc: vals[i].Loc})
	}
	return obj
}

// =========================
// Utilities
// =========================

func arrayName(key *Key) string {
	if key == nil {
		return "<root>"
	}
	return strconv.Quote(key.Name)
}

func describe(t token) string {
	switch t.Kind {
	case tokText, tokWord, tokArrayWord:
		return strconv.Quote(t.Text)
	case tokString:
		return "quoted string " + strconv.Quote(t.Text)
	}
	return t.Kind.String()
}

func firstInvalidUTF8(s string) int {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size <= 1 {
				return i
			}
		}
	}
	return len(s)
}

// posAt converts a byte offset into a position.
func posAt(src string, off int) Pos {
	line := 1 + strings.Count(src[:off], "\n")
	col := off - (strings.LastIndexByte(src[:off], '\n') + 1) + 1
	return Pos{Offset: off, Line: line, Column: col}
}
