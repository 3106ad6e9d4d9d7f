package rules

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	blockMarker   = "::::::"
	headingPrefix = ":::"
	commentPrefix = "#"
)

// Value is one value line of a field.
type Value struct {
	Text string
	Line int
}

// Field is a heading and the values declared under it.
type Field struct {
	Name   string
	Line   int
	Values []Value
}

// Block is one rule declaration group. Fields keep source order.
type Block struct {
	Line   int
	Fields []Field
}

// Field returns the named field, or nil.
func (b *Block) Field(name string) *Field {
	for i := range b.Fields {
		if b.Fields[i].Name == name {
			return &b.Fields[i]
		}
	}
	return nil
}

// blockParser is a line state machine. It is fed one line at a time so every
// error carries the exact line number.
type blockParser struct {
	file   string
	blocks []Block
	cur    *Block
	field  *Field
}

// ParseBlocks reads a rule source into blocks without interpreting field
// names. It fails on the first malformed line.
func ParseBlocks(r io.Reader, file string) ([]Block, error) {
	p := &blockParser{file: file}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineno := 0
	for scanner.Scan() {
		lineno++
		if err := p.line(lineno, scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}

	p.flush()
	return p.blocks, nil
}

func (p *blockParser) line(lineno int, raw string) error {
	line := norm.NFC.String(strings.TrimSpace(raw))

	switch {
	case line == "" || strings.HasPrefix(line, commentPrefix):
		return nil

	case line == blockMarker:
		p.flush()
		return nil

	case strings.HasPrefix(line, ":"):
		return p.heading(lineno, line)

	default:
		if p.field == nil {
			return p.errorf(lineno, line, "value before any label")
		}
		p.field.Values = append(p.field.Values, Value{Text: line, Line: lineno})
		return nil
	}
}

func (p *blockParser) heading(lineno int, line string) error {
	if !strings.HasPrefix(line, headingPrefix) {
		return p.errorf(lineno, line, "malformed label, expected %q prefix", headingPrefix)
	}

	name := strings.TrimSpace(line[len(headingPrefix):])
	switch {
	case name == "":
		return p.errorf(lineno, line, "unterminated label: missing name")
	case strings.HasPrefix(name, ":") || strings.HasSuffix(name, ":"):
		return p.errorf(lineno, line, "malformed label")
	}

	if p.cur == nil {
		p.cur = &Block{Line: lineno}
	}
	if existing := p.cur.Field(name); existing != nil {
		return p.errorf(lineno, line, "duplicate label %q in block (first declared on line %d)", name, existing.Line)
	}

	p.cur.Fields = append(p.cur.Fields, Field{Name: name, Line: lineno})
	p.field = &p.cur.Fields[len(p.cur.Fields)-1]
	return nil
}

// flush closes the current block.
func (p *blockParser) flush() {
	if p.cur != nil && len(p.cur.Fields) > 0 {
		p.blocks = append(p.blocks, *p.cur)
	}
	p.cur = nil
	p.field = nil
}

func (p *blockParser) errorf(lineno int, text, format string, args ...any) error {
	return &SyntaxError{
		File:   p.file,
		Line:   lineno,
		Text:   text,
		Reason: fmt.Sprintf(format, args...),
	}
}
