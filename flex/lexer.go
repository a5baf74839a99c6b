package flex

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// MaxDepth bounds array/object nesting accepted by the decoder.
const MaxDepth = 10000

// nodeKind is the primitive JSON shape produced by stage 1.
type nodeKind uint8

const (
	nodeNull nodeKind = iota
	nodeBool
	nodeInt   // number lexeme without fraction or exponent
	nodeFloat // number lexeme with fraction and/or exponent
	nodeString
	nodeArray
	nodeObject
)

func (k nodeKind) String() string {
	switch k {
	case nodeNull:
		return "null"
	case nodeBool:
		return "bool"
	case nodeInt:
		return "int"
	case nodeFloat:
		return "float"
	case nodeString:
		return "string"
	case nodeArray:
		return "array"
	case nodeObject:
		return "object"
	default:
		return "unknown"
	}
}

// node is a generic JSON value. Numbers keep their lexeme; stage 2 decides
// how to interpret them.
type node struct {
	kind    nodeKind
	offset  int
	boolVal bool
	text    string // number lexeme or unescaped string content
	items   []node
	members []member
}

type member struct {
	key   string
	value node
}

// parser is a strict RFC 8259 recursive-descent parser over a byte slice.
type parser struct {
	data  []byte
	pos   int
	depth int
}

// parseJSON runs stage 1 over data. The whole input must be one value
// surrounded by optional whitespace.
func parseJSON(data []byte) (node, error) {
	p := &parser{data: data}
	p.skipWS()
	n, err := p.parseValue()
	if err != nil {
		return node{}, err
	}
	p.skipWS()
	if p.pos < len(p.data) {
		return node{}, p.errorf("unexpected %s after top-level value", p.describe())
	}
	return n, nil
}

func (p *parser) errorf(format string, args ...interface{}) *ParseError {
	return &ParseError{Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

// describe names the byte at the current position for error messages.
func (p *parser) describe() string {
	if p.pos >= len(p.data) {
		return "end of input"
	}
	c := p.data[p.pos]
	if c < 0x20 || c >= 0x7f {
		return fmt.Sprintf("byte 0x%02x", c)
	}
	return fmt.Sprintf("character %q", c)
}

func (p *parser) skipWS() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) parseValue() (node, error) {
	if p.pos >= len(p.data) {
		return node{}, p.errorf("unexpected end of input")
	}
	start := p.pos
	switch c := p.data[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return node{}, err
		}
		return node{kind: nodeString, offset: start, text: s}, nil
	case c == 't':
		return p.parseLiteral("true", node{kind: nodeBool, offset: start, boolVal: true})
	case c == 'f':
		return p.parseLiteral("false", node{kind: nodeBool, offset: start})
	case c == 'n':
		return p.parseLiteral("null", node{kind: nodeNull, offset: start})
	case c == '-' || isDigit(c):
		return p.parseNumber()
	default:
		return node{}, p.errorf("unexpected %s", p.describe())
	}
}

func (p *parser) parseLiteral(lit string, n node) (node, error) {
	end := p.pos + len(lit)
	if end > len(p.data) || string(p.data[p.pos:end]) != lit {
		return node{}, p.errorf("invalid literal, expected %s", lit)
	}
	p.pos = end
	return n, nil
}

func (p *parser) parseNumber() (node, error) {
	start := p.pos
	lexeme := string(p.data[start : start+maxNumberScan(p.data[start:])])
	end, isFloat, ok := scanNumber(lexeme, 0)
	if !ok {
		p.pos = start + end
		return node{}, p.errorf("invalid number")
	}
	p.pos = start + end
	kind := nodeInt
	if isFloat {
		kind = nodeFloat
	}
	return node{kind: kind, offset: start, text: string(p.data[start:p.pos])}, nil
}

// maxNumberScan returns the length of the run of bytes that may belong to a
// number lexeme.
func maxNumberScan(b []byte) int {
	n := 0
	for n < len(b) {
		c := b[n]
		if isDigit(c) || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			n++
			continue
		}
		break
	}
	return n
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > MaxDepth {
		return p.errorf("exceeded max nesting depth %d", MaxDepth)
	}
	return nil
}

func (p *parser) parseArray() (node, error) {
	start := p.pos
	if err := p.enter(); err != nil {
		return node{}, err
	}
	defer func() { p.depth-- }()

	p.pos++ // [
	n := node{kind: nodeArray, offset: start}
	p.skipWS()
	if p.pos < len(p.data) && p.data[p.pos] == ']' {
		p.pos++
		return n, nil
	}
	for {
		p.skipWS()
		item, err := p.parseValue()
		if err != nil {
			return node{}, err
		}
		n.items = append(n.items, item)
		p.skipWS()
		if p.pos >= len(p.data) {
			return node{}, p.errorf("unexpected end of input in array")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return n, nil
		default:
			return node{}, p.errorf("expected ',' or ']' in array, got %s", p.describe())
		}
	}
}

func (p *parser) parseObject() (node, error) {
	start := p.pos
	if err := p.enter(); err != nil {
		return node{}, err
	}
	defer func() { p.depth-- }()

	p.pos++ // {
	n := node{kind: nodeObject, offset: start}
	p.skipWS()
	if p.pos < len(p.data) && p.data[p.pos] == '}' {
		p.pos++
		return n, nil
	}
	for {
		p.skipWS()
		if p.pos >= len(p.data) {
			return node{}, p.errorf("unexpected end of input in object")
		}
		if p.data[p.pos] != '"' {
			return node{}, p.errorf("expected string key, got %s", p.describe())
		}
		key, err := p.parseString()
		if err != nil {
			return node{}, err
		}
		p.skipWS()
		if p.pos >= len(p.data) || p.data[p.pos] != ':' {
			return node{}, p.errorf("expected ':' after object key, got %s", p.describe())
		}
		p.pos++
		p.skipWS()
		val, err := p.parseValue()
		if err != nil {
			return node{}, err
		}
		n.members = append(n.members, member{key: key, value: val})
		p.skipWS()
		if p.pos >= len(p.data) {
			return node{}, p.errorf("unexpected end of input in object")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return n, nil
		default:
			return node{}, p.errorf("expected ',' or '}' in object, got %s", p.describe())
		}
	}
}

// parseString parses a quoted string starting at p.pos and returns its
// unescaped content.
func (p *parser) parseString() (string, error) {
	p.pos++ // opening quote

	// Fast path: no escapes.
	start := p.pos
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c == '"' {
			s := p.data[start:p.pos]
			if !utf8.Valid(s) {
				p.pos = start + invalidUTF8Offset(s)
				return "", p.errorf("invalid UTF-8 in string")
			}
			p.pos++
			return string(s), nil
		}
		if c == '\\' || c < 0x20 {
			break
		}
		p.pos++
	}

	buf := make([]byte, 0, p.pos-start+16)
	buf = append(buf, p.data[start:p.pos]...)
	for {
		if p.pos >= len(p.data) {
			return "", p.errorf("unterminated string")
		}
		c := p.data[p.pos]
		switch {
		case c == '"':
			if raw := p.data[start:p.pos]; !utf8.Valid(raw) {
				p.pos = start + invalidUTF8Offset(raw)
				return "", p.errorf("invalid UTF-8 in string")
			}
			p.pos++
			return string(buf), nil
		case c < 0x20:
			return "", p.errorf("invalid control character in string")
		case c == '\\':
			r, err := p.parseEscape()
			if err != nil {
				return "", err
			}
			buf = utf8.AppendRune(buf, r)
		default:
			buf = append(buf, c)
			p.pos++
		}
	}
}

// parseEscape decodes one escape sequence at p.pos, including surrogate pairs.
func (p *parser) parseEscape() (rune, error) {
	if p.pos+1 >= len(p.data) {
		return 0, p.errorf("unterminated escape sequence")
	}
	c := p.data[p.pos+1]
	switch c {
	case '"', '\\', '/':
		p.pos += 2
		return rune(c), nil
	case 'b':
		p.pos += 2
		return '\b', nil
	case 'f':
		p.pos += 2
		return '\f', nil
	case 'n':
		p.pos += 2
		return '\n', nil
	case 'r':
		p.pos += 2
		return '\r', nil
	case 't':
		p.pos += 2
		return '\t', nil
	case 'u':
		r, ok := p.hex4(p.pos + 2)
		if !ok {
			return 0, p.errorf("invalid \\u escape")
		}
		p.pos += 6
		if utf16.IsSurrogate(r) {
			if p.pos+1 < len(p.data) && p.data[p.pos] == '\\' && p.data[p.pos+1] == 'u' {
				if r2, ok := p.hex4(p.pos + 2); ok {
					if dec := utf16.DecodeRune(r, r2); dec != utf8.RuneError {
						p.pos += 6
						return dec, nil
					}
				}
			}
			return utf8.RuneError, nil
		}
		return r, nil
	default:
		return 0, p.errorf("invalid escape character %q", c)
	}
}

func (p *parser) hex4(i int) (rune, bool) {
	if i+4 > len(p.data) {
		return 0, false
	}
	var r rune
	for _, c := range p.data[i : i+4] {
		switch {
		case c >= '0' && c <= '9':
			c -= '0'
		case c >= 'a' && c <= 'f':
			c = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			c = c - 'A' + 10
		default:
			return 0, false
		}
		r = r<<4 | rune(c)
	}
	return r, true
}

func invalidUTF8Offset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(b)
}
