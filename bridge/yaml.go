// Package bridge converts between flex values and YAML documents.
//
// YAML carries more type information than JSON: a timestamp is a timestamp
// and .nan is a float. FromYAML maps tagged YAML nodes onto flex variants and
// ToYAML writes them back with tags that survive a round trip, including a
// local !vector tag for Vector.
package bridge

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/Neumenon/flexjson/flex"
)

// VectorTag marks a sequence that decodes as a flex Vector.
const VectorTag = "!vector"

const (
	zonedLayout = "2006-01-02T15:04:05.999999999Z07:00"
	naiveLayout = "2006-01-02 15:04:05.999999999"
)

// Error reports a YAML node that has no flex equivalent.
type Error struct {
	Path   string
	Line   int
	Column int
	Reason string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("bridge: %s at %s (line %d, column %d)", e.Reason, e.Path, e.Line, e.Column)
	}
	return fmt.Sprintf("bridge: %s at %s", e.Reason, e.Path)
}

func nodeError(n *yaml.Node, path, format string, args ...interface{}) *Error {
	return &Error{Path: path, Line: n.Line, Column: n.Column, Reason: fmt.Sprintf(format, args...)}
}

// ============================================================
// YAML -> flex
// ============================================================

// maxValues bounds the number of values one document may expand to, counting
// alias uses and merged entries.
const maxValues = 1 << 22

// FromYAML parses a single YAML document into a flex value.
//
//	!!null                 -> Undefined
//	!!bool                 -> Integer 1 / 0
//	!!int                  -> Integer (Float when it overflows int64)
//	!!float (.nan, .inf)   -> Float
//	!!str                  -> String
//	!!timestamp            -> DateTime (zoned when a zone is written, naive otherwise)
//	sequence               -> List (Vector when tagged !vector)
//	mapping                -> Dict (keys must be strings; << merges are applied)
//
// An empty document is Undefined. Anchored nodes are converted once and
// shared by every alias that names them.
func FromYAML(data []byte) (flex.Value, error) {
	return fromYAML(data, maxValues)
}

func fromYAML(data []byte, budget int) (flex.Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return flex.Value{}, fmt.Errorf("bridge: %w", err)
	}
	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return flex.Undefined(), nil
		}
		node = node.Content[0]
	}
	if node.Kind == 0 {
		return flex.Undefined(), nil
	}
	c := &converter{anchored: make(map[*yaml.Node]flex.Value), budget: budget, limit: budget}
	return c.fromNode(node, "$", 0)
}

type converter struct {
	anchored map[*yaml.Node]flex.Value
	budget   int
	limit    int
}

func (c *converter) spend(n *yaml.Node, path string, count int) error {
	c.budget -= count
	if c.budget < 0 {
		return nodeError(n, path, "document expands to more than %d values", c.limit)
	}
	return nil
}

func (c *converter) fromNode(n *yaml.Node, path string, depth int) (flex.Value, error) {
	if depth > flex.MaxDepth {
		return flex.Value{}, nodeError(n, path, "exceeded max nesting depth %d", flex.MaxDepth)
	}
	if err := c.spend(n, path, 1); err != nil {
		return flex.Value{}, err
	}
	if v, ok := c.anchored[n]; ok {
		return v, nil
	}

	v, err := c.convert(n, path, depth)
	if err != nil {
		return flex.Value{}, err
	}
	if n.Anchor != "" {
		c.anchored[n] = v
	}
	return v, nil
}

func (c *converter) convert(n *yaml.Node, path string, depth int) (flex.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return flex.Value{}, nodeError(n, path, "unresolved alias *%s", n.Value)
		}
		return c.fromNode(n.Alias, path, depth+1)

	case yaml.SequenceNode:
		items := make([]flex.Value, len(n.Content))
		for i, child := range n.Content {
			v, err := c.fromNode(child, fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return flex.Value{}, err
			}
			items[i] = v
		}
		list := flex.List(items...)
		if n.Tag == VectorTag {
			vec, err := flex.VectorFromList(list)
			if err != nil {
				return flex.Value{}, nodeError(n, path, "%s sequence: %v", VectorTag, err)
			}
			return vec, nil
		}
		return list, nil

	case yaml.MappingNode:
		m := make(map[string]flex.Value, len(n.Content)/2)
		if err := c.mergeMapping(m, n, path, depth); err != nil {
			return flex.Value{}, err
		}
		return flex.Dict(m), nil

	case yaml.ScalarNode:
		return fromScalar(n, path)

	default:
		return flex.Value{}, nodeError(n, path, "unexpected node kind %d", n.Kind)
	}
}

// mergeMapping adds the entries of mapping n to m. Explicit keys win over
// keys pulled in through << merges.
func (c *converter) mergeMapping(m map[string]flex.Value, n *yaml.Node, path string, depth int) error {
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		if keyNode.ShortTag() == "!!merge" {
			merges = append(merges, valNode)
			continue
		}
		if keyNode.ShortTag() != "!!str" {
			return nodeError(keyNode, path, "mapping key %q is %s, want a string", keyNode.Value, keyNode.ShortTag())
		}
		key := keyNode.Value
		v, err := c.fromNode(valNode, fmt.Sprintf("%s[%q]", path, key), depth+1)
		if err != nil {
			return err
		}
		m[key] = v
	}

	for _, src := range merges {
		sources := []*yaml.Node{src}
		if src.Kind == yaml.SequenceNode {
			sources = src.Content
		}
		for _, s := range sources {
			target := s
			for target.Kind == yaml.AliasNode && target.Alias != nil {
				target = target.Alias
			}
			if target.Kind != yaml.MappingNode {
				return nodeError(target, path, "merge value must be a mapping")
			}
			v, err := c.fromNode(s, path, depth+1)
			if err != nil {
				return err
			}
			merged, _ := v.AsDict()
			if err := c.spend(s, path, len(merged)); err != nil {
				return err
			}
			for k, v := range merged {
				if _, ok := m[k]; !ok {
					m[k] = v
				}
			}
		}
	}
	return nil
}

func fromScalar(n *yaml.Node, path string) (flex.Value, error) {
	switch tag := n.ShortTag(); tag {
	case "!!null":
		return flex.Undefined(), nil

	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return flex.Value{}, nodeError(n, path, "%v", err)
		}
		if b {
			return flex.Integer(1), nil
		}
		return flex.Integer(0), nil

	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return flex.Integer(i), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return flex.Value{}, nodeError(n, path, "invalid integer %q", n.Value)
		}
		return flex.Float(f), nil

	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return flex.Value{}, nodeError(n, path, "invalid float %q", n.Value)
		}
		return flex.Float(f), nil

	case "!!str":
		if !utf8.ValidString(n.Value) {
			return flex.Value{}, nodeError(n, path, "string is not valid UTF-8")
		}
		return flex.String(n.Value), nil

	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return flex.Value{}, nodeError(n, path, "invalid timestamp %q", n.Value)
		}
		if !hasZone(n.Value) {
			return flex.DateTimeValue(flex.NaiveDateTime(t)), nil
		}
		dt, err := flex.DateTimeFromTime(t)
		if err != nil {
			return flex.Value{}, nodeError(n, path, "%v", err)
		}
		return flex.DateTimeValue(dt), nil

	default:
		return flex.Value{}, nodeError(n, path, "unsupported tag %s", tag)
	}
}

// hasZone reports whether a YAML timestamp spells out a zone. Date-only
// timestamps never do.
func hasZone(s string) bool {
	if len(s) <= len("2006-01-02") {
		return false
	}
	// Skip the date; any later sign or Z belongs to the zone.
	rest := s[len("2006-1-2"):]
	if i := strings.IndexAny(rest, "Tt "); i >= 0 {
		rest = rest[i+1:]
	}
	return strings.ContainsAny(rest, "Zz+-")
}

// ============================================================
// flex -> YAML
// ============================================================

// ToYAML renders v as a YAML document. Dict keys are sorted. Image values
// and invalid UTF-8 strings return a *flex.EncodingError.
func ToYAML(v flex.Value) ([]byte, error) {
	node, err := toNode(v, "$")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("bridge: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("bridge: %w", err)
	}
	return buf.Bytes(), nil
}

// ToNode converts v to a YAML node tree.
func ToNode(v flex.Value) (*yaml.Node, error) {
	return toNode(v, "$")
}

func toNode(v flex.Value, path string) (*yaml.Node, error) {
	switch v.Type() {
	case flex.TypeUndefined:
		return scalar("!!null", "null"), nil

	case flex.TypeInteger:
		i, _ := v.AsInteger()
		return scalar("!!int", flex.FormatInt(i)), nil

	case flex.TypeFloat:
		f, _ := v.AsFloat()
		return scalar("!!float", yamlFloat(f)), nil

	case flex.TypeString:
		s, _ := v.AsString()
		if !utf8.ValidString(s) {
			return nil, &flex.EncodingError{Path: path, Type: flex.TypeString, Err: flex.ErrInvalidUTF8}
		}
		return scalar("!!str", s), nil

	case flex.TypeVector:
		vec, _ := v.AsVector()
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: VectorTag, Style: yaml.FlowStyle}
		for _, f := range vec {
			seq.Content = append(seq.Content, scalar("!!float", yamlFloat(f)))
		}
		return seq, nil

	case flex.TypeList:
		items, _ := v.AsList()
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range items {
			child, err := toNode(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, child)
		}
		return seq, nil

	case flex.TypeDict:
		mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range v.Keys() {
			if !utf8.ValidString(k) {
				return nil, &flex.EncodingError{Path: path, Type: flex.TypeDict, Err: flex.ErrInvalidUTF8}
			}
			item, _ := v.Get(k)
			child, err := toNode(item, fmt.Sprintf("%s[%q]", path, k))
			if err != nil {
				return nil, err
			}
			mapping.Content = append(mapping.Content, scalar("!!str", k), child)
		}
		return mapping, nil

	case flex.TypeDateTime:
		dt, _ := v.AsDateTime()
		if err := dt.Validate(); err != nil {
			return nil, &flex.EncodingError{Path: path, Type: flex.TypeDateTime, Err: err}
		}
		if _, ok := dt.Offset(); ok {
			return scalar("!!timestamp", dt.Time().Format(zonedLayout)), nil
		}
		return scalar("!!timestamp", dt.Time().Format(naiveLayout)), nil

	default:
		return nil, &flex.EncodingError{Path: path, Type: v.Type(), Err: flex.ErrUnsupportedType}
	}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	default:
		return flex.FormatFloat(f)
	}
}
