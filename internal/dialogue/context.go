package dialogue

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// #region kind
// Kind tags the variant held by a ContextValue.
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	}
	return "none"
}

// #endregion kind

// #region value
// ContextValue is one typed entry of a selection context. The zero value is KindNone.
type ContextValue struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

func String(v string) ContextValue { return ContextValue{kind: KindString, s: v} }
func Int(v int64) ContextValue     { return ContextValue{kind: KindInt, i: v} }
func Float(v float64) ContextValue { return ContextValue{kind: KindFloat, f: v} }
func Bool(v bool) ContextValue     { return ContextValue{kind: KindBool, b: v} }

func (v ContextValue) Kind() Kind { return v.kind }

func (v ContextValue) AsString() (string, bool) { return v.s, v.kind == KindString }
func (v ContextValue) AsInt() (int64, bool)     { return v.i, v.kind == KindInt }
func (v ContextValue) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }
func (v ContextValue) AsBool() (bool, bool)     { return v.b, v.kind == KindBool }

// Equal compares kind and payload. An int never equals a float.
func (v ContextValue) Equal(o ContextValue) bool {
	return v == o
}

func (v ContextValue) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

// Any returns the payload as an untyped value, or nil for KindNone.
func (v ContextValue) Any() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	}
	return nil
}

// #endregion value

// #region yaml
// UnmarshalYAML decodes a scalar using its resolved YAML tag.
func (v *ContextValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: context value must be a scalar", node.Line)
	}
	switch node.Tag {
	case "!!str":
		*v = String(node.Value)
	case "!!int":
		n, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*v = Int(n)
	case "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*v = Float(f)
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = Bool(b)
	default:
		return fmt.Errorf("line %d: unsupported context value tag %s", node.Line, node.Tag)
	}
	return nil
}

// #endregion yaml
