package storage

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ValueType represents the type of a property value
type ValueType uint8

const (
	TypeString ValueType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeBytes
	TypeTimestamp
)

// String returns the schema name of the type
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "integer"
	case TypeFloat:
		return "double"
	case TypeBool:
		return "boolean"
	case TypeBytes:
		return "bytes"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Well-known node attribute keys written by the analysis stages
const (
	AttrCommunity = "modularity_class"
	AttrPageRank  = "pagerank"
	AttrX         = "x"
	AttrY         = "y"
	AttrSize      = "size"
	AttrColor     = "color"
	AttrComponent = "weakly_connected_component"
)

// Value represents a typed property value
type Value struct {
	Type ValueType `json:"type"`
	Data []byte    `json:"data"`
}

// Helper functions to create typed values
func StringValue(s string) Value {
	return Value{Type: TypeString, Data: []byte(s)}
}

func IntValue(i int64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(i))
	return Value{Type: TypeInt, Data: data}
}

func FloatValue(f float64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, math.Float64bits(f))
	return Value{Type: TypeFloat, Data: data}
}

func BoolValue(b bool) Value {
	data := []byte{0}
	if b {
		data[0] = 1
	}
	return Value{Type: TypeBool, Data: data}
}

func BytesValue(b []byte) Value {
	return Value{Type: TypeBytes, Data: b}
}

func TimestampValue(t time.Time) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(t.Unix()))
	return Value{Type: TypeTimestamp, Data: data}
}

// Decode methods
func (v Value) AsString() (string, error) {
	if v.Type != TypeString {
		return "", fmt.Errorf("value is not a string")
	}
	return string(v.Data), nil
}

func (v Value) AsInt() (int64, error) {
	if v.Type != TypeInt || len(v.Data) != 8 {
		return 0, fmt.Errorf("value is not an int")
	}
	return int64(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsFloat() (float64, error) {
	if v.Type != TypeFloat || len(v.Data) != 8 {
		return 0, fmt.Errorf("value is not a float")
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsBool() (bool, error) {
	if v.Type != TypeBool || len(v.Data) != 1 {
		return false, fmt.Errorf("value is not a bool")
	}
	return v.Data[0] == 1, nil
}

func (v Value) AsTimestamp() (time.Time, error) {
	if v.Type != TypeTimestamp || len(v.Data) != 8 {
		return time.Time{}, fmt.Errorf("value is not a timestamp")
	}
	return time.Unix(int64(binary.LittleEndian.Uint64(v.Data)), 0), nil
}

// Interface returns the decoded Go value (string, int64, float64, bool,
// []byte or time.Time).
func (v Value) Interface() any {
	switch v.Type {
	case TypeString:
		return string(v.Data)
	case TypeInt:
		i, _ := v.AsInt()
		return i
	case TypeFloat:
		f, _ := v.AsFloat()
		return f
	case TypeBool:
		b, _ := v.AsBool()
		return b
	case TypeTimestamp:
		ts, _ := v.AsTimestamp()
		return ts
	default:
		return v.Data
	}
}

// String renders the value the way interchange formats expect it
func (v Value) String() string {
	switch v.Type {
	case TypeString:
		return string(v.Data)
	case TypeInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10)
	case TypeFloat:
		f, _ := v.AsFloat()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case TypeBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case TypeTimestamp:
		ts, _ := v.AsTimestamp()
		return ts.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%x", v.Data)
	}
}

// ValueFromAny converts a decoded JSON/YAML scalar into a Value
func ValueFromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case string:
		return StringValue(x), nil
	case bool:
		return BoolValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case float64:
		// JSON numbers carry no integer/float distinction
		return FloatValue(x), nil
	case time.Time:
		return TimestampValue(x), nil
	case []byte:
		return BytesValue(x), nil
	default:
		return Value{}, fmt.Errorf("unsupported attribute value %T", raw)
	}
}

// Node represents a vertex in the graph
type Node struct {
	ID         uint64
	Key        string // identifier from the source file, unique per graph
	Label      string
	Properties map[string]Value

	// LayoutData holds layout carry-over state between runs. It is never
	// serialized.
	LayoutData any
}

// Edge represents a relationship between nodes
type Edge struct {
	ID         uint64
	FromNodeID uint64
	ToNodeID   uint64
	Type       string
	Directed   bool
	Weight     float64
	Properties map[string]Value
}

// Clone creates a deep copy of a node
func (n *Node) Clone() *Node {
	clone := &Node{
		ID:         n.ID,
		Key:        n.Key,
		Label:      n.Label,
		Properties: make(map[string]Value, len(n.Properties)),
		LayoutData: n.LayoutData,
	}
	for k, v := range n.Properties {
		clone.Properties[k] = v
	}
	return clone
}

// GetProperty gets a property value
func (n *Node) GetProperty(key string) (Value, bool) {
	val, ok := n.Properties[key]
	return val, ok
}

// Float returns a float property, accepting integer values as well
func (n *Node) Float(key string) (float64, bool) {
	val, ok := n.Properties[key]
	if !ok {
		return 0, false
	}
	switch val.Type {
	case TypeFloat:
		f, err := val.AsFloat()
		return f, err == nil
	case TypeInt:
		i, err := val.AsInt()
		return float64(i), err == nil
	}
	return 0, false
}

// Int returns an integer property
func (n *Node) Int(key string) (int64, bool) {
	val, ok := n.Properties[key]
	if !ok {
		return 0, false
	}
	i, err := val.AsInt()
	return i, err == nil
}

// Clone creates a deep copy of an edge
func (e *Edge) Clone() *Edge {
	clone := &Edge{
		ID:         e.ID,
		FromNodeID: e.FromNodeID,
		ToNodeID:   e.ToNodeID,
		Type:       e.Type,
		Directed:   e.Directed,
		Weight:     e.Weight,
		Properties: make(map[string]Value, len(e.Properties)),
	}
	for k, v := range e.Properties {
		clone.Properties[k] = v
	}
	return clone
}

// GetProperty gets a property value
func (e *Edge) GetProperty(key string) (Value, bool) {
	val, ok := e.Properties[key]
	return val, ok
}
