package syncedvar

import (
	"encoding/json"
	"fmt"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/interp"
)

// wireValue is the JSON wire shape for one interp.Value, tagged the same
// way persist's bson codec tags a mounted value.
type wireValue struct {
	Type          string      `json:"t"`
	Int           int64       `json:"i,omitempty"`
	Float         float64     `json:"f,omitempty"`
	Bool          bool        `json:"b,omitempty"`
	Text          string      `json:"s,omitempty"`
	Items         []wireValue `json:"items,omitempty"`
	Keys          []wireValue `json:"keys,omitempty"`
	Values        []wireValue `json:"values,omitempty"`
	TypeName      string      `json:"typeName,omitempty"`
	FieldOrder    []string    `json:"fieldOrder,omitempty"`
	Fields        []wireField `json:"fields,omitempty"`
	InductiveType string      `json:"inductiveType,omitempty"`
	Constructor   string      `json:"constructor,omitempty"`
	Months        int32       `json:"months,omitempty"`
	Days          int32       `json:"days,omitempty"`
}

type wireField struct {
	Name  string    `json:"name"`
	Value wireValue `json:"value"`
}

// Encode serializes v to the string form a Redis list element carries.
func Encode(v interp.Value) (string, error) {
	w, err := toWire(v)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Decode is the inverse of Encode.
func Decode(data string) (interp.Value, error) {
	var w wireValue
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, fmt.Errorf("syncedvar: decode: %w", err)
	}
	return fromWire(w)
}

func toWire(v interp.Value) (wireValue, error) {
	switch t := v.(type) {
	case interp.IntValue:
		return wireValue{Type: "int", Int: int64(t)}, nil
	case interp.FloatValue:
		return wireValue{Type: "float", Float: float64(t)}, nil
	case interp.BoolValue:
		return wireValue{Type: "bool", Bool: bool(t)}, nil
	case interp.TextValue:
		return wireValue{Type: "text", Text: string(t)}, nil
	case interp.CharValue:
		return wireValue{Type: "char", Text: string(rune(t))}, nil
	case interp.NothingValue:
		return wireValue{Type: "nothing"}, nil
	case interp.ListValue:
		items, err := toWireSlice(*t.Items)
		return wireValue{Type: "list", Items: items}, err
	case interp.SetValue:
		items, err := toWireSlice(*t.Items)
		return wireValue{Type: "set", Items: items}, err
	case interp.TupleValue:
		items, err := toWireSlice(t.Items)
		return wireValue{Type: "tuple", Items: items}, err
	case interp.MapValue:
		keys := interp.MapKeys(t)
		wireKeys := make([]wireValue, len(keys))
		wireVals := make([]wireValue, len(keys))
		for i, k := range keys {
			wk, err := toWire(k)
			if err != nil {
				return wireValue{}, err
			}
			val, _ := interp.MapLookup(t, k)
			wv, err := toWire(val)
			if err != nil {
				return wireValue{}, err
			}
			wireKeys[i], wireVals[i] = wk, wv
		}
		return wireValue{Type: "map", Keys: wireKeys, Values: wireVals}, nil
	case *interp.StructValue:
		fields := make([]wireField, len(t.FieldOrder))
		for i, name := range t.FieldOrder {
			wv, err := toWire(t.Fields[name])
			if err != nil {
				return wireValue{}, err
			}
			fields[i] = wireField{Name: name, Value: wv}
		}
		return wireValue{Type: "struct", TypeName: t.Type, FieldOrder: t.FieldOrder, Fields: fields}, nil
	case *interp.InductiveValue:
		items, err := toWireSlice(t.Args)
		return wireValue{Type: "inductive", InductiveType: t.InductiveType, Constructor: t.Constructor, Items: items}, err
	case interp.DurationValue:
		return wireValue{Type: "duration", Int: int64(t)}, nil
	case interp.DateValue:
		return wireValue{Type: "date", Int: int64(t)}, nil
	case interp.MomentValue:
		return wireValue{Type: "moment", Int: int64(t)}, nil
	case interp.SpanValue:
		return wireValue{Type: "span", Months: t.Months, Days: t.Days}, nil
	case interp.TimeValue:
		return wireValue{Type: "time", Int: int64(t)}, nil
	default:
		return wireValue{}, fmt.Errorf("syncedvar: %s cannot cross a pipe", v.TypeName())
	}
}

func toWireSlice(items []interp.Value) ([]wireValue, error) {
	out := make([]wireValue, len(items))
	for i, v := range items {
		w, err := toWire(v)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

func fromWire(w wireValue) (interp.Value, error) {
	switch w.Type {
	case "int":
		return interp.IntValue(w.Int), nil
	case "float":
		return interp.FloatValue(w.Float), nil
	case "bool":
		return interp.BoolValue(w.Bool), nil
	case "text":
		return interp.TextValue(w.Text), nil
	case "char":
		r := rune(0)
		for _, c := range w.Text {
			r = c
			break
		}
		return interp.CharValue(r), nil
	case "nothing":
		return interp.NothingValue{}, nil
	case "list":
		items, err := fromWireSlice(w.Items)
		if err != nil {
			return nil, err
		}
		return interp.NewListValue(items), nil
	case "set":
		items, err := fromWireSlice(w.Items)
		if err != nil {
			return nil, err
		}
		return interp.NewSetValue(items), nil
	case "tuple":
		items, err := fromWireSlice(w.Items)
		if err != nil {
			return nil, err
		}
		return interp.TupleValue{Items: items}, nil
	case "map":
		keys, err := fromWireSlice(w.Keys)
		if err != nil {
			return nil, err
		}
		vals, err := fromWireSlice(w.Values)
		if err != nil {
			return nil, err
		}
		return interp.NewMapValue(keys, vals), nil
	case "struct":
		fields := make(map[string]interp.Value, len(w.Fields))
		for _, f := range w.Fields {
			v, err := fromWire(f.Value)
			if err != nil {
				return nil, err
			}
			fields[f.Name] = v
		}
		return &interp.StructValue{Type: w.TypeName, Fields: fields, FieldOrder: w.FieldOrder}, nil
	case "inductive":
		args, err := fromWireSlice(w.Items)
		if err != nil {
			return nil, err
		}
		return &interp.InductiveValue{InductiveType: w.InductiveType, Constructor: w.Constructor, Args: args}, nil
	case "duration":
		return interp.DurationValue(w.Int), nil
	case "date":
		return interp.DateValue(int32(w.Int)), nil
	case "moment":
		return interp.MomentValue(w.Int), nil
	case "span":
		return interp.SpanValue{Months: w.Months, Days: w.Days}, nil
	case "time":
		return interp.TimeValue(w.Int), nil
	default:
		return nil, fmt.Errorf("syncedvar: unknown wire type %q", w.Type)
	}
}

func fromWireSlice(items []wireValue) ([]interp.Value, error) {
	out := make([]interp.Value, len(items))
	for i, w := range items {
		v, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
