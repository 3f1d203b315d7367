package persist

import (
	"fmt"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/interp"
	"go.mongodb.org/mongo-driver/bson"
)

// EncodeValue converts a runtime Value into a bson.M document shape keyed by
// a "$type" discriminator, the same tagged-document approach typeregistry's
// JSON Schema builder uses for tagged unions.
func EncodeValue(v interp.Value) (bson.M, error) {
	switch t := v.(type) {
	case interp.IntValue:
		return bson.M{"$type": "int", "v": int64(t)}, nil
	case interp.FloatValue:
		return bson.M{"$type": "float", "v": float64(t)}, nil
	case interp.BoolValue:
		return bson.M{"$type": "bool", "v": bool(t)}, nil
	case interp.TextValue:
		return bson.M{"$type": "text", "v": string(t)}, nil
	case interp.CharValue:
		return bson.M{"$type": "char", "v": string(rune(t))}, nil
	case interp.NothingValue:
		return bson.M{"$type": "nothing"}, nil
	case interp.ListValue:
		items, err := encodeSlice(*t.Items)
		if err != nil {
			return nil, err
		}
		return bson.M{"$type": "list", "items": items}, nil
	case interp.SetValue:
		items, err := encodeSlice(*t.Items)
		if err != nil {
			return nil, err
		}
		return bson.M{"$type": "set", "items": items}, nil
	case interp.TupleValue:
		items, err := encodeSlice(t.Items)
		if err != nil {
			return nil, err
		}
		return bson.M{"$type": "tuple", "items": items}, nil
	case interp.MapValue:
		entries, err := encodeMapEntries(t)
		if err != nil {
			return nil, err
		}
		return bson.M{"$type": "map", "entries": entries}, nil
	case *interp.StructValue:
		fields := bson.M{}
		for name, fv := range t.Fields {
			enc, err := EncodeValue(fv)
			if err != nil {
				return nil, err
			}
			fields[name] = enc
		}
		return bson.M{"$type": "struct", "typeName": t.Type, "fieldOrder": t.FieldOrder, "fields": fields}, nil
	case *interp.InductiveValue:
		args, err := encodeSlice(t.Args)
		if err != nil {
			return nil, err
		}
		return bson.M{"$type": "inductive", "inductiveType": t.InductiveType, "constructor": t.Constructor, "args": args}, nil
	case interp.DurationValue:
		return bson.M{"$type": "duration", "nanos": int64(t)}, nil
	case interp.DateValue:
		return bson.M{"$type": "date", "days": int32(t)}, nil
	case interp.MomentValue:
		return bson.M{"$type": "moment", "nanos": int64(t)}, nil
	case interp.SpanValue:
		return bson.M{"$type": "span", "months": t.Months, "days": t.Days}, nil
	case interp.TimeValue:
		return bson.M{"$type": "time", "nanos": int64(t)}, nil
	default:
		return nil, fmt.Errorf("persist: %s is not mountable", v.TypeName())
	}
}

func encodeSlice(items []interp.Value) ([]bson.M, error) {
	out := make([]bson.M, len(items))
	for i, v := range items {
		enc, err := EncodeValue(v)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

func encodeMapEntries(m interp.MapValue) ([]bson.M, error) {
	keys := interp.MapKeys(m)
	out := make([]bson.M, len(keys))
	for i, k := range keys {
		encKey, err := EncodeValue(k)
		if err != nil {
			return nil, err
		}
		val, _ := interp.MapLookup(m, k)
		encVal, err := EncodeValue(val)
		if err != nil {
			return nil, err
		}
		out[i] = bson.M{"key": encKey, "value": encVal}
	}
	return out, nil
}

// DecodeValue is the inverse of EncodeValue.
func DecodeValue(doc bson.M) (interp.Value, error) {
	kind, _ := doc["$type"].(string)
	switch kind {
	case "int":
		return interp.IntValue(toInt64(doc["v"])), nil
	case "float":
		return interp.FloatValue(toFloat64(doc["v"])), nil
	case "bool":
		b, _ := doc["v"].(bool)
		return interp.BoolValue(b), nil
	case "text":
		s, _ := doc["v"].(string)
		return interp.TextValue(s), nil
	case "char":
		s, _ := doc["v"].(string)
		r := rune(0)
		for _, c := range s {
			r = c
			break
		}
		return interp.CharValue(r), nil
	case "nothing":
		return interp.NothingValue{}, nil
	case "list":
		items, err := decodeSlice(doc["items"])
		if err != nil {
			return nil, err
		}
		return interp.NewListValue(items), nil
	case "set":
		items, err := decodeSlice(doc["items"])
		if err != nil {
			return nil, err
		}
		return interp.NewSetValue(items), nil
	case "tuple":
		items, err := decodeSlice(doc["items"])
		if err != nil {
			return nil, err
		}
		return interp.TupleValue{Items: items}, nil
	case "map":
		return decodeMap(doc["entries"])
	case "struct":
		return decodeStruct(doc)
	case "inductive":
		return decodeInductive(doc)
	case "duration":
		return interp.DurationValue(toInt64(doc["nanos"])), nil
	case "date":
		return interp.DateValue(int32(toInt64(doc["days"]))), nil
	case "moment":
		return interp.MomentValue(toInt64(doc["nanos"])), nil
	case "span":
		return interp.SpanValue{Months: int32(toInt64(doc["months"])), Days: int32(toInt64(doc["days"]))}, nil
	case "time":
		return interp.TimeValue(toInt64(doc["nanos"])), nil
	default:
		return nil, fmt.Errorf("persist: unknown stored kind %q", kind)
	}
}

func decodeSlice(raw any) ([]interp.Value, error) {
	list, ok := asDocSlice(raw)
	if !ok {
		return nil, nil
	}
	out := make([]interp.Value, len(list))
	for i, d := range list {
		v, err := DecodeValue(d)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeMap(raw any) (interp.Value, error) {
	entries, ok := asDocSlice(raw)
	if !ok {
		return interp.NewMapValue(nil, nil), nil
	}
	keys := make([]interp.Value, 0, len(entries))
	vals := make([]interp.Value, 0, len(entries))
	for _, e := range entries {
		keyDoc, _ := asDoc(e["key"])
		valDoc, _ := asDoc(e["value"])
		k, err := DecodeValue(keyDoc)
		if err != nil {
			return nil, err
		}
		v, err := DecodeValue(valDoc)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
		vals = append(vals, v)
	}
	return interp.NewMapValue(keys, vals), nil
}

func decodeStruct(doc bson.M) (interp.Value, error) {
	typeName, _ := doc["typeName"].(string)
	order := asStringSlice(doc["fieldOrder"])
	fieldsRaw, _ := doc["fields"].(bson.M)
	fields := make(map[string]interp.Value, len(fieldsRaw))
	for name, raw := range fieldsRaw {
		d, _ := asDoc(raw)
		v, err := DecodeValue(d)
		if err != nil {
			return nil, err
		}
		fields[name] = v
	}
	return &interp.StructValue{Type: typeName, Fields: fields, FieldOrder: order}, nil
}

func decodeInductive(doc bson.M) (interp.Value, error) {
	inductiveType, _ := doc["inductiveType"].(string)
	constructor, _ := doc["constructor"].(string)
	args, err := decodeSlice(doc["args"])
	if err != nil {
		return nil, err
	}
	return &interp.InductiveValue{InductiveType: inductiveType, Constructor: constructor, Args: args}, nil
}

func asDoc(raw any) (bson.M, bool) {
	m, ok := raw.(bson.M)
	if ok {
		return m, true
	}
	d, ok := raw.(bson.D)
	if ok {
		return d.Map(), true
	}
	return bson.M{}, false
}

func asDocSlice(raw any) ([]bson.M, bool) {
	switch t := raw.(type) {
	case []bson.M:
		return t, true
	case bson.A:
		out := make([]bson.M, 0, len(t))
		for _, e := range t {
			if d, ok := asDoc(e); ok {
				out = append(out, d)
			}
		}
		return out, true
	case []any:
		out := make([]bson.M, 0, len(t))
		for _, e := range t {
			if d, ok := asDoc(e); ok {
				out = append(out, d)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func asStringSlice(raw any) []string {
	switch t := raw.(type) {
	case []string:
		return t
	case bson.A:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toInt64(raw any) int64 {
	switch t := raw.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}

func toFloat64(raw any) float64 {
	switch t := raw.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	default:
		return 0
	}
}
