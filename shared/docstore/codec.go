// shared/docstore/codec.go
package docstore

import (
	"fmt"
	"reflect"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
)

// IDField is the document key field. It is stripped from stored bodies and
// re-attached when decoding.
const IDField = "_id"

// Encode marshals doc into a bson document without its id field.
func Encode(doc any) (bson.D, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	out := d[:0]
	for _, e := range d {
		if e.Key != IDField {
			out = append(out, e)
		}
	}
	return out, nil
}

// EncodeRaw is Encode followed by marshalling to bytes.
func EncodeRaw(doc any) (bson.Raw, error) {
	d, err := Encode(doc)
	if err != nil {
		return nil, err
	}
	raw, err := bson.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return raw, nil
}

// Decode unmarshals a stored body into out with id attached as IDField.
func Decode(raw bson.Raw, id string, out any) error {
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return err
	}
	withID := make(bson.D, 0, len(d)+1)
	withID = append(withID, bson.E{Key: IDField, Value: id})
	for _, e := range d {
		if e.Key != IDField {
			withID = append(withID, e)
		}
	}
	b, err := bson.Marshal(withID)
	if err != nil {
		return err
	}
	return bson.Unmarshal(b, out)
}

// Record is a stored body with its id, as read by a backend.
type Record struct {
	ID   string
	Body bson.Raw
}

// DecodeAll decodes records into out, a pointer to a slice.
func DecodeAll(collection string, records []Record, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("docstore: out must be a pointer to a slice, got %T", out)
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(records))
	for _, rec := range records {
		elem := reflect.New(elemType)
		if err := Decode(rec.Body, rec.ID, elem.Interface()); err != nil {
			return &DecodeError{Collection: collection, ID: rec.ID, Err: err}
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Set(result)
	return nil
}

// Matches reports whether the stored body satisfies the filter.
// A nil filter matches everything.
func Matches(raw bson.Raw, filter *Filter) (bool, error) {
	if filter == nil {
		return true, nil
	}
	val, err := raw.LookupErr(filter.Field)
	if err != nil {
		return false, nil
	}
	t, data, err := bson.MarshalValue(filter.Value)
	if err != nil {
		return false, fmt.Errorf("failed to encode filter value for %s: %w", filter.Field, err)
	}
	want := bson.RawValue{Type: t, Value: data}
	return val.Equal(want), nil
}

// ApplyFields returns body with the given top-level fields set. The id field
// is never written.
func ApplyFields(body bson.Raw, fields map[string]any) (bson.Raw, error) {
	var d bson.D
	if err := bson.Unmarshal(body, &d); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k != IDField {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		replaced := false
		for i := range d {
			if d[i].Key == k {
				d[i].Value = fields[k]
				replaced = true
				break
			}
		}
		if !replaced {
			d = append(d, bson.E{Key: k, Value: fields[k]})
		}
	}
	return bson.Marshal(d)
}
