package benchlog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethpandaops/benchviz/pkg/units"
	"github.com/valyala/fastjson"
)

// Well-known field names shared by every record shape.
const (
	fieldMsg     = "msg"
	fieldModule  = "module"
	fieldTime    = "time"
	fieldVersion = "version"
)

// Record is one decoded log line. It is only valid until the Reader that
// produced it advances.
type Record struct {
	v *fastjson.Value
}

// Msg returns the message discriminator, or "" when absent.
func (r Record) Msg() string {
	return string(r.v.GetStringBytes(fieldMsg))
}

// Module returns the module/source tag, or "" when absent.
func (r Record) Module() string {
	return string(r.v.GetStringBytes(fieldModule))
}

// Has reports whether the record carries a non-null field named key.
func (r Record) Has(key string) bool {
	v := r.v.Get(key)

	return v != nil && v.Type() != fastjson.TypeNull
}

// Object returns the nested object stored under key.
func (r Record) Object(key string) (Record, bool) {
	v := r.v.Get(key)
	if v == nil || v.Type() != fastjson.TypeObject {
		return Record{}, false
	}

	return Record{v: v}, true
}

// Int returns an integer field.
func (r Record) Int(key string) (int64, error) {
	v := r.v.Get(key)
	if v == nil {
		return 0, fmt.Errorf("%w: %q", ErrMissingField, key)
	}

	n, err := v.Int64()
	if err != nil {
		// Counters are occasionally encoded as floats ("1e+06").
		f, ferr := v.Float64()
		if ferr != nil {
			return 0, fmt.Errorf("%w: %q is not an integer: %v", ErrMissingField, key, err)
		}

		return int64(f), nil
	}

	return n, nil
}

// Float returns a numeric field.
func (r Record) Float(key string) (float64, error) {
	v := r.v.Get(key)
	if v == nil {
		return 0, fmt.Errorf("%w: %q", ErrMissingField, key)
	}

	f, err := v.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number: %v", ErrMissingField, key, err)
	}

	return f, nil
}

// String returns a string field.
func (r Record) String(key string) (string, error) {
	v := r.v.Get(key)
	if v == nil {
		return "", fmt.Errorf("%w: %q", ErrMissingField, key)
	}

	b, err := v.StringBytes()
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a string: %v", ErrMissingField, key, err)
	}

	return string(b), nil
}

// Size returns a byte count. Size-strings ("1.2 GB") are normalized, plain
// numbers are taken as bytes.
func (r Record) Size(key string) (int64, error) {
	v := r.v.Get(key)
	if v == nil {
		return 0, fmt.Errorf("%w: %q", ErrMissingField, key)
	}

	if v.Type() == fastjson.TypeString {
		n, err := units.ParseSize(string(v.GetStringBytes()))
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", key, err)
		}

		return n, nil
	}

	return r.Int(key)
}

// Time returns a timestamp field.
func (r Record) Time(key string) (time.Time, error) {
	s, err := r.String(key)
	if err != nil {
		return time.Time{}, err
	}

	t, err := units.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %q: %w", key, err)
	}

	return t, nil
}

// Map copies the whole record into a generic map that outlives the Reader.
func (r Record) Map() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(r.v.MarshalTo(nil), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	return m, nil
}

// fieldReader reads several fields of one record and keeps the first error,
// so extraction rules can read a whole row before checking.
type fieldReader struct {
	rec Record
	err error
}

func (f *fieldReader) getInt(key string) int64 {
	if f.err != nil {
		return 0
	}

	n, err := f.rec.Int(key)
	f.err = err

	return n
}

func (f *fieldReader) getFloat(key string) float64 {
	if f.err != nil {
		return 0
	}

	n, err := f.rec.Float(key)
	f.err = err

	return n
}

func (f *fieldReader) getSize(key string) int64 {
	if f.err != nil {
		return 0
	}

	n, err := f.rec.Size(key)
	f.err = err

	return n
}

func (f *fieldReader) getTime(key string) time.Time {
	if f.err != nil {
		return time.Time{}
	}

	t, err := f.rec.Time(key)
	f.err = err

	return t
}
