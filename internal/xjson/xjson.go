package xjson

import (
	"io"

	gjson "github.com/goccy/go-json"
)

// Marshal/Unmarshal wrappers keep a single import site for JSON so artifacts,
// traces and graph documents are all encoded by the same library.

func Marshal(v interface{}) ([]byte, error) {
	return gjson.Marshal(v)
}

func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gjson.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v interface{}) error {
	return gjson.Unmarshal(data, v)
}

// Normalize round-trips v through JSON so nested structs become plain
// map[string]interface{} / []interface{} values.
func Normalize(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	data, err := gjson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := gjson.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func NewEncoder(w io.Writer) *gjson.Encoder {
	return gjson.NewEncoder(w)
}

func NewDecoder(r io.Reader) *gjson.Decoder {
	return gjson.NewDecoder(r)
}

// RawMessage is kept compatible with encoding/json's RawMessage type.
type RawMessage = gjson.RawMessage
