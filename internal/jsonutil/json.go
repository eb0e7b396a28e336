package jsonutil

import (
	"encoding/json"
	"io"
)

// EncodePretty writes v as indented JSON to w, without HTML escaping.
func EncodePretty(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
