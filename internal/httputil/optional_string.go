package httputil

import (
	"bytes"
	"encoding/json"
)

// Optional tracks presence for JSON merge-patch fields (RFC 7396), which a
// plain pointer cannot:
//   - Present=false: field absent, leave unchanged
//   - Present=true, Value=nil: field is JSON null, clear it
//   - Present=true, Value!=nil: set it
type Optional[T any] struct {
	Present bool
	Value   *T
}

// OptionalString is the PATCH form of a nullable text column such as a
// project description.
type OptionalString = Optional[string]

// UnmarshalJSON is only called when the key is present in the body.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
