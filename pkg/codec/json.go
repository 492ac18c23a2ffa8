// Package codec provides request decoding and response encoding for the REST transport.
package codec

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// JSONCodec is a codec that uses JSON for marshaling and unmarshaling.
// T is the request payload type and U the response type.
type JSONCodec[T any, U any] struct{}

// NewJSONCodec creates a new JSONCodec instance for the specified types.
func NewJSONCodec[T any, U any]() *JSONCodec[T, U] {
	return &JSONCodec[T, U]{}
}

// Decode decodes the request body into a value of type T.
// An empty body decodes to the zero value.
func (c *JSONCodec[T, U]) Decode(r *http.Request) (T, error) {
	var data T
	if r.Body == nil {
		return data, nil
	}
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return data, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return data, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&data); err != nil {
		return data, err
	}
	return data, nil
}

// Encode writes resp as JSON with the given status code.
func (c *JSONCodec[T, U]) Encode(w http.ResponseWriter, status int, resp U) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}
