package intent

import (
	"bytes"
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

var (
	// ErrEmpty is returned for a zero-length or all-whitespace payload.
	ErrEmpty = errors.New("empty payload")

	// ErrNotStructured is returned when the payload does not start with '{' or '['.
	ErrNotStructured = errors.New("payload is not structured")

	// ErrMalformed is returned when the payload is not valid UTF-8 JSON.
	ErrMalformed = errors.New("malformed payload")
)

// Drop reasons, used as metric labels.
const (
	ReasonEmpty         = "empty"
	ReasonNotStructured = "not_structured"
	ReasonMalformed     = "malformed"
)

// DecodeError wraps one of the sentinel errors with its drop reason.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode intent: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Command is one decoded inbound message.
type Command struct {
	// Name is the raw intent name as sent.
	Name     string
	ActionID string
	Params   Params
	Intent   Kind
}

// Decode parses {"intent": ..., "action_id": ..., "params": {...}}.
// Missing or non-string intent/action_id become "". Missing or non-object
// params become empty. A top-level array is valid but carries no fields.
func Decode(payload []byte) (Command, error) {
	trimmed := bytes.TrimLeftFunc(payload, unicode.IsSpace)
	if len(trimmed) == 0 {
		return Command{}, &DecodeError{Reason: ReasonEmpty, Err: ErrEmpty}
	}
	if c := trimmed[0]; c != '{' && c != '[' {
		return Command{}, &DecodeError{Reason: ReasonNotStructured, Err: ErrNotStructured}
	}
	if !utf8.Valid(trimmed) || !gjson.ValidBytes(trimmed) {
		return Command{}, &DecodeError{Reason: ReasonMalformed, Err: ErrMalformed}
	}

	doc := gjson.ParseBytes(trimmed)
	cmd := Command{
		Name:     stringField(doc, "intent"),
		ActionID: stringField(doc, "action_id"),
		Params:   Params{},
	}
	cmd.Intent = Lookup(cmd.Name)

	if params := doc.Get("params"); doc.IsObject() && params.IsObject() {
		params.ForEach(func(key, value gjson.Result) bool {
			cmd.Params[key.String()] = value.Value()
			return true
		})
	}

	return cmd, nil
}

// Reason returns the drop reason of a Decode error, or "" for other errors.
func Reason(err error) string {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}

func stringField(doc gjson.Result, key string) string {
	if !doc.IsObject() {
		return ""
	}
	if v := doc.Get(key); v.Type == gjson.String {
		return v.Str
	}
	return ""
}
