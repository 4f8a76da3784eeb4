package predict

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Result is one classifier answer. It is projected straight into the display
// and never stored.
//
// Fields are not validated: a value of the wrong type is kept as text so the
// page can still show what the classifier sent.
type Result struct {
	Prediction Text       `json:"prediction"`
	Confidence Confidence `json:"confidence"`
	Top        Guesses    `json:"top,omitempty"`
}

// Guess is one ranked alternative label.
type Guess struct {
	Label      Text       `json:"label"`
	Confidence Confidence `json:"confidence"`
}

// Guesses is the ranked list. Anything but a JSON array decodes as empty.
type Guesses []Guess

// UnmarshalJSON ignores non-array values.
func (gs *Guesses) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		*gs = nil
		return nil
	}
	var list []Guess
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*gs = list
	return nil
}

// Text is a label as sent by the classifier. JSON strings decode as-is, null
// decodes empty, and any other value keeps its raw JSON text (123, true, {...}).
type Text string

// UnmarshalJSON never fails on well-formed JSON.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(b)
	}
	return nil
}

// Confidence is a score in [0,1]. It decodes from a JSON number, a numeric
// string or a boolean (1/0); anything else (including a missing field) becomes NaN.
type Confidence float64

// NaN reports whether the value could not be coerced to a number.
func (c Confidence) NaN() bool { return math.IsNaN(float64(c)) }

// UnmarshalJSON coerces numbers, numeric strings, booleans and null.
func (c *Confidence) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = Confidence(math.NaN())
		return nil
	case bytes.Equal(b, []byte("true")):
		*c = 1
		return nil
	case bytes.Equal(b, []byte("false")):
		*c = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*c = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*c = Confidence(math.NaN())
			return nil
		}
		*c = Confidence(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*c = Confidence(math.NaN())
		return nil
	}
	*c = Confidence(f)
	return nil
}

// UnmarshalJSON defaults a missing confidence to NaN instead of 0.
func (r *Result) UnmarshalJSON(b []byte) error {
	type plain Result
	p := plain{Confidence: Confidence(math.NaN())}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = Result(p)
	return nil
}

// UnmarshalJSON defaults a missing confidence to NaN instead of 0. An entry
// that is not an object becomes an empty label with NaN confidence.
func (g *Guess) UnmarshalJSON(b []byte) error {
	type plain Guess
	p := plain{Confidence: Confidence(math.NaN())}
	if err := json.Unmarshal(b, &p); err != nil {
		*g = Guess{Confidence: Confidence(math.NaN())}
		return nil
	}
	*g = Guess(p)
	return nil
}

// ErrorKind classifies a failed prediction call.
type ErrorKind string

const (
	KindEncode    ErrorKind = "encode"
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindDecode    ErrorKind = "decode"
)

// Error is returned by Client.Predict for every failure.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("predict: status %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("predict: %s: %v", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a predict *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}
