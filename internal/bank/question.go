package bank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// DefaultCategory is assigned to questions that do not name a category.
const DefaultCategory = "General"

// DefaultOptionExplanation is used for options without an explanation.
const DefaultOptionExplanation = "No explanation provided."

// Question is a validated, canonical quiz question.
// Field order is significant: it fixes the JSON form used for fingerprints.
type Question struct {
	// ID is the caller-supplied id, or q-<ordinal> when the source had none.
	ID QuestionID `json:"id"`

	// Category groups questions for filtering. Never empty.
	Category string `json:"category"`

	// Question is the trimmed prompt text.
	Question string `json:"question"`

	// Explanation is an optional trimmed question-level explanation.
	Explanation string `json:"explanation"`

	// Options holds two or more choices, exactly one of them correct.
	Options []Option `json:"options"`
}

// Option is one answer choice of a Question.
type Option struct {
	// ID is derived as <questionID>-opt-<ordinal>, 1-based.
	ID          string `json:"id"`
	Text        string `json:"text"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation"`
}

// Key returns the stringified question id used to key statistics.
func (q Question) Key() string {
	return q.ID.String()
}

// CorrectOption returns the option marked correct.
func (q Question) CorrectOption() (Option, bool) {
	for _, o := range q.Options {
		if o.Correct {
			return o, true
		}
	}
	return Option{}, false
}

// Option returns the option with the given id.
func (q Question) Option(id string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Clone returns a deep copy of q. Options do not share backing storage.
func (q Question) Clone() Question {
	c := q
	c.Options = make([]Option, len(q.Options))
	copy(c.Options, q.Options)
	return c
}

// CloneAll deep-copies a question slice.
func CloneAll(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = q.Clone()
	}
	return out
}

// QuestionID is a question identifier as it appeared in the source JSON:
// either a string or a number. Numeric ids keep their number form when
// serialized so a normalized bank round-trips unchanged.
type QuestionID struct {
	value   string
	numeric bool
}

// StringID returns a string question id.
func StringID(s string) QuestionID {
	return QuestionID{value: s}
}

// NumberID returns a numeric question id. Integral values are rendered
// without a fractional part, so 1 and 1.0 produce the same id.
func NumberID(n json.Number) (QuestionID, error) {
	if i, err := n.Int64(); err == nil {
		return QuestionID{value: strconv.FormatInt(i, 10), numeric: true}, nil
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return QuestionID{}, fmt.Errorf("invalid numeric id %q", n.String())
	}
	return QuestionID{value: strconv.FormatFloat(f, 'f', -1, 64), numeric: true}, nil
}

// String returns the id as text.
func (id QuestionID) String() string {
	return id.value
}

// IsNumber reports whether the id was numeric in the source.
func (id QuestionID) IsNumber() bool {
	return id.numeric
}

// IsZero reports whether id is unset.
func (id QuestionID) IsZero() bool {
	return id.value == "" && !id.numeric
}

func (id QuestionID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("question id: %w", err)
		}
		*id = StringID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("question id: %w", err)
	}
	parsed, err := NumberID(n)
	if err != nil {
		return fmt.Errorf("question id: %w", err)
	}
	*id = parsed
	return nil
}
