package bank

import "fmt"

// Kind identifies which validation rule a question bank violated.
type Kind string

const (
	KindRootArray           Kind = "root_array"
	KindQuestionObject      Kind = "question_object"
	KindInvalidID           Kind = "invalid_id"
	KindDuplicateID         Kind = "duplicate_id"
	KindInvalidQuestionText Kind = "invalid_question_text"
	KindEmptyQuestionText   Kind = "empty_question_text"
	KindMinOptions          Kind = "min_options"
	KindInvalidOption       Kind = "invalid_option"
	KindEmptyOptionText     Kind = "empty_option_text"
	KindOptionBoolean       Kind = "option_boolean"
	KindOneCorrect          Kind = "one_correct"
)

// Sentinels for errors.Is matching. Only Kind is compared.
var (
	ErrRootArray           = &ValidationError{Kind: KindRootArray}
	ErrQuestionObject      = &ValidationError{Kind: KindQuestionObject}
	ErrInvalidID           = &ValidationError{Kind: KindInvalidID}
	ErrDuplicateID         = &ValidationError{Kind: KindDuplicateID}
	ErrInvalidQuestionText = &ValidationError{Kind: KindInvalidQuestionText}
	ErrEmptyQuestionText   = &ValidationError{Kind: KindEmptyQuestionText}
	ErrMinOptions          = &ValidationError{Kind: KindMinOptions}
	ErrInvalidOption       = &ValidationError{Kind: KindInvalidOption}
	ErrEmptyOptionText     = &ValidationError{Kind: KindEmptyOptionText}
	ErrOptionBoolean       = &ValidationError{Kind: KindOptionBoolean}
	ErrOneCorrect          = &ValidationError{Kind: KindOneCorrect}
)

// ValidationError describes why a question bank was rejected.
// Index and OptionIndex are 1-based; zero means not applicable.
type ValidationError struct {
	Kind        Kind
	Index       int
	OptionIndex int
	ID          string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindRootArray:
		return "root JSON must be a non-empty array"
	case KindQuestionObject:
		return fmt.Sprintf("question %d must be an object", e.Index)
	case KindInvalidID:
		return fmt.Sprintf("question %d has an invalid id: must be a non-empty string or a number", e.Index)
	case KindDuplicateID:
		return fmt.Sprintf("duplicate id %s", e.ID)
	case KindInvalidQuestionText:
		return fmt.Sprintf("invalid question text at %d", e.Index)
	case KindEmptyQuestionText:
		return fmt.Sprintf("question %d text cannot be empty", e.Index)
	case KindMinOptions:
		return fmt.Sprintf("question %s must include at least two options", e.ID)
	case KindInvalidOption:
		return fmt.Sprintf("invalid option %d in question %s", e.OptionIndex, e.ID)
	case KindEmptyOptionText:
		return fmt.Sprintf("option %d in question %s must include text", e.OptionIndex, e.ID)
	case KindOptionBoolean:
		return fmt.Sprintf("option %d in question %s must include boolean correct", e.OptionIndex, e.ID)
	case KindOneCorrect:
		return fmt.Sprintf("question %s must have exactly one correct option", e.ID)
	}
	return fmt.Sprintf("invalid question bank (%s)", e.Kind)
}

// Is matches another *ValidationError of the same Kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// ParseError reports input that is not JSON at all. Decoding happens
// before validation, so these never carry a Kind.
type ParseError struct {
	Empty bool
	Err   error
}

func (e *ParseError) Error() string {
	if e.Empty {
		return "question bank is empty"
	}
	return fmt.Sprintf("invalid JSON format: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
