package bank

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Normalize validates a decoded JSON value and returns the canonical
// question list. Rules are checked root first, then question by question in
// source order; the first violation is returned as a *ValidationError.
//
// Numbers may arrive as json.Number (see Decode) or float64. Normalize never
// repairs or drops a malformed question and is deterministic for equal input.
func Normalize(raw any) ([]Question, error) {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil, &ValidationError{Kind: KindRootArray}
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]Question, 0, len(items))
	for i, item := range items {
		q, err := normalizeQuestion(i+1, item, seen)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func normalizeQuestion(index int, item any, seen map[string]struct{}) (Question, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return Question{}, &ValidationError{Kind: KindQuestionObject, Index: index}
	}

	id, ok := questionID(index, obj["id"])
	if !ok {
		return Question{}, &ValidationError{Kind: KindInvalidID, Index: index}
	}
	key := id.String()
	if _, dup := seen[key]; dup {
		return Question{}, &ValidationError{Kind: KindDuplicateID, Index: index, ID: key}
	}
	seen[key] = struct{}{}

	text, ok := obj["question"].(string)
	if !ok || text == "" {
		return Question{}, &ValidationError{Kind: KindInvalidQuestionText, Index: index, ID: key}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Question{}, &ValidationError{Kind: KindEmptyQuestionText, Index: index, ID: key}
	}

	rawOptions, ok := obj["options"].([]any)
	if !ok || len(rawOptions) < 2 {
		return Question{}, &ValidationError{Kind: KindMinOptions, Index: index, ID: key}
	}

	options := make([]Option, 0, len(rawOptions))
	correctCount := 0
	for j, rawOpt := range rawOptions {
		opt, err := normalizeOption(index, j+1, key, rawOpt)
		if err != nil {
			return Question{}, err
		}
		if opt.Correct {
			correctCount++
		}
		options = append(options, opt)
	}
	if correctCount != 1 {
		return Question{}, &ValidationError{Kind: KindOneCorrect, Index: index, ID: key}
	}

	explanation := ""
	if s, ok := obj["explanation"].(string); ok {
		explanation = strings.TrimSpace(s)
	}

	return Question{
		ID:          id,
		Category:    categoryLabel(obj["category"]),
		Question:    text,
		Explanation: explanation,
		Options:     options,
	}, nil
}

func normalizeOption(index, optIndex int, questionKey string, raw any) (Option, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Option{}, &ValidationError{Kind: KindInvalidOption, Index: index, OptionIndex: optIndex, ID: questionKey}
	}

	text, _ := scalarText(obj["text"])
	if text == "" {
		return Option{}, &ValidationError{Kind: KindEmptyOptionText, Index: index, OptionIndex: optIndex, ID: questionKey}
	}

	correct, ok := obj["correct"].(bool)
	if !ok {
		return Option{}, &ValidationError{Kind: KindOptionBoolean, Index: index, OptionIndex: optIndex, ID: questionKey}
	}

	explanation := DefaultOptionExplanation
	if s, ok := obj["explanation"].(string); ok && strings.TrimSpace(s) != "" {
		explanation = strings.TrimSpace(s)
	}

	return Option{
		ID:          fmt.Sprintf("%s-opt-%d", questionKey, optIndex),
		Text:        text,
		Correct:     correct,
		Explanation: explanation,
	}, nil
}

// questionID resolves the effective id of the question at index.
// A missing or null id is synthesized; strings must be non-empty.
func questionID(index int, raw any) (QuestionID, bool) {
	switch v := raw.(type) {
	case nil:
		return StringID(fmt.Sprintf("q-%d", index)), true
	case string:
		if strings.TrimSpace(v) == "" {
			return QuestionID{}, false
		}
		return StringID(v), true
	case json.Number:
		id, err := NumberID(v)
		return id, err == nil
	case float64:
		id, err := NumberID(json.Number(strconv.FormatFloat(v, 'f', -1, 64)))
		return id, err == nil
	}
	return QuestionID{}, false
}

// scalarText renders strings and numbers as trimmed text.
func scalarText(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func categoryLabel(raw any) string {
	if s, ok := scalarText(raw); ok && s != "" {
		return s
	}
	return DefaultCategory
}
