package bank

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaURL = "schema://quizpulse/question-bank.json"

// BankSchema is the published JSON Schema for question bank files. It is
// advisory: Normalize remains the authority on what imports.
var BankSchema = map[string]any{
	"$schema":  "https://json-schema.org/draft/2020-12/schema",
	"title":    "QuizPulse question bank",
	"type":     "array",
	"minItems": 1,
	"items": map[string]any{
		"type":     "object",
		"required": []any{"question", "options"},
		"properties": map[string]any{
			"id":          map[string]any{"type": []any{"string", "number", "null"}, "minLength": 1},
			"category":    map[string]any{},
			"question":    map[string]any{"type": "string", "pattern": `\S`},
			"explanation": map[string]any{},
			"options": map[string]any{
				"type":     "array",
				"minItems": 2,
				"items": map[string]any{
					"type":     "object",
					"required": []any{"text", "correct"},
					"properties": map[string]any{
						"text":        map[string]any{"type": []any{"string", "number"}, "pattern": `\S`},
						"correct":     map[string]any{"type": "boolean"},
						"explanation": map[string]any{},
					},
				},
				"contains": map[string]any{
					"type":       "object",
					"required":   []any{"correct"},
					"properties": map[string]any{"correct": map[string]any{"const": true}},
				},
				"minContains": 1,
				"maxContains": 1,
			},
		},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// LintError lists every schema problem found in a question bank.
type LintError struct {
	Problems []string
}

func (e *LintError) Error() string {
	return fmt.Sprintf("question bank has %d schema problem(s):\n  %s",
		len(e.Problems), strings.Join(e.Problems, "\n  "))
}

// Lint checks a decoded value against BankSchema and reports all problems
// at once, unlike Normalize which stops at the first.
func Lint(raw any) error {
	sch, err := bankSchema()
	if err != nil {
		return err
	}

	err = sch.Validate(raw)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate question bank: %w", err)
	}

	p := message.NewPrinter(language.English)
	lint := &LintError{}
	collectProblems(ve, p, lint)
	return lint
}

func collectProblems(ve *jsonschema.ValidationError, p *message.Printer, out *LintError) {
	if len(ve.Causes) == 0 {
		out.Problems = append(out.Problems, fmt.Sprintf("/%s: %s",
			strings.Join(ve.InstanceLocation, "/"), ve.ErrorKind.LocalizedString(p)))
		return
	}
	for _, c := range ve.Causes {
		collectProblems(c, p, out)
	}
}

func bankSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler expects a decoded JSON value, not Go literals.
		defBytes, err := json.Marshal(BankSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal bank schema: %w", err)
			return
		}
		var def any
		if err := json.Unmarshal(defBytes, &def); err != nil {
			compileErr = fmt.Errorf("parse bank schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile bank schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}
