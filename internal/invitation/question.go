package invitation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionKind enumerates the finite set of custom question types. The kind
// is a closed tagged variant rather than a free-form string so an unknown
// value is rejected at the boundary instead of silently rendering nothing.
type QuestionKind int

const (
	KindShortText QuestionKind = iota
	KindLongText
	KindSingleChoice
	KindMultiChoice
	KindBoolean
)

var questionKindNames = map[QuestionKind]string{
	KindShortText:    "short_text",
	KindLongText:     "long_text",
	KindSingleChoice: "single_choice",
	KindMultiChoice:  "multi_choice",
	KindBoolean:      "boolean",
}

func (k QuestionKind) String() string {
	if name, ok := questionKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseQuestionKind maps a stored kind string onto the variant.
func ParseQuestionKind(raw string) (QuestionKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for kind, name := range questionKindNames {
		if name == normalized {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown question kind %q", raw)
}

// MarshalJSON renders the kind as its canonical name.
func (k QuestionKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses the canonical name back into the variant.
func (k *QuestionKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseQuestionKind(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Question is a program-defined custom question answered during the wizard.
type Question struct {
	ID       string       `json:"id"`
	Prompt   string       `json:"prompt"`
	Kind     QuestionKind `json:"kind"`
	Required bool         `json:"required"`
	Options  []string     `json:"options,omitempty"`
}

// Answer holds a parent's response to one question. Which field is populated
// depends on the question kind.
type Answer struct {
	QuestionID string   `json:"questionId"`
	Text       string   `json:"text,omitempty"`
	Selections []string `json:"selections,omitempty"`
	Flag       *bool    `json:"flag,omitempty"`
}

// FieldError describes a validation failure for a single question. Only the
// offending fields block forward navigation; valid answers pass through.
type FieldError struct {
	QuestionID string `json:"questionId"`
	Message    string `json:"message"`
}

// ValidateAnswers checks the answers against the question definitions and
// collects per-field errors instead of failing on the first problem.
func ValidateAnswers(questions []Question, answers []Answer) []FieldError {
	byQuestion := make(map[string]Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	var errs []FieldError
	for _, q := range questions {
		answer, answered := byQuestion[q.ID]
		switch q.Kind {
		case KindShortText, KindLongText:
			if q.Required && (!answered || strings.TrimSpace(answer.Text) == "") {
				errs = append(errs, FieldError{QuestionID: q.ID, Message: "an answer is required"})
			}
		case KindSingleChoice:
			if !answered || len(answer.Selections) == 0 {
				if q.Required {
					errs = append(errs, FieldError{QuestionID: q.ID, Message: "a selection is required"})
				}
				continue
			}
			if len(answer.Selections) > 1 {
				errs = append(errs, FieldError{QuestionID: q.ID, Message: "only one option may be selected"})
				continue
			}
			if !containsOption(q.Options, answer.Selections[0]) {
				errs = append(errs, FieldError{QuestionID: q.ID, Message: "selection is not one of the options"})
			}
		case KindMultiChoice:
			if !answered || len(answer.Selections) == 0 {
				if q.Required {
					errs = append(errs, FieldError{QuestionID: q.ID, Message: "at least one selection is required"})
				}
				continue
			}
			for _, sel := range answer.Selections {
				if !containsOption(q.Options, sel) {
					errs = append(errs, FieldError{QuestionID: q.ID, Message: fmt.Sprintf("selection %q is not one of the options", sel)})
					break
				}
			}
		case KindBoolean:
			if q.Required && (!answered || answer.Flag == nil) {
				errs = append(errs, FieldError{QuestionID: q.ID, Message: "an answer is required"})
			}
		}
	}
	return errs
}

func containsOption(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
