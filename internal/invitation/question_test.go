package invitation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQuestionKind(t *testing.T) {
	kind, err := ParseQuestionKind("Single_Choice")
	require.NoError(t, err)
	require.Equal(t, KindSingleChoice, kind)

	_, err = ParseQuestionKind("dropdown")
	require.Error(t, err)
}

func TestValidateAnswersRequiredText(t *testing.T) {
	questions := []Question{
		{ID: "q1", Kind: KindShortText, Required: true},
		{ID: "q2", Kind: KindLongText, Required: false},
	}
	errs := ValidateAnswers(questions, []Answer{{QuestionID: "q1", Text: "  "}})
	require.Len(t, errs, 1)
	require.Equal(t, "q1", errs[0].QuestionID)

	errs = ValidateAnswers(questions, []Answer{{QuestionID: "q1", Text: "blue"}})
	require.Empty(t, errs)
}

func TestValidateAnswersChoices(t *testing.T) {
	questions := []Question{
		{ID: "size", Kind: KindSingleChoice, Required: true, Options: []string{"S", "M", "L"}},
		{ID: "days", Kind: KindMultiChoice, Required: true, Options: []string{"mon", "wed", "fri"}},
	}

	errs := ValidateAnswers(questions, []Answer{
		{QuestionID: "size", Selections: []string{"XL"}},
		{QuestionID: "days", Selections: []string{"mon", "sun"}},
	})
	require.Len(t, errs, 2)

	errs = ValidateAnswers(questions, []Answer{
		{QuestionID: "size", Selections: []string{"M"}},
		{QuestionID: "days", Selections: []string{"mon", "fri"}},
	})
	require.Empty(t, errs)
}

func TestValidateAnswersSingleChoiceRejectsMultiple(t *testing.T) {
	questions := []Question{{ID: "size", Kind: KindSingleChoice, Required: true, Options: []string{"S", "M"}}}
	errs := ValidateAnswers(questions, []Answer{{QuestionID: "size", Selections: []string{"S", "M"}}})
	require.Len(t, errs, 1)
}

func TestValidateAnswersBoolean(t *testing.T) {
	questions := []Question{{ID: "photo", Kind: KindBoolean, Required: true}}

	errs := ValidateAnswers(questions, nil)
	require.Len(t, errs, 1)

	no := false
	errs = ValidateAnswers(questions, []Answer{{QuestionID: "photo", Flag: &no}})
	require.Empty(t, errs, "an explicit false is a valid answer")
}

func TestValidateAnswersCollectsAllFields(t *testing.T) {
	questions := []Question{
		{ID: "q1", Kind: KindShortText, Required: true},
		{ID: "q2", Kind: KindBoolean, Required: true},
		{ID: "q3", Kind: KindShortText, Required: false},
	}
	errs := ValidateAnswers(questions, nil)
	require.Len(t, errs, 2, "only the offending required fields are reported")
}
