package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sejali/core"
)

var quizTypeTag = "quiztype"

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterEnumValidation(validate, translator, quizTypeTag, string(QuizIntermediate), string(QuizFinal))
}
