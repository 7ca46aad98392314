package activity

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sejali/core"
)

var activityTypeTag = "activitytype"

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	values := make([]string, 0, len(Types))
	for _, t := range Types {
		values = append(values, string(t))
	}
	core.RegisterEnumValidation(validate, translator, activityTypeTag, values...)
}
