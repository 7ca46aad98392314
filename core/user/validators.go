package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sejali/core"
)

var roleTag = "role"

// InitValidators registers the validation tags used by this package's request types.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterEnumValidation(validate, translator, roleTag, roleValues()...)
}
