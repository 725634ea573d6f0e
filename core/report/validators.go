package report

import (
	"github.com/go-playground/validator/v10"

	"github.com/lusambya/kazi/core"
)

var (
	typeTag  = "reporttype"
	typeText = "invalid report type"
)

func init() {
	_ = core.Validate.RegisterValidation(typeTag, typeValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, typeTag, typeText)
}

// typeValidation only allows known report types.
func typeValidation(fl validator.FieldLevel) bool {
	return Type(fl.Field().String()).IsValid()
}
