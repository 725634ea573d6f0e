package deadline

import (
	"github.com/go-playground/validator/v10"

	"github.com/lusambya/kazi/core"
)

var (
	categoryTag  = "deadlinecategory"
	categoryText = "invalid deadline category"
)

func init() {
	_ = core.Validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, categoryTag, categoryText)
}

// categoryValidation only allows known deadline categories.
func categoryValidation(fl validator.FieldLevel) bool {
	return Category(fl.Field().String()).IsValid()
}
