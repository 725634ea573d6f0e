package staff

import (
	"github.com/go-playground/validator/v10"

	"github.com/lusambya/kazi/core"
)

var (
	staffRoleTag  = "staffrole"
	staffRoleText = "invalid role"
)

func init() {
	_ = core.Validate.RegisterValidation(staffRoleTag, staffRoleValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, staffRoleTag, staffRoleText)
}

// staffRoleValidation only allows known roles.
func staffRoleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).IsValid()
}
