package taxonomyservice

import (
	"github.com/sushihentaime/postline/internal/common"
	"github.com/sushihentaime/postline/internal/slug"
)

func validateName(v *common.Validator, name string) {
	v.Check(name != "", "name", "must be provided")
	v.Check(v.CheckStringLength(name, 1, 50), "name", "must not be more than 50 characters long")
	v.Check(slug.Generate(name) != "", "name", "must contain at least one letter or number")
}

func validateDescription(v *common.Validator, description string) {
	v.Check(v.CheckStringLength(description, 0, 500), "description", "must not be more than 500 characters long")
}
