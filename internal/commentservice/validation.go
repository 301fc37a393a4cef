package commentservice

import (
	"errors"

	"github.com/sushihentaime/postline/internal/common"
)

const maxContentLength = 5000

// errParentGone is returned by the model when the parent was deleted between the check and
// the insert.
var errParentGone = errors.New("parent comment does not exist")

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
	v.Check(v.CheckStringLength(content, 0, maxContentLength), "content", "must not be more than 5000 characters long")
}

func parentError(message string) error {
	return common.ValidationError{Errors: map[string]string{"parent_id": message}}
}
