package postservice

import (
	"github.com/sushihentaime/postline/internal/common"
	"github.com/sushihentaime/postline/internal/slug"
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, 200), "title", "must not be more than 200 characters long")
	v.Check(slug.Generate(title) != "", "title", "must contain at least one letter or number")
}

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
}

func validateExcerpt(v *common.Validator, excerpt string) {
	v.Check(v.CheckStringLength(excerpt, 0, 500), "excerpt", "must not be more than 500 characters long")
}

func validateImage(v *common.Validator, url, field string) {
	v.Check(v.CheckURL(url), field, "must be a valid http or https URL")
}

func validatePostInput(v *common.Validator, in *PostInput) {
	validateTitle(v, in.Title)
	validateContent(v, in.Content)
	validateExcerpt(v, in.Excerpt)
	validateImage(v, in.FeaturedImage, "featured_image")
	validateImage(v, in.BannerImage, "banner_image")
}
