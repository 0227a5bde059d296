package form

import (
	"strings"
	"testing"

	"github.com/achievement-space/core/internal/modules/achievement/content"
	"github.com/stretchr/testify/assert"
)

func validBadgeForm() Form {
	return Form{
		Kind:        KindBadge,
		Title:       "Go Pioneer",
		Description: "Awarded for shipping the first service",
		Image:       ImageValue{URL: "uploads/badges/pioneer.png"},
	}
}

func validCertificateForm() Form {
	f := Form{
		Kind:            KindCertificate,
		Title:           "Completion Certificate",
		Description:     "Finished the onboarding track",
		CertificateType: "completion",
		Image:           ImageValue{URL: "uploads/certs/bg.png"},
		Contents:        content.List{},
		SafeZone:        content.DefaultSafeZone(),
	}
	return f
}

func TestTitleRule(t *testing.T) {
	schema := SchemaFor(KindBadge)

	f := validBadgeForm()
	f.Title = ""
	res := schema.Validate(f)
	assert.False(t, res.Valid())
	assert.Equal(t, []string{MsgTitleRequired}, res.Errors[FieldTitle])

	f.Title = strings.Repeat("a", 256)
	res = schema.Validate(f)
	assert.Equal(t, []string{MsgTitleTooLong}, res.Errors[FieldTitle])

	f.Title = strings.Repeat("a", 255)
	res = schema.Validate(f)
	assert.Empty(t, res.Errors[FieldTitle])
	assert.True(t, res.Valid())
}

func TestDescriptionRule(t *testing.T) {
	schema := SchemaFor(KindBadge)

	f := validBadgeForm()
	f.Description = ""
	res := schema.Validate(f)
	assert.Equal(t, []string{MsgDescriptionRequired}, res.Errors[FieldDescription])

	f.Description = strings.Repeat("d", 1001)
	res = schema.Validate(f)
	assert.Equal(t, []string{MsgDescriptionTooLong}, res.Errors[FieldDescription])

	f.Description = strings.Repeat("d", 1000)
	assert.True(t, schema.Validate(f).Valid())
}

func TestCertificateTypeRule(t *testing.T) {
	schema := SchemaFor(KindCertificate)

	f := validCertificateForm()
	f.CertificateType = ""
	res := schema.Validate(f)
	assert.Equal(t, []string{MsgCertificateTypeNeeded}, res.Errors[FieldCertificateType])

	// badge schema has no certificate_type rule at all
	badge := SchemaFor(KindBadge)
	assert.NotContains(t, badge.Fields(), FieldCertificateType)
}

func TestImageRule(t *testing.T) {
	schema := SchemaFor(KindBadge)

	f := validBadgeForm()
	f.Image = ImageValue{}
	res := schema.Validate(f)
	assert.Equal(t, []string{MsgImageRequired}, res.Errors[FieldImage])

	// image is required regardless of other fields
	f.Title = ""
	res = schema.Validate(f)
	assert.Equal(t, []string{MsgImageRequired}, res.Errors[FieldImage])

	// string references are trusted unconditionally
	f = validBadgeForm()
	f.Image = ImageValue{URL: "existing/url.png"}
	assert.Empty(t, schema.Validate(f).Errors[FieldImage])

	// pending files are gated on the declared media type
	f.Image = ImageValue{File: &content.PendingFile{Name: "cv.pdf", MIME: "application/pdf"}}
	res = schema.Validate(f)
	assert.Equal(t, []string{MsgImageTypeNotSupported}, res.Errors[FieldImage])

	f.Image = ImageValue{File: &content.PendingFile{Name: "badge.png", MIME: "image/png"}}
	assert.Empty(t, schema.Validate(f).Errors[FieldImage])
}

func TestRulesEvaluateIndependently(t *testing.T) {
	schema := SchemaFor(KindCertificate)

	res := schema.Validate(Form{Kind: KindCertificate})
	assert.False(t, res.Valid())
	assert.Len(t, res.Errors, 4)
	assert.Contains(t, res.Errors, FieldTitle)
	assert.Contains(t, res.Errors, FieldDescription)
	assert.Contains(t, res.Errors, FieldCertificateType)
	assert.Contains(t, res.Errors, FieldImage)
}

func TestValidateField(t *testing.T) {
	schema := SchemaFor(KindBadge)
	f := validBadgeForm()
	f.Title = ""

	assert.Equal(t, []string{MsgTitleRequired}, schema.ValidateField(f, FieldTitle))
	assert.Empty(t, schema.ValidateField(f, FieldDescription))
	assert.Empty(t, schema.ValidateField(f, "no_such_field"))
}
