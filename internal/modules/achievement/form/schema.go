package form

import "unicode/utf8"

// Field paths used in error maps.
const (
	FieldTitle           = "title"
	FieldDescription     = "description"
	FieldCertificateType = "certificate_type"
	FieldImage           = "image"
)

// Validation messages, verbatim from the module's UI contract.
const (
	MsgTitleRequired         = "Title is required"
	MsgTitleTooLong          = "Title must be at most 255 characters"
	MsgDescriptionRequired   = "Description is required"
	MsgDescriptionTooLong    = "Description must be at most 1000 characters"
	MsgCertificateTypeNeeded = "Certificate type is required"
	MsgImageRequired         = "Image is required"
	MsgImageTypeNotSupported = "The Uploaded file type is not supported."
)

const (
	titleMaxLen       = 255
	descriptionMaxLen = 1000
)

// FieldErrors maps a field path to its validation messages.
type FieldErrors map[string][]string

// Result is the outcome of validating a whole form.
type Result struct {
	Errors FieldErrors
}

// Valid reports whether no field failed.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// rule evaluates one field against a form snapshot and returns its messages.
type rule func(Form) []string

// Schema is a declarative set of per-field rules. Rules run independently;
// form validity is the AND of all field validities.
type Schema struct {
	order []string
	rules map[string]rule
}

// SchemaFor returns the badge or certificate schema.
func SchemaFor(kind Kind) Schema {
	s := Schema{rules: map[string]rule{}}
	s.add(FieldTitle, titleRule)
	s.add(FieldDescription, descriptionRule)
	if kind == KindCertificate {
		s.add(FieldCertificateType, certificateTypeRule)
	}
	s.add(FieldImage, imageRule)
	return s
}

func (s *Schema) add(field string, r rule) {
	s.order = append(s.order, field)
	s.rules[field] = r
}

// Fields returns the field paths the schema covers, in declaration order.
func (s Schema) Fields() []string { return s.order }

// Validate runs every rule; each field fails or passes on its own.
func (s Schema) Validate(f Form) Result {
	errs := FieldErrors{}
	for _, field := range s.order {
		if msgs := s.rules[field](f); len(msgs) > 0 {
			errs[field] = msgs
		}
	}
	return Result{Errors: errs}
}

// ValidateField re-runs the rule for a single field. Unknown fields have no
// rule and therefore no errors.
func (s Schema) ValidateField(f Form, field string) []string {
	r, ok := s.rules[field]
	if !ok {
		return nil
	}
	return r(f)
}

func titleRule(f Form) []string {
	if f.Title == "" {
		return []string{MsgTitleRequired}
	}
	if utf8.RuneCountInString(f.Title) > titleMaxLen {
		return []string{MsgTitleTooLong}
	}
	return nil
}

func descriptionRule(f Form) []string {
	if f.Description == "" {
		return []string{MsgDescriptionRequired}
	}
	if utf8.RuneCountInString(f.Description) > descriptionMaxLen {
		return []string{MsgDescriptionTooLong}
	}
	return nil
}

func certificateTypeRule(f Form) []string {
	if f.CertificateType == "" {
		return []string{MsgCertificateTypeNeeded}
	}
	return nil
}

// imageRule mirrors the original mixed-type check: a string reference is
// trusted as already uploaded, a pending file must declare an image/* MIME.
func imageRule(f Form) []string {
	if f.Image.IsZero() {
		return []string{MsgImageRequired}
	}
	if f.Image.Resolved() {
		return nil
	}
	if !f.Image.File.IsImage() {
		return []string{MsgImageTypeNotSupported}
	}
	return nil
}
