package form

import (
	"errors"
	"sync"

	"github.com/achievement-space/core/internal/modules/achievement/content"
)

// State is the lifecycle of a form container.
//
//	Pristine -> Editing -> {Valid, Invalid} -> Submitting -> {Succeeded, Failed}
//
// ResetAll returns to Pristine from any state; Editing and Valid/Invalid
// alternate freely per field write; Submitting is entered only from Valid.
type State int

const (
	StatePristine State = iota
	StateEditing
	StateValid
	StateInvalid
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePristine:
		return "pristine"
	case StateEditing:
		return "editing"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadySubmitting rejects a re-entrant submit while one is in flight.
	ErrAlreadySubmitting = errors.New("a submission is already in flight")
	// ErrFormInvalid rejects submission of a form with failing fields.
	ErrFormInvalid = errors.New("form is not valid")
)

// Store is the state container for one edit session. Every field write
// re-runs that field's rule; aggregate validity is the fold over the error
// map. A generation counter guards against stale submission results landing
// after ResetAll.
type Store struct {
	mu     sync.Mutex
	kind   Kind
	schema Schema

	form   Form
	errors FieldErrors
	state  State
	gen    uint64

	detail   *Detail
	response *SubmitResult
}

// NewBadgeStore creates a container with the badge initial defaults.
func NewBadgeStore() *Store { return newStore(KindBadge) }

// NewCertificateStore creates a container with the certificate initial
// defaults (empty contents, 50px safe zone).
func NewCertificateStore() *Store { return newStore(KindCertificate) }

func newStore(kind Kind) *Store {
	return &Store{
		kind:   kind,
		schema: SchemaFor(kind),
		form:   initialForm(kind),
		errors: FieldErrors{},
		state:  StatePristine,
	}
}

// Kind returns the entity kind this container edits.
func (s *Store) Kind() Kind {
	return s.kind
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Form returns a read-only snapshot of the current values.
func (s *Store) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.clone()
}

// Errors returns a copy of the current field error map.
func (s *Store) Errors() FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(FieldErrors, len(s.errors))
	for k, v := range s.errors {
		msgs := make([]string, len(v))
		copy(msgs, v)
		out[k] = msgs
	}
	return out
}

// IsValid reports whether every schema rule currently passes. Fields that
// were never written are still evaluated, so a pristine form with required
// fields is not valid.
func (s *Store) IsValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema.Validate(s.form).Valid()
}

// Detail returns the last server-confirmed record, if any.
func (s *Store) Detail() *Detail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detail
}

// Response returns the last successful submit response, if any.
func (s *Store) Response() *SubmitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.response
}

// SetTitle writes the title and re-runs its rule.
func (s *Store) SetTitle(v string) {
	s.setField(FieldTitle, func(f *Form) { f.Title = v })
}

// SetDescription writes the description and re-runs its rule.
func (s *Store) SetDescription(v string) {
	s.setField(FieldDescription, func(f *Form) { f.Description = v })
}

// SetCertificateType writes the certificate type and re-runs its rule.
func (s *Store) SetCertificateType(v string) {
	s.setField(FieldCertificateType, func(f *Form) { f.CertificateType = v })
}

// SetImageURL sets the primary image to an already-uploaded reference.
func (s *Store) SetImageURL(url string) {
	s.setField(FieldImage, func(f *Form) { f.Image = ImageValue{URL: url} })
}

// SetImageFile sets the primary image to a pending binary file.
func (s *Store) SetImageFile(file *content.PendingFile) {
	s.setField(FieldImage, func(f *Form) { f.Image = ImageValue{File: file} })
}

// ClearImage empties the primary image field.
func (s *Store) ClearImage() {
	s.setField(FieldImage, func(f *Form) { f.Image = ImageValue{} })
}

// AddContent appends an overlay item to a certificate form.
func (s *Store) AddContent(it *content.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.form.Contents.Add(it); err != nil {
		return err
	}
	s.touch()
	return nil
}

// RemoveContent deletes an overlay item by key; absent keys are an error.
func (s *Store) RemoveContent(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.form.Contents.Remove(key); err != nil {
		return err
	}
	s.touch()
	return nil
}

// UpdateContentMetadata patches one item's metadata through the content
// package's kind rules.
func (s *Store) UpdateContentMetadata(key string, patch content.MetadataPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.form.Contents.Get(key)
	if !ok {
		return content.ErrNotFound
	}
	if err := it.ApplyMetadata(patch); err != nil {
		return err
	}
	s.touch()
	return nil
}

// SetSafeZone replaces the certificate safe zone.
func (s *Store) SetSafeZone(z content.SafeZone) error {
	if err := z.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.SafeZone = z
	s.touch()
	return nil
}

// Values is a partial bulk update for hydration; nil fields are untouched.
type Values struct {
	Title           *string
	Description     *string
	CertificateType *string
	ImageURL        *string
	Contents        *content.List
	SafeZone        *content.SafeZone
}

// SetValues hydrates several fields at once (e.g. loading a list row into
// edit mode) and revalidates every affected field.
func (s *Store) SetValues(v Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.Title != nil {
		s.form.Title = *v.Title
	}
	if v.Description != nil {
		s.form.Description = *v.Description
	}
	if v.CertificateType != nil {
		s.form.CertificateType = *v.CertificateType
	}
	if v.ImageURL != nil {
		s.form.Image = ImageValue{URL: *v.ImageURL}
	}
	if v.Contents != nil {
		s.form.Contents = v.Contents.Clone()
	}
	if v.SafeZone != nil {
		s.form.SafeZone = *v.SafeZone
	}
	s.revalidateAllLocked()
}

// HydrateDetail is the explicit DetailEntity-to-form mapping used when a
// detail record is loaded into edit mode. The detail itself is kept as the
// container's server-confirmed state.
func (s *Store) HydrateDetail(d Detail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detail = &d
	s.form.Title = d.Title
	s.form.Description = d.Description
	if s.kind == KindCertificate {
		s.form.CertificateType = d.CertificateType
	}
	if d.ImageURL != "" {
		s.form.Image = ImageValue{URL: d.ImageURL}
	} else {
		s.form.Image = ImageValue{}
	}
	s.revalidateAllLocked()
}

// HandleSubmit validates the whole form and invokes fn only when it is
// valid at call time.
func (s *Store) HandleSubmit(fn func(Form) error) error {
	s.mu.Lock()
	res := s.schema.Validate(s.form)
	s.errors = res.Errors
	if !res.Valid() {
		s.state = StateInvalid
		s.mu.Unlock()
		return ErrFormInvalid
	}
	s.state = StateValid
	snap := s.form.clone()
	s.mu.Unlock()
	return fn(snap)
}

// ResetAll clears values to initial defaults, drops detail/response state
// and errors, returns to Pristine and invalidates any in-flight submission.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = initialForm(s.kind)
	s.errors = FieldErrors{}
	s.state = StatePristine
	s.detail = nil
	s.response = nil
	s.gen++
}

func (s *Store) setField(field string, mutate func(*Form)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.form)
	s.state = StateEditing
	if msgs := s.schema.ValidateField(s.form, field); len(msgs) > 0 {
		s.errors[field] = msgs
	} else {
		delete(s.errors, field)
	}
	s.settleLocked()
}

// touch marks the form edited and recomputes aggregate validity after a
// content mutation (contents have no per-field schema rule).
func (s *Store) touch() {
	s.state = StateEditing
	s.settleLocked()
}

func (s *Store) revalidateAllLocked() {
	s.state = StateEditing
	s.errors = s.schema.Validate(s.form).Errors
	s.settleLocked()
}

// settleLocked lands Editing on Valid or Invalid from the full rule set, so
// never-written required fields still block validity.
func (s *Store) settleLocked() {
	if s.state == StateSubmitting {
		return
	}
	if s.schema.Validate(s.form).Valid() {
		s.state = StateValid
	} else {
		s.state = StateInvalid
	}
}

// beginSubmit transitions Valid -> Submitting and hands the pipeline a
// snapshot plus the generation to report back under.
func (s *Store) beginSubmit() (Form, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return Form{}, 0, ErrAlreadySubmitting
	}
	res := s.schema.Validate(s.form)
	s.errors = res.Errors
	if !res.Valid() {
		s.state = StateInvalid
		return Form{}, 0, ErrFormInvalid
	}
	s.state = StateSubmitting
	return s.form.clone(), s.gen, nil
}

// finishSubmit lands the pipeline result. Results for a stale generation
// (ResetAll happened mid-flight) are discarded wholesale.
func (s *Store) finishSubmit(gen uint64, res SubmitResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	if err != nil {
		s.state = StateFailed
		return
	}
	s.response = &res
	s.detail = res.detail()
	s.state = StateSucceeded
}
