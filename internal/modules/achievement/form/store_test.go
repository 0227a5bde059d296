package form

import (
	"testing"

	"github.com/achievement-space/core/internal/modules/achievement/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillBadgeStore(s *Store) {
	s.SetTitle("Go Pioneer")
	s.SetDescription("Awarded for shipping the first service")
	s.SetImageURL("uploads/badges/pioneer.png")
}

func TestStoreInitialDefaults(t *testing.T) {
	badge := NewBadgeStore()
	assert.Equal(t, StatePristine, badge.State())
	f := badge.Form()
	assert.Equal(t, "", f.Title)
	assert.Equal(t, "", f.Description)
	assert.True(t, f.Image.IsZero())
	assert.Nil(t, f.Contents)

	cert := NewCertificateStore()
	f = cert.Form()
	assert.Equal(t, "", f.CertificateType)
	assert.NotNil(t, f.Contents)
	assert.Len(t, f.Contents, 0)
	assert.Equal(t, content.DefaultSafeZone(), f.SafeZone)
}

func TestFieldWritesRevalidateThatField(t *testing.T) {
	s := NewBadgeStore()

	s.SetTitle("")
	assert.Equal(t, []string{MsgTitleRequired}, s.Errors()[FieldTitle])
	assert.Equal(t, StateInvalid, s.State())

	s.SetTitle("Go Pioneer")
	assert.NotContains(t, s.Errors(), FieldTitle)
	// other required fields still block overall validity
	assert.Equal(t, StateInvalid, s.State())
	assert.False(t, s.IsValid())

	fillBadgeStore(s)
	assert.Equal(t, StateValid, s.State())
	assert.True(t, s.IsValid())
}

func TestImageFieldTransitions(t *testing.T) {
	s := NewBadgeStore()
	fillBadgeStore(s)
	require.True(t, s.IsValid())

	s.SetImageFile(&content.PendingFile{Name: "cv.pdf", MIME: "application/pdf"})
	assert.Equal(t, []string{MsgImageTypeNotSupported}, s.Errors()[FieldImage])
	assert.Equal(t, StateInvalid, s.State())

	s.SetImageFile(&content.PendingFile{Name: "badge.png", MIME: "image/png"})
	assert.NotContains(t, s.Errors(), FieldImage)
	assert.Equal(t, StateValid, s.State())

	s.ClearImage()
	assert.Equal(t, []string{MsgImageRequired}, s.Errors()[FieldImage])
}

func TestContentMutations(t *testing.T) {
	s := NewCertificateStore()

	title, err := content.New(content.TypeEventTitle, "event")
	require.NoError(t, err)
	require.NoError(t, s.AddContent(title))

	dup, err := content.New(content.TypeText, "event")
	require.NoError(t, err)
	assert.ErrorIs(t, s.AddContent(dup), content.ErrDuplicateKey)

	size := 32
	require.NoError(t, s.UpdateContentMetadata("event", content.MetadataPatch{FontSize: &size}))
	got, ok := s.Form().Contents.Get("event")
	require.True(t, ok)
	assert.Equal(t, 32, got.Metadata().(content.TextMetadata).FontSize)

	width := 100
	err = s.UpdateContentMetadata("event", content.MetadataPatch{OriginalWidth: &width})
	assert.ErrorIs(t, err, content.ErrKindMismatch)

	assert.ErrorIs(t, s.RemoveContent("absent"), content.ErrNotFound)
	require.NoError(t, s.RemoveContent("event"))
	assert.Len(t, s.Form().Contents, 0)
}

func TestFormSnapshotIsACopy(t *testing.T) {
	s := NewCertificateStore()
	it, _ := content.New(content.TypeText, "t")
	require.NoError(t, s.AddContent(it))

	snap := s.Form()
	snap.Title = "mutated"
	snap.Contents[0].SetValue("mutated")

	assert.Equal(t, "", s.Form().Title)
	assert.Equal(t, "", s.Form().Contents[0].Value())
}

func TestSetValuesBulkHydration(t *testing.T) {
	s := NewCertificateStore()
	title := "Completion Certificate"
	desc := "Finished the onboarding track"
	ctype := "completion"
	img := "uploads/certs/bg.png"
	s.SetValues(Values{Title: &title, Description: &desc, CertificateType: &ctype, ImageURL: &img})

	assert.True(t, s.IsValid())
	f := s.Form()
	assert.Equal(t, title, f.Title)
	assert.Equal(t, ctype, f.CertificateType)
	assert.Equal(t, img, f.Image.URL)
}

func TestHydrateDetail(t *testing.T) {
	s := NewCertificateStore()
	s.HydrateDetail(Detail{
		ID:              "cert-1",
		Title:           "Completion Certificate",
		Description:     "Finished the onboarding track",
		CertificateType: "completion",
		ImageURL:        "uploads/certs/bg.png",
	})

	f := s.Form()
	assert.Equal(t, "Completion Certificate", f.Title)
	assert.Equal(t, "completion", f.CertificateType)
	assert.Equal(t, "uploads/certs/bg.png", f.Image.URL)
	require.NotNil(t, s.Detail())
	assert.Equal(t, "cert-1", s.Detail().ID)
	assert.True(t, s.IsValid())
}

func TestHandleSubmit(t *testing.T) {
	s := NewBadgeStore()

	called := false
	err := s.HandleSubmit(func(Form) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrFormInvalid)
	assert.False(t, called)
	assert.Equal(t, StateInvalid, s.State())
	assert.Contains(t, s.Errors(), FieldTitle)

	fillBadgeStore(s)
	err = s.HandleSubmit(func(f Form) error {
		called = true
		assert.Equal(t, "Go Pioneer", f.Title)
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestResetAll(t *testing.T) {
	s := NewCertificateStore()
	s.SetTitle("something")
	s.SetCertificateType("attendance")
	it, _ := content.New(content.TypeText, "t")
	require.NoError(t, s.AddContent(it))
	s.HydrateDetail(Detail{ID: "cert-9", Title: "x"})

	s.ResetAll()

	assert.Equal(t, StatePristine, s.State())
	assert.Empty(t, s.Errors())
	assert.Nil(t, s.Detail())
	assert.Nil(t, s.Response())

	f := s.Form()
	assert.Equal(t, "", f.Title)
	assert.Equal(t, "", f.Description)
	assert.Equal(t, "", f.CertificateType)
	assert.True(t, f.Image.IsZero())
	assert.Len(t, f.Contents, 0)
	assert.Equal(t, content.DefaultSafeZone(), f.SafeZone)
}
