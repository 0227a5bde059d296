package certificate

import (
	"strings"
	"testing"

	"github.com/achievement-space/core/internal/database"
	"github.com/achievement-space/core/internal/modules/achievement/content"
	"github.com/achievement-space/core/internal/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})
	return db
}

func validDTO(t *testing.T) CreateCertificateDTO {
	t.Helper()
	signee, err := content.New(content.TypeSignee, "signee")
	require.NoError(t, err)
	signee.SetValue("https://cdn.example.com/sig.png")

	title, err := content.New(content.TypeEventTitle, "event_title")
	require.NoError(t, err)
	title.SetValue("Go workshop")

	var list content.List
	require.NoError(t, list.Add(signee))
	require.NoError(t, list.Add(title))

	return CreateCertificateDTO{
		Title:           "Workshop completion",
		Description:     "Awarded for finishing the workshop",
		CertificateType: "completion",
		ImageURL:        "https://cdn.example.com/cert-bg.png",
		Contents:        list,
	}
}

func TestCreatePersistsContentsAndSafeZone(t *testing.T) {
	svc := NewService(testDB(t), nil, nil)

	dto := validDTO(t)
	ct, err := svc.Create(&dto, "u1", "Alex Doe")
	require.NoError(t, err)

	assert.Equal(t, content.DefaultSafeZone(), ct.SafeZone)

	got, err := svc.GetByID(ct.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Contents, 2)
	assert.Equal(t, []string{"signee", "event_title"}, got.Contents.Keys())

	signee, ok := got.Contents.Get("signee")
	require.True(t, ok)
	assert.Equal(t, content.KindImage, signee.Type().Kind())
	assert.Equal(t, "https://cdn.example.com/sig.png", signee.Value())
}

func TestCreateRequiresCertificateType(t *testing.T) {
	svc := NewService(testDB(t), nil, nil)

	dto := validDTO(t)
	dto.CertificateType = ""
	_, err := svc.Create(&dto, "u1", "Alex Doe")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Certificate type is required", verr.Message)
}

func TestCreateRejectsDuplicateContentKeys(t *testing.T) {
	svc := NewService(testDB(t), nil, nil)

	a, err := content.New(content.TypeText, "note")
	require.NoError(t, err)
	b, err := content.New(content.TypeText, "note")
	require.NoError(t, err)

	dto := validDTO(t)
	dto.Contents = content.List{a, b}

	_, err = svc.Create(&dto, "u1", "Alex Doe")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "duplicate")
}

func TestCreateRejectsPendingFiles(t *testing.T) {
	svc := NewService(testDB(t), nil, nil)

	it, err := content.New(content.TypeImage, "photo")
	require.NoError(t, err)
	require.NoError(t, it.SetFile(&content.PendingFile{
		Name: "p.png", MIME: "image/png", Data: []byte{1},
	}))

	dto := validDTO(t)
	dto.Contents = content.List{it}

	_, err = svc.Create(&dto, "u1", "Alex Doe")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "contents must reference uploaded assets", verr.Message)
}

func TestCreateRejectsNegativeSafeZone(t *testing.T) {
	svc := NewService(testDB(t), nil, nil)

	dto := validDTO(t)
	dto.SafeZone = &content.SafeZone{Top: -1, Right: 50, Bottom: 50, Left: 50}

	_, err := svc.Create(&dto, "u1", "Alex Doe")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdateReplacesContents(t *testing.T) {
	svc := NewService(testDB(t), nil, nil)

	dto := validDTO(t)
	created, err := svc.Create(&dto, "u1", "Alex Doe")
	require.NoError(t, err)

	loc, err := content.New(content.TypeLocation, "venue")
	require.NoError(t, err)
	loc.SetValue("Main hall")

	updated, err := svc.Update(created.ID, &UpdateCertificateDTO{
		Contents: content.List{loc},
	})
	require.NoError(t, err)
	require.Len(t, updated.Contents, 1)
	assert.Equal(t, "venue", updated.Contents[0].Key())

	meta, ok := updated.Contents[0].Metadata().(content.LocationMetadata)
	require.True(t, ok)
	assert.Equal(t, content.DefaultDateFormat, meta.DateFormat)
}

func TestUpdateSafeZone(t *testing.T) {
	svc := NewService(testDB(t), nil, nil)

	dto := validDTO(t)
	created, err := svc.Create(&dto, "u1", "Alex Doe")
	require.NoError(t, err)

	zone := content.SafeZone{Top: 10, Right: 20, Bottom: 30, Left: 40}
	updated, err := svc.Update(created.ID, &UpdateCertificateDTO{SafeZone: &zone})
	require.NoError(t, err)
	assert.Equal(t, zone, updated.SafeZone)
}

type claimRecorder struct {
	refType string
	refID   string
	urls    []string
}

func (r *claimRecorder) Claim(refType, refID string, urls []string) error {
	r.refType = refType
	r.refID = refID
	r.urls = append(r.urls, urls...)
	return nil
}

func TestCreateClaimsImageAndContentAssets(t *testing.T) {
	rec := &claimRecorder{}
	svc := NewService(testDB(t), rec, nil)

	dto := validDTO(t)
	ct, err := svc.Create(&dto, "u1", "Alex Doe")
	require.NoError(t, err)

	assert.Equal(t, "certificate", rec.refType)
	assert.Equal(t, ct.ID, rec.refID)
	// the background plus the signee image; the event title is text and
	// references no file
	assert.Equal(t, []string{
		"https://cdn.example.com/cert-bg.png",
		"https://cdn.example.com/sig.png",
	}, rec.urls)
}

func TestUpdateClaimsReplacedContents(t *testing.T) {
	rec := &claimRecorder{}
	svc := NewService(testDB(t), rec, nil)

	dto := validDTO(t)
	created, err := svc.Create(&dto, "u1", "Alex Doe")
	require.NoError(t, err)
	rec.urls = nil

	photo, err := content.New(content.TypeImage, "photo")
	require.NoError(t, err)
	photo.SetValue("https://cdn.example.com/photo.png")

	_, err = svc.Update(created.ID, &UpdateCertificateDTO{Contents: content.List{photo}})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/photo.png"}, rec.urls)
	assert.Equal(t, created.ID, rec.refID)
}

func TestListFiltersByCertificateType(t *testing.T) {
	svc := NewService(testDB(t), nil, nil)

	completion := validDTO(t)
	_, err := svc.Create(&completion, "u1", "Alex Doe")
	require.NoError(t, err)

	attendance := validDTO(t)
	attendance.Title = "Attendance"
	attendance.CertificateType = "attendance"
	_, err = svc.Create(&attendance, "u1", "Alex Doe")
	require.NoError(t, err)

	items, pag, err := svc.List(pagination.Query{Page: 1, PerPage: 10},
		ListFilter{CertificateType: []string{"attendance"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Attendance", items[0].Title)
	assert.Equal(t, int64(1), pag.TotalRow)

	items, _, err = svc.List(pagination.Query{Page: 1, PerPage: 10},
		ListFilter{CertificateType: []string{"attendance", "completion"}})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
