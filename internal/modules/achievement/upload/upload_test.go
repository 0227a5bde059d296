package upload

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/achievement-space/core/internal/config"
	"github.com/achievement-space/core/internal/database"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
	host  string
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}, host: "https://cdn.example.com"}
}

func (m *memStorage) Put(_ context.Context, path string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
	return nil
}

func (m *memStorage) Host() string { return m.host }

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

func newService(t *testing.T) (*Service, *memStorage) {
	st := newMemStorage()
	svc := NewService(testDB(t), st, config.UploadConfig{
		Folder:    "badge-certificate",
		MaxSizeMB: 1,
	}, nil)
	return svc, st
}

func multipartRequest(t *testing.T, fileName, mime, key string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	hdr.Set("Content-Type", mime)
	part, err := writer.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)

	if key != "" {
		require.NoError(t, writer.WriteField("key", key))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(t *testing.T, svc *Service, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(svc).RegisterRoutes(&router.RouterGroup)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUploadStoresImageAndAnswersMetadata(t *testing.T) {
	svc, st := newService(t)

	rec := serve(t, svc, multipartRequest(t, "logo.png", "image/png", "image", []byte{0x89, 0x50, 0x4e, 0x47}))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"image_host":"https://cdn.example.com"`)
	assert.Contains(t, body, `"folder":"badge-certificate"`)
	assert.Contains(t, body, `"file_mime":"image/png"`)
	assert.Contains(t, body, `"original_file_name":"logo.png"`)

	st.mu.Lock()
	defer st.mu.Unlock()
	require.Len(t, st.files, 1)
	for path, data := range st.files {
		assert.True(t, strings.HasPrefix(path, "badge-certificate/"))
		assert.True(t, strings.HasSuffix(path, ".png"))
		assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, data)
	}

	orphans, err := svc.Orphans()
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "image", orphans[0].UploadKey)
	assert.Equal(t, "pending", orphans[0].Status)
}

func TestUploadRejectsNonImage(t *testing.T) {
	svc, st := newService(t)

	rec := serve(t, svc, multipartRequest(t, "doc.pdf", "application/pdf", "image", []byte("%PDF")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "The Uploaded file type is not supported.")

	st.mu.Lock()
	defer st.mu.Unlock()
	assert.Empty(t, st.files)
}

func TestUploadRequiresKey(t *testing.T) {
	svc, _ := newService(t)

	rec := serve(t, svc, multipartRequest(t, "logo.png", "image/png", "", []byte{1}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "key is required")
}

func TestUploadEnforcesSizeLimit(t *testing.T) {
	svc, _ := newService(t)

	big := make([]byte, (1<<20)+1)
	rec := serve(t, svc, multipartRequest(t, "big.png", "image/png", "image", big))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "exceeds")
}

func TestClaimMarksReferencesActive(t *testing.T) {
	svc, _ := newService(t)

	rec := serve(t, svc, multipartRequest(t, "logo.png", "image/png", "image", []byte{1, 2}))
	require.Equal(t, http.StatusOK, rec.Code)

	orphans, err := svc.Orphans()
	require.NoError(t, err)
	require.Len(t, orphans, 1)

	require.NoError(t, svc.Claim("badge", "b1", []string{orphans[0].FileURL}))

	orphans, err = svc.Orphans()
	require.NoError(t, err)
	assert.Empty(t, orphans)
}
