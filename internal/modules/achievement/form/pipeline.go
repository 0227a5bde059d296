package form

import (
	"context"
	"fmt"

	"github.com/achievement-space/core/internal/modules/achievement/content"
	"go.uber.org/zap"
)

// UploadedAsset is the server-confirmed location of an uploaded binary,
// produced by the upload collaborator and merged into form values before the
// main create/update call.
type UploadedAsset struct {
	Host             string `json:"image_host,omitempty"`
	FullPath         string `json:"full_path,omitempty"`
	FilePath         string `json:"file_path,omitempty"`
	FileName         string `json:"file_name,omitempty"`
	MIME             string `json:"file_mime,omitempty"`
	Folder           string `json:"folder,omitempty"`
	OriginalFileName string `json:"original_file_name,omitempty"`
}

// Payload is the create/update request body built from fully-resolved form
// values. Binary placeholders are never serialized; the pipeline replaces
// them with uploaded asset paths first.
type Payload struct {
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	ImageURL        string            `json:"image_url"`
	CertificateType string            `json:"certificate_type,omitempty"`
	Contents        content.List      `json:"contents,omitempty"`
	SafeZone        *content.SafeZone `json:"safe_zone,omitempty"`
}

// SubmitResult is the server's answer to a successful create/update.
type SubmitResult struct {
	ID              string `json:"id"`
	Title           string `json:"title,omitempty"`
	CertificateType string `json:"certificate_type,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
}

func (r SubmitResult) detail() *Detail {
	return &Detail{
		ID:              r.ID,
		Title:           r.Title,
		CertificateType: r.CertificateType,
		ImageURL:        r.ImageURL,
	}
}

// SubmitError is a create/update rejected by the server. The form stays
// editable; retry is user-initiated.
type SubmitError struct {
	StatusCode int
	Message    string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit rejected: %d %s", e.StatusCode, e.Message)
}

// UploadError aborts the whole submission before the create/update call; no
// partial state is committed.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %q failed: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Gateway is the external collaborator contract the pipeline submits
// through. The HTTP implementation lives in the gateway package; tests use
// fakes.
type Gateway interface {
	Upload(ctx context.Context, file *content.PendingFile, key string) (UploadedAsset, error)
	Create(ctx context.Context, kind Kind, payload Payload) (SubmitResult, error)
	Update(ctx context.Context, kind Kind, id string, payload Payload) (SubmitResult, error)
}

// primaryImageKey is the logical upload key for the form's main image;
// content items upload under their own keys.
const primaryImageKey = "image"

// Pipeline turns a valid form into a create/update request, uploading any
// pending binaries first, strictly in sequence.
type Pipeline struct {
	gw  Gateway
	log *zap.Logger
}

// NewPipeline builds a pipeline over the given gateway. logger may be nil.
func NewPipeline(gw Gateway, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{gw: gw, log: logger}
}

// Submit runs the full submission for the store's current values:
// single-flight guard, uploads, payload build, create or update, and state
// landing (with stale results discarded after ResetAll).
func (p *Pipeline) Submit(ctx context.Context, st *Store) (SubmitResult, error) {
	snap, gen, err := st.beginSubmit()
	if err != nil {
		return SubmitResult{}, err
	}

	resolved, err := p.resolveUploads(ctx, snap)
	if err != nil {
		st.finishSubmit(gen, SubmitResult{}, err)
		return SubmitResult{}, err
	}

	payload := BuildPayload(resolved)

	var res SubmitResult
	if d := st.Detail(); d != nil && d.ID != "" {
		res, err = p.gw.Update(ctx, st.Kind(), d.ID, payload)
	} else {
		res, err = p.gw.Create(ctx, st.Kind(), payload)
	}
	if err != nil {
		p.log.Warn("submission rejected",
			zap.String("kind", string(st.Kind())),
			zap.Error(err),
		)
		st.finishSubmit(gen, SubmitResult{}, err)
		return SubmitResult{}, err
	}

	st.finishSubmit(gen, res, nil)
	return res, nil
}

// resolveUploads uploads the primary image and then each pending content
// asset, replacing files with resolved paths on a copy of the form. The
// first failure aborts everything.
func (p *Pipeline) resolveUploads(ctx context.Context, snap Form) (Form, error) {
	if snap.Image.File != nil {
		asset, err := p.gw.Upload(ctx, snap.Image.File, primaryImageKey)
		if err != nil {
			return Form{}, &UploadError{Key: primaryImageKey, Err: err}
		}
		snap.Image = ImageValue{URL: asset.FullPath}
	}

	for _, it := range snap.Contents {
		file := it.File()
		if file == nil {
			continue
		}
		asset, err := p.gw.Upload(ctx, file, it.Key())
		if err != nil {
			return Form{}, &UploadError{Key: it.Key(), Err: err}
		}
		it.SetValue(asset.FullPath)
	}
	return snap, nil
}

// BuildPayload maps resolved form values onto the request body. It assumes
// all binaries were replaced by references already.
func BuildPayload(f Form) Payload {
	p := Payload{
		Title:       f.Title,
		Description: f.Description,
		ImageURL:    f.Image.URL,
	}
	if f.Kind == KindCertificate {
		p.CertificateType = f.CertificateType
		p.Contents = f.Contents
		zone := f.SafeZone
		p.SafeZone = &zone
	}
	return p
}
