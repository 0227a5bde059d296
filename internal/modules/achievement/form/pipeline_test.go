package form

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/achievement-space/core/internal/modules/achievement/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway records calls and can fail or block on demand.
type fakeGateway struct {
	mu sync.Mutex

	uploadKeys []string
	uploadErr  error
	uploadGate chan struct{} // when set, Upload blocks until closed
	entered    chan struct{} // closed once Upload has been entered

	createCalls int
	updateCalls int
	createErr   error
	lastPayload Payload
	result      SubmitResult
}

func (g *fakeGateway) Upload(ctx context.Context, file *content.PendingFile, key string) (UploadedAsset, error) {
	g.mu.Lock()
	g.uploadKeys = append(g.uploadKeys, key)
	entered := g.entered
	gate := g.uploadGate
	err := g.uploadErr
	g.mu.Unlock()

	if entered != nil {
		close(entered)
		g.mu.Lock()
		g.entered = nil
		g.mu.Unlock()
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return UploadedAsset{}, err
	}
	return UploadedAsset{
		FullPath:         "uploads/achievement/" + file.Name,
		FileName:         file.Name,
		MIME:             file.MIME,
		OriginalFileName: file.Name,
	}, nil
}

func (g *fakeGateway) Create(ctx context.Context, kind Kind, payload Payload) (SubmitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	g.lastPayload = payload
	if g.createErr != nil {
		return SubmitResult{}, g.createErr
	}
	return g.result, nil
}

func (g *fakeGateway) Update(ctx context.Context, kind Kind, id string, payload Payload) (SubmitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updateCalls++
	g.lastPayload = payload
	return g.result, nil
}

func TestSubmitUploadsBeforeCreate(t *testing.T) {
	gw := &fakeGateway{result: SubmitResult{ID: "cert-1", Title: "Completion Certificate"}}
	p := NewPipeline(gw, nil)

	s := NewCertificateStore()
	s.SetTitle("Completion Certificate")
	s.SetDescription("Finished the onboarding track")
	s.SetCertificateType("completion")
	s.SetImageFile(&content.PendingFile{Name: "bg.png", MIME: "image/png"})

	signee, err := content.New(content.TypeSignee, "signee")
	require.NoError(t, err)
	require.NoError(t, signee.SetFile(&content.PendingFile{Name: "sig.png", MIME: "image/png"}))
	require.NoError(t, s.AddContent(signee))

	res, err := p.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "cert-1", res.ID)
	assert.Equal(t, StateSucceeded, s.State())

	// primary image first, then content items in order, then create
	assert.Equal(t, []string{"image", "signee"}, gw.uploadKeys)
	assert.Equal(t, 1, gw.createCalls)
	assert.Equal(t, "uploads/achievement/bg.png", gw.lastPayload.ImageURL)
	item, ok := gw.lastPayload.Contents.Get("signee")
	require.True(t, ok)
	assert.Equal(t, "uploads/achievement/sig.png", item.Value())
	assert.Nil(t, item.File())

	// response state is recorded as the detail entity
	require.NotNil(t, s.Detail())
	assert.Equal(t, "cert-1", s.Detail().ID)
}

func TestSubmitResolvedImageSkipsUpload(t *testing.T) {
	gw := &fakeGateway{result: SubmitResult{ID: "badge-1"}}
	p := NewPipeline(gw, nil)

	s := NewBadgeStore()
	fillBadgeStore(s)

	_, err := p.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, gw.uploadKeys)
	assert.Equal(t, "uploads/badges/pioneer.png", gw.lastPayload.ImageURL)
}

func TestSubmitUploadFailureAbortsEverything(t *testing.T) {
	gw := &fakeGateway{uploadErr: errors.New("bucket unreachable")}
	p := NewPipeline(gw, nil)

	s := NewBadgeStore()
	s.SetTitle("Go Pioneer")
	s.SetDescription("desc")
	s.SetImageFile(&content.PendingFile{Name: "b.png", MIME: "image/png"})

	_, err := p.Submit(context.Background(), s)

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "image", uploadErr.Key)
	assert.Equal(t, 0, gw.createCalls)

	// no partial commit: the form still holds the pending file and stays editable
	assert.Equal(t, StateFailed, s.State())
	assert.NotNil(t, s.Form().Image.File)
	s.SetTitle("still editable")
	assert.Equal(t, "still editable", s.Form().Title)
}

func TestSubmitInvalidFormRefused(t *testing.T) {
	gw := &fakeGateway{}
	p := NewPipeline(gw, nil)

	s := NewBadgeStore()
	_, err := p.Submit(context.Background(), s)
	assert.ErrorIs(t, err, ErrFormInvalid)
	assert.Equal(t, 0, gw.createCalls)
	assert.Contains(t, s.Errors(), FieldTitle)
}

func TestSubmitServerRejectionKeepsFormEditable(t *testing.T) {
	gw := &fakeGateway{createErr: &SubmitError{StatusCode: 422, Message: "title already taken"}}
	p := NewPipeline(gw, nil)

	s := NewBadgeStore()
	fillBadgeStore(s)

	_, err := p.Submit(context.Background(), s)
	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, 422, submitErr.StatusCode)
	assert.Equal(t, StateFailed, s.State())

	// user-initiated retry goes through once the server accepts
	gw.createErr = nil
	gw.result = SubmitResult{ID: "badge-2"}
	res, err := p.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "badge-2", res.ID)
}

func TestSubmitUsesUpdateWhenDetailLoaded(t *testing.T) {
	gw := &fakeGateway{result: SubmitResult{ID: "badge-1"}}
	p := NewPipeline(gw, nil)

	s := NewBadgeStore()
	s.HydrateDetail(Detail{ID: "badge-1", Title: "Go Pioneer", Description: "desc", ImageURL: "uploads/b.png"})

	_, err := p.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 0, gw.createCalls)
	assert.Equal(t, 1, gw.updateCalls)
}

func TestConcurrentSubmitRejected(t *testing.T) {
	gw := &fakeGateway{
		result:     SubmitResult{ID: "badge-1"},
		uploadGate: make(chan struct{}),
		entered:    make(chan struct{}),
	}
	p := NewPipeline(gw, nil)

	s := NewBadgeStore()
	s.SetTitle("Go Pioneer")
	s.SetDescription("desc")
	s.SetImageFile(&content.PendingFile{Name: "b.png", MIME: "image/png"})

	entered := gw.entered
	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), s)
		done <- err
	}()

	<-entered // first submission is now inside the upload call
	assert.Equal(t, StateSubmitting, s.State())

	_, err := p.Submit(context.Background(), s)
	assert.ErrorIs(t, err, ErrAlreadySubmitting)

	close(gw.uploadGate)
	require.NoError(t, <-done)
	assert.Equal(t, StateSucceeded, s.State())
	assert.Equal(t, 1, gw.createCalls)
}

func TestStaleResultDiscardedAfterReset(t *testing.T) {
	gw := &fakeGateway{
		result:     SubmitResult{ID: "badge-1"},
		uploadGate: make(chan struct{}),
		entered:    make(chan struct{}),
	}
	p := NewPipeline(gw, nil)

	s := NewBadgeStore()
	s.SetTitle("Go Pioneer")
	s.SetDescription("desc")
	s.SetImageFile(&content.PendingFile{Name: "b.png", MIME: "image/png"})

	entered := gw.entered
	done := make(chan struct{})
	go func() {
		p.Submit(context.Background(), s)
		close(done)
	}()

	<-entered
	s.ResetAll() // user navigated away mid-flight
	close(gw.uploadGate)
	<-done

	// the late success must not repopulate the reset container
	assert.Equal(t, StatePristine, s.State())
	assert.Nil(t, s.Response())
	assert.Nil(t, s.Detail())
}
