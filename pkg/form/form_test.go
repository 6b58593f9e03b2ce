package form

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/cache"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/i18n"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/models"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/validation"
)

const remoteURL = "https://minio.local/gallery/cat.png"

var catalog = i18n.Lookup(i18n.PtBR)

type fakeImages struct {
	mu      sync.Mutex
	calls   []models.NewImage
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeImages) CreateImage(_ context.Context, image models.NewImage) (*models.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, image)
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.Image{ID: "1", Title: image.Title, Description: image.Description, URL: image.URL}, nil
}

type fakeUploader struct {
	calls int
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, file models.FileHandle, data io.Reader) (models.UploadedImage, error) {
	f.calls++
	if f.err != nil {
		return models.UploadedImage{}, f.err
	}
	_, _ = io.ReadAll(data)
	return models.UploadedImage{RemoteURL: remoteURL, PreviewURL: "https://minio.local/preview?sig=1"}, nil
}

type fakeCache struct{ keys []string }

func (f *fakeCache) Invalidate(_ context.Context, key string) error {
	f.keys = append(f.keys, key)
	return nil
}

type recorder struct {
	notifications []models.Notification
}

func (r *recorder) Notify(_ context.Context, n models.Notification) error {
	r.notifications = append(r.notifications, n)
	return nil
}

type harness struct {
	form     *Form
	images   *fakeImages
	uploader *fakeUploader
	cache    *fakeCache
	notes    *recorder
	closed   int
}

func newHarness() *harness {
	h := &harness{images: &fakeImages{}, uploader: &fakeUploader{}, cache: &fakeCache{}, notes: &recorder{}}
	h.form = New(Options{
		ID:         "f1",
		Images:     h.images,
		Uploader:   h.uploader,
		Cache:      h.cache,
		Notifier:   h.notes,
		Catalog:    catalog,
		CloseModal: func() { h.closed++ },
	})
	return h
}

func catFile() models.FileHandle {
	return models.FileHandle{Name: "cat.png", Size: 2048, ContentType: "image/png"}
}

func (h *harness) attach(t *testing.T) {
	t.Helper()
	if _, err := h.form.AttachImage(context.Background(), catFile(), strings.NewReader("png")); err != nil {
		t.Fatalf("AttachImage: %v", err)
	}
}

func (h *harness) assertCleanedUp(t *testing.T) {
	t.Helper()
	if h.closed != 1 {
		t.Errorf("modal closed %d times, want 1", h.closed)
	}
	if diff := cmp.Diff(models.FormInput{}, h.form.Input()); diff != "" {
		t.Errorf("input not reset (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(models.UploadedImage{}, h.form.Uploaded()); diff != "" {
		t.Errorf("upload not reset (-want +got):\n%s", diff)
	}
	if h.form.State() != models.FormIdle {
		t.Errorf("state = %s", h.form.State())
	}
}

func TestSubmitSuccess(t *testing.T) {
	h := newHarness()
	h.attach(t)

	n, err := h.form.HandleSubmit(context.Background(), Values{Title: "Cat", Description: "A cat photo"})
	if err != nil {
		t.Fatalf("HandleSubmit: %v", err)
	}

	wantCall := []models.NewImage{{Title: "Cat", Description: "A cat photo", URL: remoteURL}}
	if diff := cmp.Diff(wantCall, h.images.calls); diff != "" {
		t.Errorf("create calls (-want +got):\n%s", diff)
	}
	want := models.Notification{Status: models.StatusSuccess, Title: catalog.CreatedTitle, Description: catalog.CreatedDescription}
	if diff := cmp.Diff(want, n); diff != "" {
		t.Errorf("notification (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]models.Notification{want}, h.notes.notifications); diff != "" {
		t.Errorf("emitted (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{cache.ImagesKey}, h.cache.keys); diff != "" {
		t.Errorf("invalidated (-want +got):\n%s", diff)
	}
	h.assertCleanedUp(t)
}

func TestSubmitWithoutUploadedImage(t *testing.T) {
	h := newHarness()

	n := h.form.Submit(context.Background())

	if len(h.images.calls) != 0 {
		t.Fatalf("remote mutation called %d times", len(h.images.calls))
	}
	if n.Status != models.StatusError || n.Title != catalog.NotUploadedTitle || !n.Dismissible {
		t.Errorf("notification = %+v", n)
	}
	if len(h.notes.notifications) != 1 {
		t.Errorf("emitted %d notifications", len(h.notes.notifications))
	}
	if len(h.cache.keys) != 0 {
		t.Errorf("cache invalidated on abort")
	}
	h.assertCleanedUp(t)
}

func TestHandleSubmitUploadFailedStillAborts(t *testing.T) {
	h := newHarness()
	h.uploader.err = errors.New("minio down")

	_, err := h.form.AttachImage(context.Background(), catFile(), strings.NewReader("png"))
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("AttachImage err = %v", err)
	}
	if fe, _ := verrs.Get(models.FieldImage); fe.Message != catalog.Message("image", "upload") {
		t.Errorf("field error = %+v", fe)
	}

	n, err := h.form.HandleSubmit(context.Background(), Values{Title: "Cat", Description: "A cat photo"})
	if err != nil {
		t.Fatalf("HandleSubmit: %v", err)
	}
	if n.Title != catalog.NotUploadedTitle || len(h.images.calls) != 0 {
		t.Errorf("notification = %+v calls = %d", n, len(h.images.calls))
	}
	h.assertCleanedUp(t)
}

func TestSubmitRemoteFailure(t *testing.T) {
	h := newHarness()
	h.images.err = errors.New("502 bad gateway")
	h.attach(t)

	n, err := h.form.HandleSubmit(context.Background(), Values{Title: "Cat", Description: "A cat photo"})
	if err != nil {
		t.Fatalf("HandleSubmit: %v", err)
	}
	want := models.Notification{Status: models.StatusError, Title: catalog.FailedTitle, Description: catalog.FailedDescription, Dismissible: true}
	if diff := cmp.Diff(want, n); diff != "" {
		t.Errorf("notification (-want +got):\n%s", diff)
	}
	if strings.Contains(n.Description, "502") {
		t.Errorf("cause leaked to the user: %q", n.Description)
	}
	if len(h.cache.keys) != 0 {
		t.Errorf("cache invalidated after failure")
	}
	h.assertCleanedUp(t)
}

func TestSubmitCleansUpOnPanic(t *testing.T) {
	h := newHarness()
	h.attach(t)
	h.form.images = panicking{}

	func() {
		defer func() { _ = recover() }()
		h.form.Submit(context.Background())
	}()
	h.assertCleanedUp(t)
}

type panicking struct{}

func (panicking) CreateImage(context.Context, models.NewImage) (*models.Image, error) {
	panic("boom")
}

func TestHandleSubmitInvalidFields(t *testing.T) {
	h := newHarness()
	h.attach(t)

	_, err := h.form.HandleSubmit(context.Background(), Values{Title: "C", Description: strings.Repeat("d", 66)})
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("err = %v, want validation errors", err)
	}
	want := validation.Errors{
		{Field: models.FieldTitle, Message: "Mínimo de 2 caracteres"},
		{Field: models.FieldDescription, Message: "Máximo de 65 caracteres"},
	}
	if diff := cmp.Diff(want, verrs); diff != "" {
		t.Errorf("errors (-want +got):\n%s", diff)
	}
	if len(h.images.calls) != 0 || h.closed != 0 || len(h.notes.notifications) != 0 {
		t.Errorf("invalid form reached submit: calls=%d closed=%d", len(h.images.calls), h.closed)
	}
	if h.form.Uploaded().RemoteURL != remoteURL {
		t.Errorf("upload dropped by failed validation")
	}
}

func TestAttachImageRejectsInvalidFile(t *testing.T) {
	h := newHarness()
	file := models.FileHandle{Name: "doc.pdf", Size: 10, ContentType: "application/pdf"}

	_, err := h.form.AttachImage(context.Background(), file, strings.NewReader("%PDF"))
	var verrs validation.Errors
	if !errors.As(err, &verrs) || verrs[0].Message != catalog.Message("image", "oneof") {
		t.Fatalf("err = %v", err)
	}
	if h.uploader.calls != 0 {
		t.Errorf("invalid file uploaded")
	}
	if h.form.Input().Image == nil {
		t.Errorf("selected file not kept on the form")
	}
}

func TestAttachImageReplacesPreviousUpload(t *testing.T) {
	h := newHarness()
	h.attach(t)
	big := models.FileHandle{Name: "big.png", Size: validation.MaxFileSize, ContentType: "image/png"}

	if _, err := h.form.AttachImage(context.Background(), big, strings.NewReader("")); err == nil {
		t.Fatal("expected size error")
	}
	if h.form.Uploaded().RemoteURL != "" {
		t.Errorf("previous upload kept after selecting another file")
	}
}

func TestHandleSubmitRejectedWhileSubmitting(t *testing.T) {
	h := newHarness()
	h.images.started = make(chan struct{})
	h.images.release = make(chan struct{})
	h.attach(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.form.HandleSubmit(context.Background(), Values{Title: "Cat", Description: "A cat photo"})
	}()

	select {
	case <-h.images.started:
	case <-time.After(time.Second):
		t.Fatal("submit never reached the backend")
	}
	if h.form.State() != models.FormSubmitting {
		t.Errorf("state = %s, want submitting", h.form.State())
	}
	if _, err := h.form.HandleSubmit(context.Background(), Values{Title: "Dog", Description: "A dog"}); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("second submit err = %v", err)
	}
	if _, err := h.form.AttachImage(context.Background(), catFile(), strings.NewReader("")); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("attach during submit err = %v", err)
	}
	close(h.images.release)
	<-done

	if len(h.images.calls) != 1 {
		t.Errorf("create calls = %d", len(h.images.calls))
	}
}

func TestCloseEndsForm(t *testing.T) {
	h := newHarness()
	h.attach(t)

	if err := h.form.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h.form.State() != models.FormClosed {
		t.Errorf("state = %s", h.form.State())
	}
	if diff := cmp.Diff(models.UploadedImage{}, h.form.Uploaded()); diff != "" {
		t.Errorf("upload not reset (-want +got):\n%s", diff)
	}
	if _, err := h.form.HandleSubmit(context.Background(), Values{Title: "Cat", Description: "A cat photo"}); !errors.Is(err, ErrFormClosed) {
		t.Errorf("submit after close err = %v", err)
	}
	if _, err := h.form.AttachImage(context.Background(), catFile(), strings.NewReader("")); !errors.Is(err, ErrFormClosed) {
		t.Errorf("attach after close err = %v", err)
	}
	if err := h.form.Close(); !errors.Is(err, ErrFormClosed) {
		t.Errorf("second close err = %v", err)
	}
	if len(h.images.calls) != 0 || h.closed != 0 {
		t.Errorf("closed form reached the workflow: calls=%d closed=%d", len(h.images.calls), h.closed)
	}
}

func TestCloseRejectedWhileSubmitting(t *testing.T) {
	h := newHarness()
	h.images.started = make(chan struct{})
	h.images.release = make(chan struct{})
	h.attach(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.form.HandleSubmit(context.Background(), Values{Title: "Cat", Description: "A cat photo"})
	}()
	select {
	case <-h.images.started:
	case <-time.After(time.Second):
		t.Fatal("submit never reached the backend")
	}

	if err := h.form.Close(); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("close during submit err = %v", err)
	}
	close(h.images.release)
	<-done

	if h.closed != 1 || h.form.State() != models.FormIdle {
		t.Errorf("closed=%d state=%s", h.closed, h.form.State())
	}
}
