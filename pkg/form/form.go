// Package form implements the add image form: the selected file, the title
// and description values, and the submit workflow that posts them to the
// gallery backend.
//
// A Form lives as long as its modal. Submit always ends the lifecycle: the
// values and the uploaded image reference are reset and the modal is closed
// on every path, whether the image was created, the backend failed or no
// image had been uploaded yet.
package form

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/cache"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/i18n"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/models"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/notify"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/validation"
)

var (
	ErrSubmitInFlight = errors.New("form: submit already in flight")
	ErrImageReplaced  = errors.New("form: image replaced while uploading")
	ErrFormClosed     = errors.New("form: closed")
)

type ImageCreator interface {
	CreateImage(ctx context.Context, image models.NewImage) (*models.Image, error)
}

type Uploader interface {
	Upload(ctx context.Context, file models.FileHandle, data io.Reader) (models.UploadedImage, error)
}

type Options struct {
	ID       string
	Images   ImageCreator
	Uploader Uploader
	Cache    cache.Invalidator
	Notifier notify.Notifier
	Catalog  i18n.Catalog
	// CloseModal is called once at the end of every submit.
	CloseModal func()
}

// Values are the text fields sent with a submit.
type Values struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
}

type Form struct {
	id         string
	images     ImageCreator
	uploader   Uploader
	cache      cache.Invalidator
	notifier   notify.Notifier
	catalog    i18n.Catalog
	rules      *validation.Rules
	closeModal func()

	mu     sync.Mutex
	state  models.FormState
	input  models.FormInput
	upload models.UploadedImage
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, string) error { return nil }

func New(opts Options) *Form {
	f := &Form{
		id:         opts.ID,
		images:     opts.Images,
		uploader:   opts.Uploader,
		cache:      opts.Cache,
		notifier:   opts.Notifier,
		catalog:    opts.Catalog,
		rules:      validation.New(opts.Catalog),
		closeModal: opts.CloseModal,
		state:      models.FormIdle,
	}
	if f.cache == nil {
		f.cache = nopInvalidator{}
	}
	if f.notifier == nil {
		f.notifier = notify.Nop
	}
	if f.closeModal == nil {
		f.closeModal = func() {}
	}
	return f
}

func (f *Form) ID() string { return f.id }

func (f *Form) State() models.FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) Input() models.FormInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	in := f.input
	if in.Image != nil {
		file := *in.Image
		in.Image = &file
	}
	return in
}

func (f *Form) Uploaded() models.UploadedImage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upload
}

// AttachImage selects file for the form. The previous upload is dropped, the
// image field is validated again and only a valid file is uploaded.
func (f *Form) AttachImage(ctx context.Context, file models.FileHandle, data io.Reader) (models.UploadedImage, error) {
	handle := &file
	f.mu.Lock()
	if err := f.busy(); err != nil {
		f.mu.Unlock()
		return models.UploadedImage{}, err
	}
	f.input.Image = handle
	f.upload = models.UploadedImage{}
	in := f.input
	f.mu.Unlock()

	if fe := f.rules.ValidateField(in, models.FieldImage); fe != nil {
		return models.UploadedImage{}, validation.Errors{*fe}
	}

	uploaded, err := f.uploader.Upload(ctx, file, data)
	if err != nil {
		log.Printf("form %s: failed to upload %s: %v", f.id, file.Name, err)
		return models.UploadedImage{}, validation.Errors{{
			Field:   models.FieldImage,
			Message: f.catalog.Message(string(models.FieldImage), "upload"),
		}}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.input.Image != handle {
		return models.UploadedImage{}, ErrImageReplaced
	}
	f.upload = uploaded
	return uploaded, nil
}

// busy must be called with f.mu held.
func (f *Form) busy() error {
	switch f.state {
	case models.FormSubmitting:
		return ErrSubmitInFlight
	case models.FormClosed:
		return ErrFormClosed
	}
	return nil
}

// HandleSubmit stores values, validates every field and runs the submit
// workflow when the form is valid. Invalid forms are left as they are.
func (f *Form) HandleSubmit(ctx context.Context, values Values) (models.Notification, error) {
	f.mu.Lock()
	if err := f.busy(); err != nil {
		f.mu.Unlock()
		return models.Notification{}, err
	}
	f.input.Title = values.Title
	f.input.Description = values.Description
	if errs := f.rules.Validate(f.input); errs != nil {
		f.mu.Unlock()
		return models.Notification{}, errs
	}
	f.state = models.FormSubmitting
	f.mu.Unlock()

	return f.submit(ctx), nil
}

// Submit runs the submit workflow on the current values without field
// validation and returns the notification it emitted.
func (f *Form) Submit(ctx context.Context) models.Notification {
	f.mu.Lock()
	f.state = models.FormSubmitting
	f.mu.Unlock()
	return f.submit(ctx)
}

func (f *Form) submit(ctx context.Context) models.Notification {
	defer f.finish()

	f.mu.Lock()
	in, remoteURL := f.input, f.upload.RemoteURL
	f.mu.Unlock()

	if remoteURL == "" {
		return f.emit(ctx, models.Notification{
			Status:      models.StatusError,
			Title:       f.catalog.NotUploadedTitle,
			Description: f.catalog.NotUploadedDescription,
			Dismissible: true,
		})
	}

	_, err := f.images.CreateImage(ctx, models.NewImage{
		Title:       in.Title,
		Description: in.Description,
		URL:         remoteURL,
	})
	if err != nil {
		log.Printf("form %s: failed to create image: %v", f.id, err)
		return f.emit(ctx, models.Notification{
			Status:      models.StatusError,
			Title:       f.catalog.FailedTitle,
			Description: f.catalog.FailedDescription,
			Dismissible: true,
		})
	}

	if err := f.cache.Invalidate(ctx, cache.ImagesKey); err != nil {
		log.Printf("form %s: failed to invalidate %s: %v", f.id, cache.ImagesKey, err)
	}
	return f.emit(ctx, models.Notification{
		Status:      models.StatusSuccess,
		Title:       f.catalog.CreatedTitle,
		Description: f.catalog.CreatedDescription,
	})
}

func (f *Form) emit(ctx context.Context, n models.Notification) models.Notification {
	if err := f.notifier.Notify(ctx, n); err != nil {
		log.Printf("form %s: failed to deliver notification: %v", f.id, err)
	}
	return n
}

func (f *Form) finish() {
	f.Reset()
	f.mu.Lock()
	f.state = models.FormIdle
	f.mu.Unlock()
	f.closeModal()
}

// Close ends the form without submitting. It fails while a submit is in
// flight, afterwards every call on the form returns ErrFormClosed.
func (f *Form) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.busy(); err != nil {
		return err
	}
	f.input = models.FormInput{}
	f.upload = models.UploadedImage{}
	f.state = models.FormClosed
	return nil
}

// Reset empties the values and drops the uploaded image reference.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = models.FormInput{}
	f.upload = models.UploadedImage{}
}
