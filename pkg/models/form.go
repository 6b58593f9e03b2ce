package models

type Field string

const (
	FieldImage       Field = "image"
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
)

// FileHandle describes the file the user selected.
type FileHandle struct {
	Name        string `json:"name" form:"name"`
	Size        int64  `json:"size" form:"size"`
	ContentType string `json:"content_type" form:"content_type"`
}

// FormInput holds the values of one submission attempt.
type FormInput struct {
	Title       string      `json:"title" form:"title"`
	Description string      `json:"description" form:"description"`
	Image       *FileHandle `json:"image,omitempty"`
}

// UploadedImage references an uploaded file, RemoteURL is what gets posted
// and PreviewURL is only good for showing the file while the form is open.
type UploadedImage struct {
	RemoteURL  string `json:"remote_url"`
	PreviewURL string `json:"preview_url"`
}

type FieldError struct {
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

type FormState string

const (
	FormIdle       FormState = "idle"
	FormSubmitting FormState = "submitting"
	FormClosed     FormState = "closed"
)
