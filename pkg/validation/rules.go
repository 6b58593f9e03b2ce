// Package validation declares the field rules of the add image form.
//
// Every field owns an ordered list of validator tags. Checks of a field run in
// order and the first failing one is reported, so a field carries at most one
// error. Messages come from the i18n catalog under "<field>.<tag>".
package validation

import (
	"errors"
	"fmt"
	"mime"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/i18n"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/models"
)

const (
	MaxFileSize       = 1000000 //bytes, files of this size are already rejected
	TitleMinLength    = 2
	TitleMaxLength    = 20
	DescriptionMaxLen = 65
)

var AcceptedFormats = []string{"image/jpeg", "image/png", "image/gif"}

var (
	validatorInstance *validator.Validate
	validatorOnce     sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInstance = validator.New()
	})
	return validatorInstance
}

type check struct {
	tag   string
	value func(in models.FormInput) any
}

type rule struct {
	field  models.Field
	checks []check
}

func title(in models.FormInput) any       { return in.Title }
func description(in models.FormInput) any { return in.Description }

var rules = []rule{
	{
		field: models.FieldImage,
		checks: []check{
			{tag: "required", value: func(in models.FormInput) any { return in.Image != nil }},
			{tag: fmt.Sprintf("lt=%d", MaxFileSize), value: func(in models.FormInput) any { return in.Image.Size }},
			{tag: "oneof=" + strings.Join(AcceptedFormats, " "), value: func(in models.FormInput) any { return MediaType(in.Image.ContentType) }},
		},
	},
	{
		field: models.FieldTitle,
		checks: []check{
			{tag: "required", value: title},
			{tag: fmt.Sprintf("min=%d", TitleMinLength), value: title},
			{tag: fmt.Sprintf("max=%d", TitleMaxLength), value: title},
		},
	},
	{
		field: models.FieldDescription,
		checks: []check{
			{tag: "required", value: description},
			{tag: fmt.Sprintf("max=%d", DescriptionMaxLen), value: description},
		},
	},
}

// MediaType strips parameters and normalizes case of a Content-Type value.
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// Errors is the set of field errors of one validation pass.
type Errors []models.FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Get returns the error attached to field, if any.
func (e Errors) Get(field models.Field) (models.FieldError, bool) {
	for _, fe := range e {
		if fe.Field == field {
			return fe, true
		}
	}
	return models.FieldError{}, false
}

type Rules struct {
	v       *validator.Validate
	catalog i18n.Catalog
}

func New(catalog i18n.Catalog) *Rules {
	return &Rules{v: getValidator(), catalog: catalog}
}

// Validate runs every field rule and returns nil when the input is valid.
func (r *Rules) Validate(in models.FormInput) Errors {
	var errs Errors
	for _, rl := range rules {
		if fe := r.run(rl, in); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

// ValidateField runs the rule of a single field, like a re-validation
// triggered by the field's widget.
func (r *Rules) ValidateField(in models.FormInput, field models.Field) *models.FieldError {
	for _, rl := range rules {
		if rl.field == field {
			return r.run(rl, in)
		}
	}
	return nil
}

func (r *Rules) run(rl rule, in models.FormInput) *models.FieldError {
	for _, c := range rl.checks {
		err := r.v.Var(c.value(in), c.tag)
		if err == nil {
			continue
		}
		tag := strings.SplitN(c.tag, "=", 2)[0]
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			tag = verrs[0].Tag()
		}
		return &models.FieldError{Field: rl.field, Message: r.catalog.Message(string(rl.field), tag)}
	}
	return nil
}
