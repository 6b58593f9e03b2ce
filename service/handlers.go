package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/cache"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/form"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/models"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/validation"
)

var errImageMissing = errors.New("image file not found in the req")

type errorResponse struct {
	Error string `json:"error"`
}

type fieldErrorsResponse struct {
	Errors []models.FieldError `json:"errors"`
}

type openFormRequest struct {
	Email  string `json:"email" form:"email"`
	Locale string `json:"locale" form:"locale"`
}

type formResponse struct {
	ID    string           `json:"id"`
	State models.FormState `json:"state"`
}

type submitResponse struct {
	Notification models.Notification `json:"notification"`
	CloseModal   bool                `json:"close_modal"`
}

func (s *Service) OpenForm(c echo.Context) error {
	request := &openFormRequest{}
	if err := c.Bind(request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	f, err := s.forms.Open(func(id string) *form.Form {
		return s.newForm(id, request.Email, request.Locale)
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, formResponse{ID: f.ID(), State: f.State()})
}

func (s *Service) AttachImage(c echo.Context) error {
	f, err := s.forms.Get(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}

	file, src, err := extractImageFromRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	defer src.Close()

	uploaded, err := f.AttachImage(c.Request().Context(), file, src)
	if err != nil {
		return formError(c, err)
	}
	return c.JSON(http.StatusOK, uploaded)
}

func extractImageFromRequest(c echo.Context) (models.FileHandle, multipart.File, error) {
	if err := c.Request().ParseMultipartForm(10 << 20); err != nil { //10MB kept in memory, the rest spills to disk
		return models.FileHandle{}, nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	mpForm, err := c.MultipartForm()
	if err != nil {
		return models.FileHandle{}, nil, err
	}

	files, exists := mpForm.File["image"]
	if !exists || len(files) == 0 {
		return models.FileHandle{}, nil, errImageMissing
	}

	src, err := files[0].Open()
	if err != nil {
		return models.FileHandle{}, nil, err
	}
	return models.FileHandle{
		Name:        files[0].Filename,
		Size:        files[0].Size,
		ContentType: files[0].Header.Get("Content-Type"),
	}, src, nil
}

func (s *Service) SubmitForm(c echo.Context) error {
	f, err := s.forms.Get(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}
	values := &form.Values{}
	if err := c.Bind(values); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	n, err := f.HandleSubmit(c.Request().Context(), *values)
	if err != nil {
		return formError(c, err)
	}
	return c.JSON(http.StatusOK, submitResponse{Notification: n, CloseModal: true})
}

// CloseForm closes the modal without submitting.
func (s *Service) CloseForm(c echo.Context) error {
	id := c.Param("id")
	f, err := s.forms.Get(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}
	if err := f.Close(); err != nil {
		return formError(c, err)
	}
	s.endSession(id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Service) ListImages(c echo.Context) error {
	after := c.QueryParam("after")
	page, err := s.listing.Fetch(c.Request().Context(), cache.PageKey(cache.ImagesKey, after), func(ctx context.Context) (*models.ImagePage, error) {
		return s.images.ListImages(ctx, after)
	})
	if err != nil {
		log.Printf("failed to list images: %v", err)
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "failed to list images"})
	}
	return c.JSON(http.StatusOK, page)
}

func formError(c echo.Context, err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return c.JSON(http.StatusUnprocessableEntity, fieldErrorsResponse{Errors: verrs})
	case errors.Is(err, form.ErrFormClosed):
		return c.JSON(http.StatusGone, errorResponse{Error: err.Error()})
	case errors.Is(err, form.ErrSubmitInFlight), errors.Is(err, form.ErrImageReplaced):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
