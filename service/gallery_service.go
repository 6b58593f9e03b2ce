package service

import (
	"context"
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/config"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/api"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/cache"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/form"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/i18n"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/models"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/notify"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/storage"
)

type imagesAPI interface {
	form.ImageCreator
	ListImages(ctx context.Context, after string) (*models.ImagePage, error)
}

type Service struct {
	cfg         *config.Config
	e           *echo.Echo
	catalog     i18n.Catalog
	images      imagesAPI
	uploader    form.Uploader
	listing     *cache.QueryCache[*models.ImagePage]
	invalidator cache.Invalidator
	hub         *notify.Hub
	mailer      *notify.Mailer
	forms       *FormStore
}

func NewService(cfg *config.Config) (*Service, error) {
	forms, err := NewFormStore()
	if err != nil {
		return nil, err
	}
	listing := cache.New[*models.ImagePage](cfg.Cache.StaleTime)
	s := &Service{
		cfg:         cfg,
		e:           echo.New(),
		catalog:     i18n.Lookup(cfg.Form.Locale),
		listing:     listing,
		invalidator: listing,
		hub:         notify.NewHub(),
		mailer:      notify.NewMailer(cfg.Email),
		forms:       forms,
	}
	s.routes()
	return s, nil
}

func (s *Service) StartService() error {
	ctx := context.Background()

	//gallery backend client
	client, err := api.NewClient(s.cfg.API)
	if err != nil {
		return err
	}
	s.images = client

	//minio init
	s.uploader, err = storage.NewImageStore(ctx, s.cfg.Minio)
	if err != nil {
		return err
	}
	log.Println("connected to Minio")

	//rabbitMQ init, without a host the listing cache stays local to this instance
	if s.cfg.RabbitMQ.Host != "" {
		conn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s:%d/",
			s.cfg.RabbitMQ.Username, s.cfg.RabbitMQ.Password, s.cfg.RabbitMQ.Host, s.cfg.RabbitMQ.Port))
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		log.Println("Connected to RabbitMQ")
		defer conn.Close()
		go watchConnection(conn.NotifyClose(make(chan *amqp.Error, 1)))

		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("failed to open a channel: %w", err)
		}
		defer ch.Close()
		broadcaster, err := cache.NewBroadcaster(ch, s.cfg.RabbitMQ.Exchange, s.listing)
		if err != nil {
			return err
		}
		if err := broadcaster.Listen(); err != nil {
			return err
		}
		s.invalidator = broadcaster
	}

	if s.mailer == nil {
		log.Println("email notifications disabled")
	}

	if err := s.e.Start(s.cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func watchConnection(closed <-chan *amqp.Error) {
	if err, ok := <-closed; ok && err != nil {
		log.Printf("RabbitMQ connection lost: %v", err)
	}
}

func (s *Service) routes() {
	//setting up echo server with middleware
	s.e.Use(middleware.Logger())
	s.e.Use(middleware.Recover())

	v1 := s.e.Group("/api/v1")
	v1.POST("/forms", s.OpenForm)
	v1.PUT("/forms/:id/image", s.AttachImage)
	v1.POST("/forms/:id/submit", s.SubmitForm)
	v1.DELETE("/forms/:id", s.CloseForm)
	v1.GET("/forms/:id/notifications", s.StreamNotifications)
	v1.GET("/images", s.ListImages)
}

// newForm builds the form behind the modal with id, closing the modal ends
// the session.
func (s *Service) newForm(id, email, locale string) *form.Form {
	catalog := s.catalog
	if locale != "" {
		catalog = i18n.Lookup(locale)
	}
	return form.New(form.Options{
		ID:         id,
		Images:     s.images,
		Uploader:   s.uploader,
		Cache:      s.invalidator,
		Notifier:   notify.Multi(s.hub.For(id), s.mailer.For(email)),
		Catalog:    catalog,
		CloseModal: func() { s.endSession(id) },
	})
}

func (s *Service) endSession(id string) {
	s.forms.Remove(id)
	s.hub.Close(id)
}
