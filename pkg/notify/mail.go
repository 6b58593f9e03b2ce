package notify

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/config"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/models"
)

const sendTimeout = 5 * time.Second

type emailSender interface {
	NewMessage() *mailersend.Message
	Send(ctx context.Context, message *mailersend.Message) (*mailersend.Response, error)
}

// Mailer sends a copy of form notifications by email.
type Mailer struct {
	email emailSender
	from  mailersend.From
}

// NewMailer returns nil when no api key is configured.
func NewMailer(cfg config.Email) *Mailer {
	if cfg.APIKey == "" {
		return nil
	}
	ms := mailersend.NewMailersend(cfg.APIKey)
	return &Mailer{
		email: ms.Email,
		from:  mailersend.From{Name: cfg.FromName, Email: cfg.From},
	}
}

// For returns a Notifier mailing to, or nil when there is nothing to send to.
func (m *Mailer) For(to string) Notifier {
	if m == nil || to == "" {
		return nil
	}
	return NotifierFunc(func(ctx context.Context, n models.Notification) error {
		return m.send(ctx, to, n)
	})
}

func (m *Mailer) send(ctx context.Context, to string, n models.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	message := m.email.NewMessage()
	message.SetFrom(m.from)
	message.SetRecipients([]mailersend.Recipient{{Email: to}})
	message.SetSubject(n.Title)
	message.SetText(n.Description)
	message.SetHTML(fmt.Sprintf("<h1>%s</h1><p>%s</p>", html.EscapeString(n.Title), html.EscapeString(n.Description)))

	if _, err := m.email.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
