// Package notify delivers form notifications to whoever is listening for them.
package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/models"
)

type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

type NotifierFunc func(ctx context.Context, n models.Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n models.Notification) error { return f(ctx, n) }

// Nop drops every notification.
var Nop Notifier = NotifierFunc(func(context.Context, models.Notification) error { return nil })

type multi []Notifier

// Multi fans a notification out to every notifier, nil entries are skipped.
func Multi(notifiers ...Notifier) Notifier {
	var m multi
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	return m
}

func (m multi) Notify(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const subscriberBuffer = 8

// Hub routes notifications to the subscribers of a form.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan models.Notification]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan models.Notification]struct{})}
}

// Subscribe returns a channel receiving the notifications of formID and a
// cancel func that must be called once the subscriber goes away.
func (h *Hub) Subscribe(formID string) (<-chan models.Notification, func()) {
	ch := make(chan models.Notification, subscriberBuffer)
	h.mu.Lock()
	if h.subs[formID] == nil {
		h.subs[formID] = make(map[chan models.Notification]struct{})
	}
	h.subs[formID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[formID][ch]; ok {
				delete(h.subs[formID], ch)
				close(ch)
				if len(h.subs[formID]) == 0 {
					delete(h.subs, formID)
				}
			}
		})
	}
}

// Publish never blocks, a subscriber with a full buffer misses the notification.
func (h *Hub) Publish(formID string, n models.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[formID] {
		select {
		case ch <- n:
		default:
		}
	}
}

// Close ends every subscription of formID.
func (h *Hub) Close(formID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[formID] {
		close(ch)
	}
	delete(h.subs, formID)
}

// For returns a Notifier publishing to the subscribers of formID.
func (h *Hub) For(formID string) Notifier {
	return NotifierFunc(func(_ context.Context, n models.Notification) error {
		h.Publish(formID, n)
		return nil
	})
}
