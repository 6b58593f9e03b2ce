package service

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/sqids/sqids-go"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/pkg/form"
)

var ErrFormNotFound = errors.New("form not found")

// FormStore keeps the forms of the modals currently open.
type FormStore struct {
	mu    sync.Mutex
	ids   *sqids.Sqids
	next  uint64
	forms map[string]*form.Form
}

func NewFormStore() (*FormStore, error) {
	ids, err := sqids.New(sqids.Options{MinLength: 10})
	if err != nil {
		return nil, fmt.Errorf("failed to init form ids: %w", err)
	}
	return &FormStore{
		ids:   ids,
		next:  uint64(rand.Int63n(1 << 32)),
		forms: make(map[string]*form.Form),
	}, nil
}

// Open registers the form returned by build under a fresh id.
func (s *FormStore) Open(build func(id string) *form.Form) (*form.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id, err := s.ids.Encode([]uint64{s.next})
	if err != nil {
		return nil, fmt.Errorf("failed to encode form id: %w", err)
	}
	f := build(id)
	s.forms[id] = f
	return f, nil
}

func (s *FormStore) Get(id string) (*form.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[id]
	if !ok {
		return nil, ErrFormNotFound
	}
	return f, nil
}

func (s *FormStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, id)
}

func (s *FormStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms)
}
