package identity

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/uuid"
)

// Static is an in-process identity directory for local runs and tests.
// A grower matches when the sample equals the enrolled reference bytes.
type Static struct {
	mu     sync.RWMutex
	photos map[uuid.UUID][]byte
}

func NewStatic() *Static {
	return &Static{photos: make(map[uuid.UUID][]byte)}
}

func (s *Static) Enroll(growerID uuid.UUID, reference []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos[growerID] = append([]byte(nil), reference...)
}

func (s *Static) Match(ctx context.Context, growerID uuid.UUID, sample []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	reference, ok := s.photos[growerID]
	s.mu.RUnlock()
	if !ok {
		return false, ErrNoReferencePhoto
	}
	return len(sample) > 0 && bytes.Equal(reference, sample), nil
}

func (s *Static) PhotoReference(ctx context.Context, growerID uuid.UUID) (string, error) {
	s.mu.RLock()
	_, ok := s.photos[growerID]
	s.mu.RUnlock()
	if !ok {
		return "", ErrNoReferencePhoto
	}
	return "static:" + growerID.String(), nil
}
