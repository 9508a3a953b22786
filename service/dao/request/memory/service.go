package memory

import (
	"context"
	"sync"

	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/service/dao"
	"github.com/viant/changegate/service/dao/criteria"
)

// Service implements an in-memory, thread-safe request store. Save merges
// into the canonical instance per id so that the request mutex survives;
// Load hands out the canonical instance, Clone is the caller's business.
type Service struct {
	requests map[string]*request.Request
	mux      sync.RWMutex
}

var _ dao.Service[string, request.Request] = (*Service)(nil)

func (s *Service) Save(_ context.Context, r *request.Request) error {
	if r == nil {
		return dao.ErrNilEntity
	}
	if r.ID == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if existing, ok := s.requests[r.ID]; ok && existing != nil && existing != r {
		existing.CopyFrom(r)
	} else {
		s.requests[r.ID] = r
	}
	return nil
}

func (s *Service) Load(_ context.Context, id string) (*request.Request, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mux.RLock()
	r, ok := s.requests[id]
	s.mux.RUnlock()

	if !ok {
		return nil, dao.ErrNotFound
	}
	return r, nil
}

func (s *Service) Delete(_ context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if _, ok := s.requests[id]; !ok {
		return dao.ErrNotFound
	}
	delete(s.requests, id)
	return nil
}

func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*request.Request, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	out := make([]*request.Request, 0, len(s.requests))
	for _, r := range s.requests {
		if !criteria.FilterByStatus(string(r.GetStatus()), parameters) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func New() *Service {
	return &Service{requests: map[string]*request.Request{}}
}
