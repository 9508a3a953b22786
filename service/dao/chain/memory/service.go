package memory

import (
	"context"

	"github.com/viant/changegate/model/chain"
	"github.com/viant/changegate/service/dao"
	"github.com/viant/changegate/service/dao/store"
)

// Service stores department approval chains keyed by department name. Loads
// return deep copies: a chain edited by an administrator must never leak
// into an evaluation already in flight.
type Service struct {
	store *store.MemoryStore[string, chain.Chain]
}

var _ dao.Service[string, chain.Chain] = (*Service)(nil)

func chainKey(c *chain.Chain) string { return c.Department }

func (s *Service) Save(ctx context.Context, c *chain.Chain) error {
	if c == nil {
		return dao.ErrNilEntity
	}
	if c.Department == "" {
		return dao.ErrInvalidID
	}
	return s.store.Save(ctx, c.Clone())
}

func (s *Service) Load(ctx context.Context, department string) (*chain.Chain, error) {
	if department == "" {
		return nil, dao.ErrInvalidID
	}
	c, err := s.store.Load(ctx, department)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, dao.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *Service) Delete(ctx context.Context, department string) error {
	if department == "" {
		return dao.ErrInvalidID
	}
	return s.store.Delete(ctx, department)
}

func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*chain.Chain, error) {
	chains, err := s.store.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	out := make([]*chain.Chain, 0, len(chains))
	for _, c := range chains {
		out = append(out, c.Clone())
	}
	return out, nil
}

func New() *Service {
	return &Service{store: store.NewMemoryStore[string, chain.Chain](chainKey)}
}
