package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/service/dao"
	"github.com/viant/changegate/service/dao/criteria"
)

// Service implements request storage backed by afs: each request is one
// JSON document under basePath, so any afs scheme (file, mem, s3, gs) can
// hold the records.
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

var _ dao.Service[string, request.Request] = (*Service)(nil)

// Save persists a request document.
func (s *Service) Save(ctx context.Context, r *request.Request) error {
	if r == nil {
		return dao.ErrNilEntity
	}
	if r.ID == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	location := s.requestPath(r.ID)
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save request to %s: %w", location, err)
	}
	return nil
}

// Load retrieves a request document.
func (s *Service) Load(ctx context.Context, id string) (*request.Request, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	location := s.requestPath(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check request %s: %w", id, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read request %s: %w", id, err)
	}
	var r request.Request
	if err = json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request %s: %w", id, err)
	}
	return &r, nil
}

// Delete removes a request document.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	location := s.requestPath(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check request %s: %w", id, err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	return s.fs.Delete(ctx, location)
}

// List returns all stored requests, optionally filtered by a Status
// parameter. Unreadable documents are skipped with a log line so that one
// corrupted file does not hide the rest.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*request.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	var out []*request.Request
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			log.Printf("skipping unreadable request file %s: %v", object.URL(), err)
			continue
		}
		var r request.Request
		if err = json.Unmarshal(data, &r); err != nil {
			log.Printf("skipping malformed request file %s: %v", object.URL(), err)
			continue
		}
		if !criteria.FilterByStatus(string(r.Status), parameters) {
			continue
		}
		out = append(out, &r)
	}
	return out, nil
}

func (s *Service) requestPath(id string) string {
	return url.Join(s.basePath, fmt.Sprintf("%s.json", id))
}

// New creates a filesystem request store rooted at basePath.
func New(basePath string) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	fs := afs.New()
	ctx := context.Background()
	exists, _ := fs.Exists(ctx, basePath)
	if !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	basePath = url.Normalize(basePath, file.Scheme)
	return &Service{basePath: basePath, fs: fs}, nil
}
