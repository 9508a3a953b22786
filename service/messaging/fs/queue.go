// Package fs provides a filesystem-backed queue over afs. Messages are JSON
// documents moved between state directories, so events survive restarts and
// any afs scheme (file, mem, s3) can hold them.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/changegate/service/messaging"
)

// Config for the filesystem queue.
type Config struct {
	BaseURL    string // root directory of the queue
	MaxRetries int
}

// DefaultConfig returns a default queue configuration.
func DefaultConfig(baseURL string) Config {
	return Config{BaseURL: baseURL, MaxRetries: 3}
}

// Message implements messaging.Message for the filesystem queue.
type Message[T any] struct {
	ID        string    `json:"id"`
	Data      T         `json:"data"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Retries   int       `json:"retries"`

	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload.
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack moves the message to the done directory.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	return m.queue.move(context.Background(), m, m.queue.doneURL)
}

// Nack returns the message to pending for another attempt, or parks it in
// the dead letter directory once the retry limit is exceeded.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	target := m.queue.pendingURL
	if m.Retries > m.queue.config.MaxRetries {
		target = m.queue.dlqURL
	}
	return m.queue.move(context.Background(), m, target)
}

// Queue is a filesystem-backed messaging.Queue.
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	pendingURL    string
	processingURL string
	doneURL       string
	dlqURL        string
	mu            sync.Mutex
}

// NewQueue creates a filesystem queue rooted at config.BaseURL.
func NewQueue[T any](fs afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("queue base URL cannot be empty")
	}
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingURL:    url.Join(config.BaseURL, "pending"),
		processingURL: url.Join(config.BaseURL, "processing"),
		doneURL:       url.Join(config.BaseURL, "done"),
		dlqURL:        url.Join(config.BaseURL, "dlq"),
	}
	ctx := context.Background()
	for _, dir := range []string{q.pendingURL, q.processingURL, q.doneURL, q.dlqURL} {
		if ok, _ := fs.Exists(ctx, dir); !ok {
			if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
				return nil, fmt.Errorf("failed to create queue directory %s: %w", dir, err)
			}
		}
	}
	return q, nil
}

// Publish writes a new message into the pending directory.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	msg := &Message[T]{ID: uuid.New().String(), Data: *t, CreatedAt: time.Now()}
	return q.write(ctx, url.Join(q.pendingURL, q.fileName(msg)), msg)
}

// Consume claims the oldest pending message by moving it to processing. A
// nil message with nil error means the queue is empty.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	objects, err := q.fs.List(ctx, q.pendingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending messages: %w", err)
	}
	var names []string
	byName := map[string]string{}
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		names = append(names, object.Name())
		byName[object.Name()] = object.URL()
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)
	sourceURL := byName[names[0]]

	msg, err := q.read(ctx, sourceURL)
	if err != nil {
		_ = q.fs.Move(ctx, sourceURL, url.Join(q.dlqURL, "invalid-"+names[0]))
		return nil, err
	}
	msg.queue = q
	if err = q.write(ctx, url.Join(q.processingURL, names[0]), msg); err != nil {
		return nil, err
	}
	if err = q.fs.Delete(ctx, sourceURL); err != nil {
		return nil, fmt.Errorf("failed to claim message %s: %w", msg.ID, err)
	}
	return msg, nil
}

// move re-persists the message under targetURL and drops the processing copy.
func (q *Queue[T]) move(ctx context.Context, m *Message[T], targetURL string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	name := q.fileName(m)
	if err := q.write(ctx, url.Join(targetURL, name), m); err != nil {
		return err
	}
	processing := url.Join(q.processingURL, name)
	if ok, _ := q.fs.Exists(ctx, processing); ok {
		return q.fs.Delete(ctx, processing)
	}
	return nil
}

func (q *Queue[T]) fileName(m *Message[T]) string {
	return fmt.Sprintf("%s_%s.json", m.CreatedAt.UTC().Format("20060102150405.000000000"), m.ID)
}

func (q *Queue[T]) write(ctx context.Context, destURL string, m *Message[T]) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", m.ID, err)
	}
	return q.fs.Upload(ctx, destURL, file.DefaultFileOsMode, bytes.NewReader(data))
}

func (q *Queue[T]) read(ctx context.Context, sourceURL string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", sourceURL, err)
	}
	var msg Message[T]
	if err = json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", sourceURL, err)
	}
	return &msg, nil
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
