// Package shell maintains command sessions against the legacy host, local
// or over SSH, and exposes them as remote.Runner instances.
package shell

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs/url"
	"github.com/viant/changegate/remote"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	rssh "github.com/viant/gosh/runner/ssh"
	"github.com/viant/scy/cred/secret"
	"golang.org/x/crypto/ssh"
)

// Host identifies the system commands run on. URL uses an afs-style scheme,
// e.g. "ssh://erp-host:22/" or "bash://localhost/"; Credentials names a scy
// secret resource holding the SSH credentials.
type Host struct {
	URL         string
	Credentials string
	Env         map[string]string
}

// Service caches one gosh session per host URL.
type Service struct {
	sessions map[string]*sessionInfo
	mux      sync.Mutex
}

type sessionInfo struct {
	service *gosh.Service
}

// New creates a session service.
func New() *Service {
	return &Service{sessions: make(map[string]*sessionInfo)}
}

// Runner returns a remote.Runner bound to the supplied host.
func (s *Service) Runner(host *Host) remote.Runner {
	return &hostRunner{service: s, host: host}
}

type hostRunner struct {
	service *Service
	host    *Host
}

func (r *hostRunner) Run(ctx context.Context, command string, timeoutMs int) (string, int, error) {
	return r.service.Run(ctx, r.host, command, timeoutMs)
}

// Run executes a single command on the host and returns its combined
// output and exit status.
func (s *Service) Run(ctx context.Context, host *Host, command string, timeoutMs int) (string, int, error) {
	session, err := s.getSession(ctx, host)
	if err != nil {
		return "", -1, fmt.Errorf("failed to get session for %s: %w", host.URL, err)
	}
	if timeoutMs <= 0 {
		timeoutMs = int(time.Minute.Milliseconds())
	}
	started := time.Now()
	output, status, err := session.service.Run(ctx, command, runner.WithTimeout(timeoutMs))
	if elapsed := time.Since(started); elapsed > time.Duration(timeoutMs)*time.Millisecond && err == nil {
		err = fmt.Errorf("command timed out after %s", elapsed)
	}
	return output, status, err
}

// getSession retrieves an existing session or creates a new one.
func (s *Service) getSession(ctx context.Context, host *Host) (*sessionInfo, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if session, ok := s.sessions[host.URL]; ok {
		return session, nil
	}

	var envOptions []runner.Option
	if len(host.Env) > 0 {
		envOptions = append(envOptions, runner.WithEnvironment(host.Env))
	}

	var service *gosh.Service
	var err error
	if url.Host(host.URL) == "localhost" {
		service, err = gosh.New(ctx, local.New(envOptions...))
	} else {
		config, cErr := s.sshConfig(ctx, host)
		if cErr != nil {
			return nil, fmt.Errorf("failed to get SSH config: %w", cErr)
		}
		sshHost := url.Host(host.URL)
		if !strings.Contains(sshHost, ":") {
			sshHost += ":22"
		}
		service, err = gosh.New(ctx, rssh.New(sshHost, config, envOptions...))
	}
	if err != nil {
		return nil, err
	}
	session := &sessionInfo{service: service}
	s.sessions[host.URL] = session
	return session, nil
}

// sshConfig resolves the host's scy secret into an SSH client config.
func (s *Service) sshConfig(ctx context.Context, host *Host) (*ssh.ClientConfig, error) {
	credentials := host.Credentials
	if credentials == "" {
		credentials = "localhost"
	}
	secrets := secret.New()
	generic, err := secrets.GetCredentials(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return generic.SSH.Config(ctx)
}

// Close releases all cached sessions.
func (s *Service) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	var errs []string
	for id, session := range s.sessions {
		if err := session.service.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("failed to close session %s: %v", id, err))
		}
	}
	s.sessions = make(map[string]*sessionInfo)
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sessions: %s", strings.Join(errs, "; "))
	}
	return nil
}
