// Package session supervises the artist session: a notebook server and an
// art server child process, plus a background readiness poller for the
// art server.
package session

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"studiod/internal/common/fsutil"
	"studiod/internal/common/procutil"
	"studiod/pkg/types"
)

// terminateGroup is replaced in tests.
var terminateGroup = procutil.TerminateGroup

// child is a started process and its exit notification.
type child struct {
	name   string
	cmd    *exec.Cmd
	pid    int
	exited chan struct{}
	err    error
}

func (c *child) alive() bool {
	if c == nil {
		return false
	}
	select {
	case <-c.exited:
		return false
	default:
		return true
	}
}

// Supervisor owns at most one notebook process, one art server process and
// one active readiness poller.
type Supervisor struct {
	cfg    Config
	log    zerolog.Logger
	client *http.Client

	mu        sync.Mutex
	artist    string
	startedAt time.Time
	notebook  *child
	art       *child
	ready     bool
	gen       uint64
	stopPoll  context.CancelFunc
	pollers   sync.WaitGroup
}

// New constructs a Supervisor from Config.
func New(cfg Config) *Supervisor {
	if cfg.ReadyDelay < 0 {
		cfg.ReadyDelay = 0
	} else if cfg.ReadyDelay == 0 {
		cfg.ReadyDelay = defaultReadyDelay
	}
	if cfg.ReadyInterval <= 0 {
		cfg.ReadyInterval = defaultReadyInterval
	}
	if cfg.ReadyAttempts <= 0 {
		cfg.ReadyAttempts = defaultReadyAttempts
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	// Timeout=0: every probe carries its own context deadline.
	return &Supervisor{
		cfg:    cfg,
		log:    log.With().Str("component", "session").Logger(),
		client: &http.Client{Timeout: 0},
	}
}

// ArtistDir returns the output folder for artist.
func (s *Supervisor) ArtistDir(artist string) (string, error) {
	name := strings.TrimSpace(artist)
	if name == "" {
		return "", emptyNameError{}
	}
	if name == "." || strings.ContainsAny(name, `/\`) {
		return "", invalidNameError{name: name}
	}
	dir, ok := fsutil.WithinDir(s.cfg.OutputDir, name)
	if !ok {
		return "", invalidNameError{name: name}
	}
	return dir, nil
}

// Start begins a session for artist. Children that are already running are
// left alone; missing or exited ones are started. It never waits for the art
// server to become ready.
func (s *Supervisor) Start(artist string) error {
	dir, err := s.ArtistDir(artist)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(artist)
	if err := fsutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.notebook.alive() {
		c, err := s.spawn("notebook", s.cfg.Notebook)
		if err != nil {
			return fmt.Errorf("start notebook: %w", err)
		}
		s.notebook = c
	}
	if !s.art.alive() {
		if s.cfg.ArtServer == nil {
			return fmt.Errorf("start art server: no command configured")
		}
		c, err := s.spawn("art_server", s.cfg.ArtServer(dir))
		if err != nil {
			return fmt.Errorf("start art server: %w", err)
		}
		s.art = c
		s.ready = false
		artServerReady.Set(0)
	}
	if s.artist != name {
		s.startedAt = time.Now()
	}
	s.artist = name
	s.startPollerLocked()
	sessionStartsTotal.Inc()
	s.log.Info().Str("event", "session_start").Str("artist", name).Int("notebook_pid", s.notebook.pid).
		Int("art_pid", s.art.pid).Msg("session event=session_start")
	return nil
}

// spawn starts cmd in its own process group and watches for its exit.
// Callers hold s.mu.
func (s *Supervisor) spawn(name string, c Command) (*child, error) {
	if c.Path == "" {
		return nil, fmt.Errorf("%s: no executable configured", name)
	}
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = os.Environ()
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	l := s.log.With().Str("child", name).Logger()
	cmd.Stdout = newLogLineWriter(l, "stdout")
	cmd.Stderr = newLogLineWriter(l, "stderr")
	procutil.SetGroup(cmd)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	ch := &child{name: name, cmd: cmd, pid: cmd.Process.Pid, exited: make(chan struct{})}
	go func() {
		ch.err = cmd.Wait()
		close(ch.exited)
		l.Info().Str("event", "child_exit").Int("pid", ch.pid).AnErr("error", ch.err).Msg("session event=child_exit")
	}()
	l.Info().Str("event", "child_start").Int("pid", ch.pid).Str("path", c.Path).Msg("session event=child_start")
	return ch, nil
}

// startPollerLocked replaces any running poller with a fresh one.
func (s *Supervisor) startPollerLocked() {
	if s.stopPoll != nil {
		s.stopPoll()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stopPoll = cancel
	s.gen++
	gen := s.gen
	s.pollers.Add(1)
	go func() {
		defer s.pollers.Done()
		s.poll(ctx, gen)
	}()
}

// poll waits ReadyDelay, then probes up to ReadyAttempts times.
func (s *Supervisor) poll(ctx context.Context, gen uint64) {
	if !sleepCtx(ctx, s.cfg.ReadyDelay) {
		return
	}
	for i := 0; i < s.cfg.ReadyAttempts; i++ {
		if s.probe(ctx) {
			s.mu.Lock()
			if s.gen == gen && s.art.alive() {
				s.ready = true
				artServerReady.Set(1)
			}
			s.mu.Unlock()
			s.log.Info().Str("event", "art_ready").Int("attempt", i+1).Msg("session event=art_ready")
			return
		}
		if i < s.cfg.ReadyAttempts-1 && !sleepCtx(ctx, s.cfg.ReadyInterval) {
			return
		}
	}
	s.log.Warn().Str("event", "art_not_ready").Int("attempts", s.cfg.ReadyAttempts).Msg("session event=art_not_ready")
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// probe reports whether the art server health endpoint answers 200.
func (s *Supervisor) probe(ctx context.Context) bool {
	if s.cfg.ProbeURL == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.ProbeURL, nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Readiness probes the art server now. It does not change the state the
// background poller maintains.
func (s *Supervisor) Readiness(ctx context.Context) bool {
	return s.probe(ctx)
}

// Info returns a snapshot of the session.
func (s *Supervisor) Info() types.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := types.SessionInfo{
		Artist:           s.artist,
		NotebookRunning:  s.notebook.alive(),
		ArtServerRunning: s.art.alive(),
		ArtServerReady:   s.ready,
	}
	if s.artist != "" {
		t := s.startedAt
		info.StartedAt = &t
	}
	if info.NotebookRunning {
		info.NotebookPID = s.notebook.pid
	}
	if info.ArtServerRunning {
		info.ArtServerPID = s.art.pid
	}
	return info
}

// Terminate signals both children to exit and clears the session. It does
// not wait for the processes to exit.
func (s *Supervisor) Terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range []*child{s.notebook, s.art} {
		// a reaped child's pid and group may already belong to another process
		if !c.alive() {
			continue
		}
		if err := terminateGroup(c.pid); err != nil {
			s.log.Warn().Err(err).Str("child", c.name).Int("pid", c.pid).Msg("session event=terminate_failed")
		}
	}
	if s.stopPoll != nil {
		s.stopPoll()
		s.stopPoll = nil
	}
	s.gen++
	s.notebook, s.art = nil, nil
	s.ready = false
	artServerReady.Set(0)
	if s.artist != "" {
		s.log.Info().Str("event", "session_terminate").Str("artist", s.artist).Msg("session event=session_terminate")
	}
	s.artist = ""
	s.startedAt = time.Time{}
}

// WaitPoller blocks until every readiness poller has returned.
func (s *Supervisor) WaitPoller() { s.pollers.Wait() }

// Close terminates the session and waits for the poller.
func (s *Supervisor) Close() {
	s.Terminate()
	s.WaitPoller()
}
