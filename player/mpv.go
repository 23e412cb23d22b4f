// Package player drives an mpv process over its JSON-IPC socket.
//
// MPV is the media element: it mirrors mpv's observed properties and turns
// their changes into element events. Engine layers adaptive streaming
// commands (variant selection, reloads, recovery) over the same process.
package player

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playsync/playsync/constant"
	"github.com/playsync/playsync/log"
	"github.com/playsync/playsync/media"
	"github.com/playsync/playsync/where"
	"github.com/samber/lo"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

const (
	propTimePos        = "time-pos"
	propDuration       = "duration"
	propPause          = "pause"
	propPausedForCache = "paused-for-cache"
	propEOFReached     = "eof-reached"
	propVideoID        = "current-tracks/video/id"
	propTrackList      = "track-list"

	eventStartFile  = "start-file"
	eventFileLoaded = "file-loaded"
	eventEndFile    = "end-file"
	// eventDisconnected is raised locally when the event connection drops.
	eventDisconnected = "disconnected"
)

var errNotStarted = errors.New("mpv is not running")

// MPV is a media.Element backed by an mpv process.
type MPV struct {
	path    string
	options []string

	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	events     *EventListener
	ipcMu      sync.Mutex

	mu        sync.Mutex
	state     mirror
	listeners map[int]func(media.Event)
	hooks     map[int]EventCallback
	nextID    int
}

// NewMPV creates an element for the mpv binary at path. Nothing runs until Start.
func NewMPV(path string, options ...string) *MPV {
	return &MPV{
		path:      path,
		options:   options,
		exited:    make(chan struct{}),
		listeners: make(map[int]func(media.Event)),
		hooks:     make(map[int]EventCallback),
	}
}

// Start launches an idle mpv window and begins observing it.
func (m *MPV) Start() error {
	if m.cmd != nil {
		return nil
	}

	socketPath := filepath.Join(where.Temp(), fmt.Sprintf("%s-%s.sock", constant.Playsync, uuid.NewString()[:8]))
	cmd := exec.Command(m.path, launchArgs(socketPath, m.options)...)

	// Detach from parent process group to prevent cascading shell panics.
	cmd.SysProcAttr = detached()
	cmd.Stdout, cmd.Stderr, cmd.Stdin = nil, nil, nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	m.cmd = cmd
	m.exited = make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(socketPath); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killGroup(cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.ipcMu.Lock()
	m.socketPath = socketPath
	m.ipcMu.Unlock()

	m.events = NewEventListener(socketPath, m.dispatch)
	if err := m.events.Start(); err != nil {
		_ = m.Close()
		return err
	}
	return nil
}

func launchArgs(socketPath string, options []string) []string {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", socketPath),
		fmt.Sprintf("--title=%s", constant.Playsync),
		"--force-window=yes",
		"--idle=yes",
		"--keep-open=yes",
	}
	return append(args, options...)
}

// Wait returns a channel that is closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

func (m *MPV) waitForSocket(socketPath string) error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", socketPath, socketWaitRetries)
}

// Close quits mpv, killing it if it does not exit in time.
func (m *MPV) Close() error {
	if m.events != nil {
		m.events.Stop()
	}
	if m.cmd == nil {
		return nil
	}

	_, _ = m.sendCommand("quit")

	select {
	case <-m.exited:
	case <-time.After(3 * time.Second):
		_ = killGroup(m.cmd)
	}

	m.ipcMu.Lock()
	socketPath := m.socketPath
	m.socketPath = ""
	m.ipcMu.Unlock()

	if socketPath != "" {
		_ = os.Remove(socketPath)
	}
	return nil
}

// Set assigns an mpv property or runtime option.
func (m *MPV) Set(property string, value any) error {
	_, err := m.sendCommand("set_property", property, value)
	return err
}

func (m *MPV) get(property string) (any, error) {
	return m.sendCommand("get_property", property)
}

func (m *MPV) loadFile(target string) error {
	_, err := m.sendCommand("loadfile", target, "replace")
	return err
}

func (m *MPV) SetSource(src string) error {
	target, err := sanitizeMediaTarget(src)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}
	return m.loadFile(target)
}

// CanPlayType reports true for HLS and any audio or video type; mpv demuxes them all.
func (m *MPV) CanPlayType(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	return mime == constant.HLSMimeType ||
		strings.HasPrefix(mime, "video/") ||
		strings.HasPrefix(mime, "audio/")
}

func (m *MPV) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.timePos
}

func (m *MPV) SetCurrentTime(seconds float64) error {
	_, err := m.sendCommand("seek", seconds, "absolute")
	return err
}

func (m *MPV) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.duration
}

func (m *MPV) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.paused
}

func (m *MPV) Play() error  { return m.Set(propPause, false) }
func (m *MPV) Pause() error { return m.Set(propPause, true) }

func (m *MPV) ReadyState() media.ReadyState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ready
}

func (m *MPV) Listen(fn func(media.Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// hook registers fn for raw mpv events; used by the engine sharing this process.
func (m *MPV) hook(fn EventCallback) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.hooks[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.hooks, id)
	}
}

// dispatch runs on the event listener's goroutine.
func (m *MPV) dispatch(name string, data any) {
	m.mu.Lock()
	kinds := m.state.apply(name, data)
	hooks := inOrder(m.hooks)
	listeners := inOrder(m.listeners)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(name, data)
	}
	for _, kind := range kinds {
		for _, fn := range listeners {
			fn(media.Event{Kind: kind})
		}
	}
}

func inOrder[T any](fns map[int]T) []T {
	ids := lo.Keys(fns)
	sort.Ints(ids)
	return lo.Map(ids, func(id int, _ int) T { return fns[id] })
}

// mirror is the last known value of every observed property.
type mirror struct {
	timePos  float64
	duration float64
	paused   bool
	ready    media.ReadyState
}

// apply records a property change or lifecycle event and returns the element events it implies.
func (s *mirror) apply(name string, data any) []media.EventKind {
	switch name {
	case propTimePos:
		if v, ok := data.(float64); ok {
			s.timePos = v
			return []media.EventKind{media.TimeUpdate}
		}
	case propDuration:
		if v, ok := data.(float64); ok {
			s.duration = v
		}
	case propPause:
		v, ok := data.(bool)
		if !ok || v == s.paused {
			return nil
		}
		s.paused = v
		if v {
			return []media.EventKind{media.Pause}
		}
		return []media.EventKind{media.Play}
	case propPausedForCache:
		if v, ok := data.(bool); ok {
			if v {
				return []media.EventKind{media.Waiting}
			}
			return []media.EventKind{media.Playing}
		}
	case propEOFReached:
		if v, ok := data.(bool); ok && v {
			return []media.EventKind{media.Ended}
		}
	case eventStartFile:
		s.timePos, s.duration = 0, 0
		s.ready = media.HaveNothing
	case eventFileLoaded:
		s.ready = media.HaveEnoughData
		kinds := []media.EventKind{media.LoadedData, media.CanPlay}
		if !s.paused {
			kinds = append(kinds, media.Play)
		}
		return kinds
	}
	return nil
}

// sanitizeMediaTarget validates that a URL is safe to pass to mpv.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	// Prevent flag injection: URLs must not start with -
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}
