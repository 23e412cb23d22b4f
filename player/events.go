package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/playsync/playsync/log"
)

// EventCallback receives property changes by property name and other events by event name.
// For non-property events data is the whole decoded event object.
type EventCallback func(name string, data any)

// observed lists the properties mirrored into element and engine state.
var observed = []string{
	propTimePos,
	propDuration,
	propPause,
	propPausedForCache,
	propEOFReached,
	propVideoID,
}

// EventListener reads mpv events from one persistent connection.
type EventListener struct {
	socketPath string
	callback   EventCallback

	mu        sync.Mutex
	conn      net.Conn
	stopCh    chan struct{}
	listening bool
}

func NewEventListener(socketPath string, callback EventCallback) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		callback:   callback,
	}
}

// Start opens the connection, registers the observers on it and starts the read loop.
// mpv only reports property changes to the client that asked for them.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for i, name := range observed {
		payload, err := encodeCommand([]any{"observe_property", i + 1, name})
		if err != nil {
			conn.Close()
			return err
		}
		if _, err := conn.Write(payload); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.stopCh = make(chan struct{})
	el.listening = true
	go el.readLoop(conn, el.stopCh)

	log.Infof("mpv event listener started on %s (observing %d properties)", el.socketPath, len(observed))
	return nil
}

// Stop closes the connection; the read loop exits on its next read.
func (el *EventListener) Stop() {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		return
	}

	close(el.stopCh)
	_ = el.conn.Close()
	el.listening = false
}

func (el *EventListener) readLoop(conn net.Conn, stop <-chan struct{}) {
	reader := bufio.NewReaderSize(conn, readBufSize)
	// a line cut by the read deadline is completed on the next read
	var remainder []byte

	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}

		chunk, err := reader.ReadBytes('\n')
		remainder = append(remainder, chunk...)
		if err == nil {
			el.processEvent(remainder)
			remainder = remainder[:0]
			continue
		}

		if errors.Is(err, os.ErrDeadlineExceeded) {
			continue
		}
		select {
		case <-stop:
		default:
			log.Warnf("event listener read error: %v", err)
			el.mu.Lock()
			el.listening = false
			el.mu.Unlock()
			if el.callback != nil {
				el.callback(eventDisconnected, nil)
			}
		}
		return
	}
}

// processEvent parses and dispatches a single mpv event line. Command replies are ignored.
func (el *EventListener) processEvent(line []byte) {
	name, data, ok := parseEvent(line)
	if ok && el.callback != nil {
		el.callback(name, data)
	}
}

func parseEvent(line []byte) (name string, data any, ok bool) {
	var event map[string]any
	if err := json.Unmarshal(line, &event); err != nil {
		return "", nil, false
	}

	eventType, ok := event["event"].(string)
	if !ok {
		return "", nil, false
	}

	if eventType == "property-change" {
		name, _ := event["name"].(string)
		return name, event["data"], name != ""
	}
	return eventType, event, true
}
