package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

const debounceInterval = 100 * time.Millisecond

// EventType defines the type of storage event.
type EventType int

const (
	// EventChanged means the file was modified by another process.
	EventChanged EventType = iota
	// EventError means watching or re-reading the file failed.
	EventError
)

// Event is emitted by a watched FileStore.
type Event struct {
	Error   error
	Session models.PersistedSession
	Type    EventType
}

// persistedState mirrors the versioned {state, version} layout stored under StorageKey.
type persistedState struct {
	State   models.PersistedSession `json:"state"`
	Version int                     `json:"version"`
}

type fileLayout map[string]json.RawMessage

// FileStore persists the session as JSON on disk.
type FileStore struct {
	watcher       *fsnotify.Watcher
	debounceTimer *time.Timer
	eventChan     chan Event
	stopChan      chan struct{}
	path          string
	lastWritten   []byte
	closeOnce     sync.Once
	mu            sync.Mutex
}

// NewFileStore creates a store backed by path, creating its directory.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &FileStore{
		path:      path,
		eventChan: make(chan Event, 16),
		stopChan:  make(chan struct{}),
	}, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the persisted pair. A missing file is an empty session.
func (f *FileStore) Load() (models.PersistedSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked()
}

func (f *FileStore) loadLocked() (models.PersistedSession, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.PersistedSession{}, nil
		}
		return models.PersistedSession{}, fmt.Errorf("failed to read session file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (models.PersistedSession, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.PersistedSession{}, nil
	}

	var layout fileLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		return models.PersistedSession{}, fmt.Errorf("failed to parse session file: %w", err)
	}
	raw, ok := layout[StorageKey]
	if !ok {
		return models.PersistedSession{}, nil
	}

	var state persistedState
	if err := json.Unmarshal(raw, &state); err != nil {
		return models.PersistedSession{}, fmt.Errorf("failed to parse %s: %w", StorageKey, err)
	}
	return state.State, nil
}

// Save atomically writes the pair.
func (f *FileStore) Save(p models.PersistedSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, err := json.Marshal(persistedState{State: p})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	data, err := json.MarshalIndent(fileLayout{StorageKey: state}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmpFile := f.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, f.path); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	f.lastWritten = data
	return nil
}

// Clear writes an empty session.
func (f *FileStore) Clear() error {
	return f.Save(models.PersistedSession{})
}

// Events returns the channel of external change events. It only receives
// after Watch has been called.
func (f *FileStore) Events() <-chan Event {
	return f.eventChan
}

// Watch starts reporting edits made to the file by other processes.
func (f *FileStore) Watch() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory so atomic renames are seen.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}
	f.watcher = watcher

	go f.watchLoop(watcher)
	return nil
}

func (f *FileStore) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(f.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			f.mu.Lock()
			if f.debounceTimer != nil {
				f.debounceTimer.Stop()
			}
			f.debounceTimer = time.AfterFunc(debounceInterval, f.handleFileChange)
			f.mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.sendEvent(Event{Type: EventError, Error: err})

		case <-f.stopChan:
			return
		}
	}
}

// handleFileChange re-reads the file and reports it unless it is our own write.
func (f *FileStore) handleFileChange() {
	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	if err != nil && !os.IsNotExist(err) {
		f.mu.Unlock()
		f.sendEvent(Event{Type: EventError, Error: err})
		return
	}
	if err == nil && bytes.Equal(data, f.lastWritten) {
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()

	session, err := parse(data)
	if err != nil {
		f.sendEvent(Event{Type: EventError, Error: err})
		return
	}
	logger.Debug("session file changed externally", "path", f.path)
	f.sendEvent(Event{Type: EventChanged, Session: session})
}

// sendEvent sends an event to the event channel non-blocking.
func (f *FileStore) sendEvent(event Event) {
	select {
	case f.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-f.eventChan:
		default:
		}
		select {
		case f.eventChan <- event:
		default:
		}
	}
}

// Close stops the watcher.
func (f *FileStore) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.stopChan)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.debounceTimer != nil {
			f.debounceTimer.Stop()
		}
		if f.watcher != nil {
			err = f.watcher.Close()
		}
	})
	return err
}
