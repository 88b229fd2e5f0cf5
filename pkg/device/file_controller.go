package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// FileController reads the zigbee2mqtt data directory: state.json holds the
// last reported state per device and database.db holds one JSON record per
// line for every device in the network. Parsed files are cached until the
// watcher reports a change.
type FileController struct {
	statePath    string
	databasePath string

	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu      sync.Mutex
	state   *cachedState
	records *cachedRecords
	version map[string]uint64
}

type cachedState struct {
	raw    json.RawMessage
	states map[string]DeviceState
}

type cachedRecords struct {
	raw     []json.RawMessage
	devices []Device
}

// NewFileController creates a controller over the given files. When the
// watcher cannot be started every call re-reads the files.
func NewFileController(statePath, databasePath string) *FileController {
	c := &FileController{
		statePath:    statePath,
		databasePath: databasePath,
		stopCh:       make(chan struct{}),
		version:      make(map[string]uint64),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("zigbee file watcher unavailable, caching disabled")
		return c
	}

	// Watch the directories; zigbee2mqtt replaces files on save
	dirs := map[string]struct{}{
		filepath.Dir(statePath):    {},
		filepath.Dir(databasePath): {},
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("failed to watch zigbee data directory, caching disabled")
			_ = watcher.Close()
			return c
		}
	}

	c.watcher = watcher
	c.wg.Add(1)
	go c.watchLoop()
	return c
}

func (c *FileController) watchLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return

		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			c.invalidate(filepath.Clean(event.Name))

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("zigbee file watcher error")
		}
	}
}

func (c *FileController) invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch path {
	case filepath.Clean(c.statePath):
		c.state = nil
	case filepath.Clean(c.databasePath):
		c.records = nil
	default:
		return
	}
	c.version[path]++
}

func (c *FileController) loadState() (*cachedState, error) {
	c.mu.Lock()
	if c.state != nil {
		s := c.state
		c.mu.Unlock()
		return s, nil
	}
	v := c.version[filepath.Clean(c.statePath)]
	c.mu.Unlock()

	data, err := os.ReadFile(c.statePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	var states map[string]DeviceState
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("%w: state file: %v", ErrMalformed, err)
	}
	s := &cachedState{raw: json.RawMessage(data), states: states}

	c.mu.Lock()
	if c.watcher != nil && c.version[filepath.Clean(c.statePath)] == v {
		c.state = s
	}
	c.mu.Unlock()
	return s, nil
}

func (c *FileController) loadRecords() (*cachedRecords, error) {
	c.mu.Lock()
	if c.records != nil {
		r := c.records
		c.mu.Unlock()
		return r, nil
	}
	v := c.version[filepath.Clean(c.databasePath)]
	c.mu.Unlock()

	data, err := os.ReadFile(c.databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read device database: %w", err)
	}
	r, err := parseRecords(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.watcher != nil && c.version[filepath.Clean(c.databasePath)] == v {
		c.records = r
	}
	c.mu.Unlock()
	return r, nil
}

// parseRecords splits the database into lines. Any line that is not a JSON
// object fails the whole file.
func parseRecords(data []byte) (*cachedRecords, error) {
	r := &cachedRecords{raw: []json.RawMessage{}, devices: []Device{}}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return r, nil
	}
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%w: database line %d: %v", ErrMalformed, i+1, err)
		}
		raw := json.RawMessage(append([]byte(nil), line...))
		r.raw = append(r.raw, raw)
		r.devices = append(r.devices, rec.device(raw))
	}
	return r, nil
}

func (c *FileController) ListDevices(ctx context.Context) ([]Device, error) {
	r, err := c.loadRecords()
	if err != nil {
		return nil, err
	}
	return append([]Device(nil), r.devices...), nil
}

func (c *FileController) RawDevices(ctx context.Context) ([]json.RawMessage, error) {
	r, err := c.loadRecords()
	if err != nil {
		return nil, err
	}
	return append([]json.RawMessage(nil), r.raw...), nil
}

func (c *FileController) GetDevice(ctx context.Context, id string) (*Device, error) {
	r, err := c.loadRecords()
	if err != nil {
		return nil, err
	}
	for _, d := range r.devices {
		if d.ID == id {
			d := d
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (c *FileController) GetDeviceState(ctx context.Context, id string) (DeviceState, error) {
	s, err := c.loadState()
	if err != nil {
		return nil, err
	}
	state, ok := s.states[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(DeviceState, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out, nil
}

func (c *FileController) RawState(ctx context.Context) (json.RawMessage, error) {
	s, err := c.loadState()
	if err != nil {
		return nil, err
	}
	return s.raw, nil
}

// IsConnected reports whether the state file is readable.
func (c *FileController) IsConnected() bool {
	_, err := os.Stat(c.statePath)
	return err == nil
}

// Close stops the watcher.
func (c *FileController) Close() {
	if c.watcher == nil {
		return
	}
	c.closeOnce.Do(func() {
		close(c.stopCh)
		_ = c.watcher.Close()
		c.wg.Wait()
	})
}
