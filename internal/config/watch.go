package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ChangeHandler receives the freshly reloaded config.
type ChangeHandler func(cfg *Config)

// Watcher watches the YAML overlay file and reloads it on change. Writes
// are debounced so editors that truncate-then-write trigger one reload.
type Watcher struct {
	base     *Config
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	debounce time.Duration
	stopChan chan struct{}

	mu       sync.Mutex
	handlers []ChangeHandler
}

// NewWatcher creates a watcher for the config's overlay file. The config
// must have a ConfigFile set.
func NewWatcher(base *Config, logger zerolog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		base:     base,
		watcher:  w,
		logger:   logger.With().Str("service", "config-watcher").Logger(),
		debounce: 300 * time.Millisecond,
	}, nil
}

// OnChange registers a handler invoked after every successful reload.
func (cw *Watcher) OnChange(handler ChangeHandler) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.handlers = append(cw.handlers, handler)
}

// Start begins watching the overlay file.
func (cw *Watcher) Start() error {
	if err := cw.watcher.Add(cw.base.ConfigFile); err != nil {
		return err
	}
	cw.stopChan = make(chan struct{})
	go cw.watchLoop()
	cw.logger.Info().Str("path", cw.base.ConfigFile).Msg("config watcher started")
	return nil
}

// Stop halts the file watcher.
func (cw *Watcher) Stop() {
	if cw.stopChan != nil {
		close(cw.stopChan)
	}
	cw.watcher.Close()
}

func (cw *Watcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case <-cw.stopChan:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(cw.debounce, cw.Reload)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error().Err(err).Msg("config watcher error")
		}
	}
}

// Reload re-reads the overlay and fans the result out to the handlers.
// Also used by the admin reload endpoint.
func (cw *Watcher) Reload() {
	cfg, err := cw.base.Reload()
	if err != nil {
		cw.logger.Error().Err(err).Msg("config reload failed")
		return
	}

	cw.mu.Lock()
	handlers := make([]ChangeHandler, len(cw.handlers))
	copy(handlers, cw.handlers)
	cw.mu.Unlock()

	for _, h := range handlers {
		h(cfg)
	}
	cw.logger.Info().Str("path", cw.base.ConfigFile).Msg("config reloaded")
}
