package config

import (
	"errors"
	"fmt"

	"github.com/knadh/koanf/providers/file"
)

// Watcher reloads configuration when its file changes.
type Watcher struct {
	provider *file.File
}

// Watch calls onChange with the freshly loaded configuration every time the file
// at path is written. Reloads that fail to parse or validate go to onError and the
// previous configuration stays in effect.
func Watch(path string, onChange func(Config), onError func(error)) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("config: watch requires a file path")
	}
	if onChange == nil {
		return nil, errors.New("config: watch requires a change callback")
	}
	if onError == nil {
		onError = func(error) {}
	}

	provider := file.Provider(path)
	err := provider.Watch(func(_ interface{}, err error) {
		if err != nil {
			onError(fmt.Errorf("config: watch %s: %w", path, err))
			return
		}
		cfg, err := Load(path)
		if err != nil {
			onError(err)
			return
		}
		onChange(cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	return &Watcher{provider: provider}, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	if w == nil || w.provider == nil {
		return nil
	}
	return w.provider.Unwatch()
}
