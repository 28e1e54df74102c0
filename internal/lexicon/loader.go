package lexicon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pitabwire/util"
	"gopkg.in/yaml.v3"
)

// Loader loads and optionally hot-reloads lexicon definitions from YAML
// files in a directory. When the directory is absent or empty the built-in
// default lexicon for the requested domain mode is served.
type Loader struct {
	dir string

	mu       sync.RWMutex
	lexicons map[string]*Lexicon
}

// NewLoader creates a lexicon loader for the given directory.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:      dir,
		lexicons: make(map[string]*Lexicon),
	}
}

// LoadAll loads all .yaml and .yml files from the configured directory.
// A missing directory is not an error; defaults cover it.
func (l *Loader) LoadAll() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read lexicon dir %q: %w", l.dir, err)
	}

	result := make(map[string]*Lexicon)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		lex, err := loadFile(path)
		if err != nil {
			return fmt.Errorf("load %q: %w", path, err)
		}
		result[lex.Name()] = lex
	}

	l.mu.Lock()
	l.lexicons = result
	l.mu.Unlock()
	return nil
}

// Get returns the lexicon for a domain mode, falling back to the built-in
// default for that mode.
func (l *Loader) Get(mode string) *Lexicon {
	l.mu.RLock()
	lex, ok := l.lexicons[mode]
	l.mu.RUnlock()
	if ok {
		return lex
	}
	return Default(mode)
}

// Watch hot-reloads the directory until ctx is cancelled. Reload failures
// keep the previous lexicons and log the fault.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("lexicon watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %q: %w", l.dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if err := l.LoadAll(); err != nil {
					util.Log(ctx).WithError(err).Error("lexicon: reload failed, keeping previous")
					continue
				}
				slog.InfoContext(ctx, "lexicon: reloaded", slog.String("trigger", event.Name))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "lexicon: watcher error", slog.String("error", err.Error()))
			}
		}
	}()
	return nil
}

func loadFile(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Name == "" {
		doc.Name = filepath.Base(path[:len(path)-len(filepath.Ext(path))])
	}
	return Compile(doc)
}
