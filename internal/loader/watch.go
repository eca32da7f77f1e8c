package loader

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

var ErrNothingToWatch = errors.New("loader: no local sources to watch")

// Watcher reports changes to local source files. Bursts of events collapse
// into a single pending notification.
type Watcher struct {
	w       *fsnotify.Watcher
	files   map[string]bool
	changes chan string
}

// NewWatcher watches the directories of every local source. Remote sources
// are skipped.
func NewWatcher(sources Sources) (*Watcher, error) {
	files := map[string]bool{}
	dirs := map[string]bool{}
	for _, src := range sources {
		p, ok := LocalPath(src)
		if !ok {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	if len(files) == 0 {
		return nil, ErrNothingToWatch
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w := &Watcher{w: fw, files: files, changes: make(chan string, 1)}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.changes)
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("Source file changed")
			select {
			case w.changes <- ev.Name:
			default:
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Source watcher error")
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

// Changes delivers the path of a changed source. It is closed by Close.
func (w *Watcher) Changes() <-chan string { return w.changes }

func (w *Watcher) Close() error { return w.w.Close() }
