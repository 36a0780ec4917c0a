// Package watch reports changes anywhere under an assets root so the
// index can be rebuilt. fsnotify watches single directories, so every
// directory in the tree is added, including ones created later.
package watch

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tqbf/assetindex/pkg/paths"
)

type Options struct {
	// Debounce is how long the tree must stay quiet before a batch
	// of changes is delivered.
	Debounce time.Duration
	Skip     []string
	// Ignore holds files whose changes are not reported, such as
	// the index file the watcher's consumer writes.
	Ignore []string
}

type Watcher struct {
	watcher  *fsnotify.Watcher
	Events   chan []string
	Errors   chan error
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
	debounce time.Duration
	skip     *paths.SkipRule
	ignore   map[string]bool
}

func New(root string, opts Options) (*Watcher, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &Watcher{
		watcher:  w,
		Events:   make(chan []string, 1),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
		debounce: opts.Debounce,
		skip:     paths.NewSkipRule(opts.Skip),
		ignore:   make(map[string]bool, len(opts.Ignore)),
	}
	for _, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			watcher.ignore[abs] = true
		}
	}

	if err := watcher.addTree(root); err != nil {
		_ = w.Close()
		return nil, err
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(
		root,
		func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if w.skip.Match(p) {
				return filepath.SkipDir
			}
			return w.watcher.Add(p)
		},
	)
}

func (w *Watcher) run() {
	defer close(w.done)

	var (
		pending = make(map[string]bool)
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// New directories only show up once watched; a
				// plain file makes WalkDir return right away.
				if err := w.addTree(event.Name); err != nil {
					slog.Debug("watch new path",
						"path", event.Name, "err", err,
					)
				}
			}
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = make(map[string]bool)
			select {
			case w.Events <- batch:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
				slog.Warn("watch error dropped", "err", err)
			}
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	if w.ignore[event.Name] {
		return false
	}
	return !w.skip.Match(filepath.Dir(event.Name))
}
