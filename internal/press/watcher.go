package press

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a draft must stay quiet before it is published.
const DefaultDebounce = 300 * time.Millisecond

// WatchCallback is called after each watcher-driven publish attempt.
type WatchCallback func(path string, rep *Report, err error)

// WatchOptions configures Watch.
type WatchOptions struct {
	Policy   string
	Debounce time.Duration
	Callback WatchCallback
}

// Watch starts an fsnotify watcher on the drafts directory and publishes
// each note that is created or written, once it has been quiet for the
// debounce interval. Notes whose content is unchanged since the last
// publish are skipped. It blocks until ctx is cancelled.
//
// New directories created at runtime are automatically added to the watch
// list.
func (s *Service) Watch(ctx context.Context, dir string, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("press: watcher: %w", err)
	}
	defer w.Close()

	if err := addDirsRecursive(w, dir); err != nil {
		return fmt.Errorf("press: watch %s: %w", dir, err)
	}
	s.log.Info("watcher: started", slog.String("root", dir))

	pending := make(map[string]*time.Timer)
	due := make(chan string)
	schedule := func(p string) {
		if t, ok := pending[p]; ok {
			t.Reset(opts.Debounce)
			return
		}
		pending[p] = time.AfterFunc(opts.Debounce, func() {
			select {
			case due <- p:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			for _, t := range pending {
				t.Stop()
			}
			s.log.Info("watcher: stopped")
			return nil

		case p := <-due:
			delete(pending, p)
			s.publishDraft(ctx, p, opts)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						s.log.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					_ = filepath.WalkDir(ev.Name, func(p string, d fs.DirEntry, err error) error {
						if err == nil && !d.IsDir() && isDraft(p) {
							schedule(p)
						}
						return nil
					})
					continue
				}
			}
			if !isDraft(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				schedule(ev.Name)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (s *Service) publishDraft(ctx context.Context, p string, opts WatchOptions) {
	rep, err := s.Publish(ctx, PublishRequest{
		Input:         p,
		Policy:        opts.Policy,
		SkipUnchanged: true,
	})
	switch {
	case err != nil:
		s.log.Warn("watcher: publish failed", slog.String("path", p), slog.String("error", err.Error()))
		s.emit(EventFailed, filepath.Base(p))
	case rep.Unchanged:
		s.log.Debug("watcher: unchanged", slog.String("path", p))
	default:
		s.log.Debug("watcher: published", slog.String("path", p), slog.String("slug", rep.Slug))
	}
	if opts.Callback != nil {
		opts.Callback(p, rep, err)
	}
}

// isDraft reports whether p is a Markdown note, ignoring editor temp files.
func isDraft(p string) bool {
	base := filepath.Base(p)
	return strings.HasSuffix(base, ".md") && !strings.HasPrefix(base, ".")
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
// Hidden directories such as .obsidian are skipped.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
