package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sandeepkv93/calplan/internal/log"
)

const DefaultDelay = 100 * time.Millisecond

// FileWatcher reports changes to individual files. It watches the parent
// directory so editors that save by renaming over the file are still seen.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	dirs     map[string]int
	onChange func(string)
	delay    time.Duration
	mu       sync.RWMutex

	timersMu sync.Mutex
	timers   map[string]*time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

func NewFileWatcher(delay time.Duration, onChange func(string)) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	fw := &FileWatcher{
		watcher:  watcher,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]int),
		onChange: onChange,
		delay:    delay,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}

	fw.wg.Add(1)
	go fw.watch()
	return fw, nil
}

func (fw *FileWatcher) AddFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, exists := fw.files[absPath]; exists {
		return nil
	}
	dir := filepath.Dir(absPath)
	if fw.dirs[dir] == 0 {
		if err := fw.watcher.Add(dir); err != nil {
			return err
		}
	}
	fw.dirs[dir]++
	fw.files[absPath] = struct{}{}
	log.Debug("watching file", "path", absPath)
	return nil
}

func (fw *FileWatcher) RemoveFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, exists := fw.files[absPath]; !exists {
		return nil
	}
	delete(fw.files, absPath)
	dir := filepath.Dir(absPath)
	fw.dirs[dir]--
	if fw.dirs[dir] == 0 {
		delete(fw.dirs, dir)
		return fw.watcher.Remove(dir)
	}
	return nil
}

func (fw *FileWatcher) watching(name string) bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	_, ok := fw.files[name]
	return ok
}

func (fw *FileWatcher) watch() {
	defer fw.wg.Done()
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Clean(event.Name)
			if !fw.watching(name) {
				continue
			}
			fw.schedule(name)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Error("file watcher", err)

		case <-fw.done:
			return
		}
	}
}

// schedule collapses bursts of events on one file into a single callback.
func (fw *FileWatcher) schedule(name string) {
	fw.timersMu.Lock()
	defer fw.timersMu.Unlock()

	if timer, exists := fw.timers[name]; exists {
		timer.Stop()
	}
	fw.timers[name] = time.AfterFunc(fw.delay, func() {
		fw.timersMu.Lock()
		delete(fw.timers, name)
		fw.timersMu.Unlock()

		select {
		case <-fw.done:
			return
		default:
		}
		if fw.onChange != nil && fw.watching(name) {
			fw.onChange(name)
		}
	})
}

func (fw *FileWatcher) Close() error {
	close(fw.done)
	err := fw.watcher.Close()
	fw.wg.Wait()

	fw.timersMu.Lock()
	for name, timer := range fw.timers {
		timer.Stop()
		delete(fw.timers, name)
	}
	fw.timersMu.Unlock()
	return err
}
