// Package watch reports changes to AST documents on disk so they can be
// folded again.
package watch

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op indicates a change operation on a watched file.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

func (op Op) String() string {
	var parts []string
	for _, p := range []struct {
		bit  Op
		name string
	}{{OpCreate, "CREATE"}, {OpWrite, "WRITE"}, {OpRemove, "REMOVE"}, {OpRename, "RENAME"}, {OpChmod, "CHMOD"}} {
		if op&p.bit != 0 {
			parts = append(parts, p.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Changed reports whether the operation may have altered the file contents.
func (op Op) Changed() bool {
	return op&(OpCreate|OpWrite) != 0
}

// Event describes a change to a watched file.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// Watcher delivers events for individual files. It watches the parent
// directories so files replaced by rename (as editors do) keep reporting.
type Watcher struct {
	w   *fsnotify.Watcher
	evC chan Event
	erC chan error

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]int

	done chan struct{}
	once sync.Once
}

// New creates a Watcher and starts its delivery loop.
func New() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &Watcher{
		w:     w,
		evC:   make(chan Event, 128),
		erC:   make(chan error, 1),
		files: make(map[string]struct{}),
		dirs:  make(map[string]int),
		done:  make(chan struct{}),
	}
	go fw.loop()
	return fw, nil
}

func translate(op fsnotify.Op) Op {
	var out Op
	if op&fsnotify.Create != 0 {
		out |= OpCreate
	}
	if op&fsnotify.Write != 0 {
		out |= OpWrite
	}
	if op&fsnotify.Remove != 0 {
		out |= OpRemove
	}
	if op&fsnotify.Rename != 0 {
		out |= OpRename
	}
	if op&fsnotify.Chmod != 0 {
		out |= OpChmod
	}
	return out
}

func (fw *Watcher) loop() {
	defer close(fw.evC)
	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if !fw.watching(ev.Name) {
				continue
			}
			select {
			case fw.evC <- Event{Path: filepath.Clean(ev.Name), Op: translate(ev.Op), Time: time.Now()}:
			case <-fw.done:
				return
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			// Drop errors nobody is reading rather than stall the loop.
			select {
			case fw.erC <- err:
			default:
			}
		case <-fw.done:
			return
		}
	}
}

func (fw *Watcher) watching(name string) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	_, ok := fw.files[filepath.Clean(name)]
	return ok
}

// Events returns the channel of file events. It is closed after Close.
func (fw *Watcher) Events() <-chan Event { return fw.evC }

// Errors returns the channel of watcher errors.
func (fw *Watcher) Errors() <-chan error { return fw.erC }

// Add starts watching the file at name.
func (fw *Watcher) Add(name string) error {
	name = filepath.Clean(name)
	dir := filepath.Dir(name)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if _, ok := fw.files[name]; ok {
		return nil
	}
	if fw.dirs[dir] == 0 {
		if err := fw.w.Add(dir); err != nil {
			return err
		}
	}
	fw.dirs[dir]++
	fw.files[name] = struct{}{}
	return nil
}

// Remove stops watching the file at name.
func (fw *Watcher) Remove(name string) error {
	name = filepath.Clean(name)
	dir := filepath.Dir(name)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if _, ok := fw.files[name]; !ok {
		return nil
	}
	delete(fw.files, name)
	fw.dirs[dir]--
	if fw.dirs[dir] > 0 {
		return nil
	}
	delete(fw.dirs, dir)
	return fw.w.Remove(dir)
}

// Files returns the number of watched files.
func (fw *Watcher) Files() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return len(fw.files)
}

// Close stops the watcher. It is safe to call more than once.
func (fw *Watcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		err = fw.w.Close()
	})
	return err
}
