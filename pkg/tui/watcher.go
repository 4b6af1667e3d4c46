package tui

import (
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

const debounce = 200 * time.Millisecond

// StartWatcher watches the progress file and sends FileChangedMsg when it
// changes on disk.
func StartWatcher(path string, program *tea.Program) (func(), error) {
	return watchFile(path, func() { program.Send(FileChangedMsg{}) })
}

// watchFile calls notify, debounced, whenever path is written, created,
// renamed or removed. The parent directory is watched so editors that
// replace the file by rename are still seen.
func watchFile(path string, notify func()) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})

	go func() {
		var timer *time.Timer

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || event.Op == fsnotify.Chmod {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, notify)

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}

			case <-done:
				if timer != nil {
					timer.Stop()
				}
				return
			}
		}
	}()

	cleanup := func() {
		close(done)
		watcher.Close()
	}

	return cleanup, nil
}
