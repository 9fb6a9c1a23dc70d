// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchLogger receives reload failures. Tests redirect it.
var watchLogger = log.New(os.Stderr, "config: ", log.LstdFlags)

// Watch reloads the settings file whenever it changes and delivers each
// successfully loaded snapshot to onChange. The watch covers the parent
// directory so editor rename-and-replace saves are caught. The returned
// stop function releases the watcher; it is safe to call once.
//
// A reload that fails to parse is logged and skipped; the previous
// snapshot stays in effect.
func Watch(path string, onChange func(Settings)) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				settings, err := LoadFromPath(path)
				if err != nil {
					watchLogger.Printf("config reload failed, keeping previous settings: %v", err)
					continue
				}
				onChange(settings)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				watchLogger.Printf("config watch error: %v", err)
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
