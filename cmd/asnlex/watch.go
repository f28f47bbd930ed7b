// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchFiles calls fn for a file each time it is written or replaced,
// until ctx is cancelled. The parent directories are watched so that
// editors which save by renaming are seen too.
func watchFiles(ctx context.Context, paths []string, fn func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	wanted := make(map[string]string) // cleaned name -> name as given
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		wanted[abs] = path
		if err := w.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	log.Printf("watching %d files\n", len(paths))

	// editors often write a file more than once per save
	const settle = 100 * time.Millisecond
	pending := make(map[string]bool)
	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v\n", err)
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if path, ok := wanted[abs]; ok {
				pending[path] = true
				timer.Reset(settle)
			}
		case <-timer.C:
			for path := range pending {
				fn(path)
			}
			clear(pending)
		}
	}
}
