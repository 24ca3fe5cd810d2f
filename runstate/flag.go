// Package runstate persists the one-bit "environment has been started" flag.
//
// The flag is present while the environment is initialized and has not been
// shut down since. Only its presence matters, never its content.
package runstate

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/ochinchina/wlreplay/faults"
	log "github.com/sirupsen/logrus"
)

// FlagContent is written into a newly created flag file
const FlagContent = "Flag indicating that services have been started"

// Store is the run-state flag
type Store interface {
	Exists() (bool, error)
	Create() error
	Delete() error
}

// FileStore keeps the flag as a marker file on disk
type FileStore struct {
	path string
}

// NewFileStore creates a flag store backed by the file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the marker file path
func (fs *FileStore) Path() string {
	return fs.path
}

// Exists reports whether the marker file is present
func (fs *FileStore) Exists() (bool, error) {
	_, err := os.Stat(fs.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, faults.IOError("stat "+fs.path, err)
}

// Create writes the marker file, creating its directory if needed
func (fs *FileStore) Create() error {
	if dir := filepath.Dir(fs.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return faults.IOError("create "+fs.path, err)
		}
	}
	if err := os.WriteFile(fs.path, []byte(FlagContent), 0o644); err != nil {
		return faults.IOError("create "+fs.path, err)
	}
	log.WithFields(log.Fields{"file": fs.path}).Debug("restart flag created")
	return nil
}

// Delete removes the marker file. A missing file is not an error.
func (fs *FileStore) Delete() error {
	err := os.Remove(fs.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return faults.IOError("remove "+fs.path, err)
	}
	log.WithFields(log.Fields{"file": fs.path}).Debug("restart flag removed")
	return nil
}

// MemStore keeps the flag in memory
type MemStore struct {
	sync.Mutex
	present bool
}

// NewMemStore creates an in-memory flag, initially present if present is true
func NewMemStore(present bool) *MemStore {
	return &MemStore{present: present}
}

func (ms *MemStore) Exists() (bool, error) {
	ms.Lock()
	defer ms.Unlock()
	return ms.present, nil
}

func (ms *MemStore) Create() error {
	ms.Lock()
	defer ms.Unlock()
	ms.present = true
	return nil
}

func (ms *MemStore) Delete() error {
	ms.Lock()
	defer ms.Unlock()
	ms.present = false
	return nil
}
