// Package database resets the data files of the user, product and order services.
package database

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ochinchina/wlreplay/faults"
	log "github.com/sirupsen/logrus"
)

// Resetter wipes the data files of the backing services
type Resetter struct {
	files []string
	out   io.Writer
}

// NewResetter creates a Resetter over files. Progress lines go to out when it is not nil.
func NewResetter(files []string, out io.Writer) *Resetter {
	return &Resetter{files: append([]string(nil), files...), out: out}
}

func (r *Resetter) printf(format string, args ...interface{}) {
	if r.out != nil {
		fmt.Fprintf(r.out, format, args...)
	}
}

// Reset deletes every data file then recreates each one empty. Running it
// twice leaves the same empty files.
func (r *Resetter) Reset() error {
	for _, f := range r.files {
		err := os.Remove(f)
		switch {
		case err == nil:
			log.WithFields(log.Fields{"file": f}).Info("database file deleted")
			r.printf("Deleted %s\n", f)
		case errors.Is(err, os.ErrNotExist):
			log.WithFields(log.Fields{"file": f}).Debug("database file not found")
			r.printf("%s not found, skipping.\n", f)
		default:
			return faults.IOError("remove "+f, err)
		}
	}

	for _, f := range r.files {
		if err := os.MkdirAll(filepath.Dir(f), 0o755); err != nil {
			return faults.IOError("mkdir "+filepath.Dir(f), err)
		}
		if err := os.WriteFile(f, nil, 0o644); err != nil {
			return faults.IOError("create "+f, err)
		}
		r.printf("Recreated fresh database file: %s\n", f)
	}
	log.WithFields(log.Fields{"files": len(r.files)}).Info("databases reset")
	return nil
}
