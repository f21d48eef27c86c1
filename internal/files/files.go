// Package files holds small file system helpers: existence checks, inter-process locking
// and atomic replacement of files.
package files

import (
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultDirCreationPerm is used when creating missing parent directories.
const DefaultDirCreationPerm = 0755

// Exists returns whether a file or directory exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ExecOnFileLock opens the lockPath file (or creates it if it doesn't yet exist), locks it, and executes fn.
// If lockPath is already locked, it polls with a 1 to 2 seconds period (randomly), until it acquires the lock.
//
// The lockPath is not removed. It's safe to remove it from fn, if one knows that no new calls to
// ExecOnFileLock with the same lockPath are going to be made.
func ExecOnFileLock(lockPath string, fn func() error) (err error) {
	fileLock := flock.New(lockPath)
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return errors.Wrapf(err, "while trying to lock %q", lockPath)
		}
		if locked {
			break
		}
		time.Sleep(time.Millisecond * time.Duration(1000+rand.Intn(1000)))
	}

	// Unlock even if fn panics.
	defer func() {
		unlockErr := fileLock.Unlock()
		if unlockErr == nil {
			return
		}
		if err == nil {
			err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
		} else {
			klog.Warningf("Error unlocking file %q: %v", lockPath, unlockErr)
		}
	}()
	return fn()
}

// WriteAtomic calls write with a temporary path next to filePath and, if it succeeds,
// renames the temporary file to filePath. On failure the temporary file is removed.
//
// The parent directory is created if needed.
func WriteAtomic(filePath string, write func(tmpPath string) error) error {
	if err := os.MkdirAll(filepath.Dir(filePath), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for file %q", filePath)
	}
	tmpPath := filePath + "." + uuid.NewString() + ".tmp"
	if err := write(tmpPath); err != nil {
		if Exists(tmpPath) {
			if rmErr := os.Remove(tmpPath); rmErr != nil {
				klog.Warningf("Failed removing temporary file %q: %v", tmpPath, rmErr)
			}
		}
		return err
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return errors.Wrapf(err, "failed to move %q to %q", tmpPath, filePath)
	}
	return nil
}
