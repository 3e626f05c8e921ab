package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/firefly-engineering/fersk/internal/errors"
	"github.com/firefly-engineering/fersk/internal/logging"
	"github.com/firefly-engineering/fersk/internal/system"
)

// removeWorkspace deletes a workspace directory and then its lock. It is the
// single cleanup path shared by invocations and the reaper. The lock is kept
// when the directory survives, so the leftover can still be traced to its
// source.
func removeWorkspace(fsys system.FileSystem, ws *Workspace) *errors.CleanupError {
	if ws == nil {
		return nil
	}

	if ws.Path != "" {
		logging.Debug("removing workspace", "path", ws.Path)

		err := fsys.RemoveAll(ws.Path)
		if err != nil {
			// Commands may leave read-only directories behind (module caches, build outputs)
			logging.Debug("retrying workspace removal with write permission", "path", ws.Path, "error", err)
			if werr := makeWritable(fsys, ws.Path); werr != nil {
				logging.Debug("failed to make workspace writable", "path", ws.Path, "error", werr)
			}
			err = fsys.RemoveAll(ws.Path)
		}
		if err == nil && fsys.Exists(ws.Path) {
			err = fmt.Errorf("directory still exists after removal")
		}
		if err != nil {
			return &errors.CleanupError{Path: ws.Path, Cause: err}
		}
	}

	if ws.LockPath != "" {
		logging.Debug("removing workspace lock", "path", ws.LockPath)
		if err := fsys.Remove(ws.LockPath); err != nil && !os.IsNotExist(err) {
			return &errors.CleanupError{Path: ws.LockPath, Cause: err}
		}
	}

	return nil
}

// makeWritable grants the owner write access to dir and every directory
// below it. Symlinks are not followed.
func makeWritable(fsys system.FileSystem, dir string) error {
	if err := fsys.Chmod(dir, 0700); err != nil {
		return err
	}
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := makeWritable(fsys, filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
