package lifecycle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/fersk/internal/config"
	"github.com/firefly-engineering/fersk/internal/errors"
	"github.com/firefly-engineering/fersk/internal/system"
)

const lockSuffix = ".lock"

// Workspace is the directory exclusively owned by one invocation.
type Workspace struct {
	// ID is the directory name, the workspace prefix followed by a UUID
	ID string

	// Path is the absolute workspace directory
	Path string

	// LockPath is the owner lock file next to the directory
	LockPath string
}

// Owner is the content of a workspace lock file.
type Owner struct {
	PID       int       `json:"pid"`
	Host      string    `json:"host,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

func newWorkspace(root, id string) (*Workspace, error) {
	path, err := securejoin.SecureJoin(root, id)
	if err != nil {
		return nil, err
	}
	return &Workspace{ID: id, Path: path, LockPath: path + lockSuffix}, nil
}

// allocate claims a fresh workspace under root. The lock is created before
// the directory, so a directory without a lock never belongs to a live
// invocation. The returned workspace is non-nil whenever something was
// created and must be released with removeWorkspace.
func (c *Coordinator) allocate(source string) (*Workspace, error) {
	root, err := filepath.Abs(c.cfg.WorkspaceRoot)
	if err != nil {
		return nil, errors.Provision(errors.TargetUnavailable, c.cfg.WorkspaceRoot, err)
	}
	if err := c.fs.MkdirAll(root, 0700); err != nil {
		return nil, errors.Provision(errors.TargetUnavailable, root, fmt.Errorf("failed to create workspace root: %w", err))
	}
	if err := checkRoot(c.fs, root); err != nil {
		return nil, errors.Provision(errors.TargetUnavailable, root, err)
	}

	ws, err := newWorkspace(root, config.WorkspacePrefix+c.newID())
	if err != nil {
		return nil, errors.Provision(errors.TargetUnavailable, root, err)
	}

	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}
	host, _ := os.Hostname()
	data, err := json.MarshalIndent(Owner{
		PID:       os.Getpid(),
		Host:      host,
		Source:    source,
		CreatedAt: c.now().UTC(),
	}, "", "  ")
	if err != nil {
		return nil, errors.Provision(errors.TargetUnavailable, ws.Path, err)
	}

	if err := c.fs.CreateExclusive(ws.LockPath, data, 0600); err != nil {
		return nil, errors.Provision(errors.TargetUnavailable, ws.Path, fmt.Errorf("failed to claim workspace: %w", err))
	}

	if c.fs.Exists(ws.Path) {
		// Not ours to remove; release only the lock
		claimed := &Workspace{ID: ws.ID, LockPath: ws.LockPath}
		return claimed, errors.Provision(errors.TargetUnavailable, ws.Path, fmt.Errorf("workspace already exists"))
	}
	if err := c.fs.MkdirAll(ws.Path, 0700); err != nil {
		return ws, errors.Provision(errors.TargetUnavailable, ws.Path, err)
	}

	return ws, nil
}

// checkRoot refuses a workspace root that another user could modify.
// A symlinked root is refused as well, since Lstat does not follow it.
func checkRoot(fsys system.FileSystem, root string) error {
	info, err := fsys.Lstat(root)
	if err != nil {
		return fmt.Errorf("failed to inspect workspace root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace root is not a directory")
	}
	if uid, ok := system.OwnerUID(info); ok && uid != os.Getuid() {
		return fmt.Errorf("workspace root is owned by uid %d, not %d", uid, os.Getuid())
	}
	if perm := info.Mode().Perm(); perm&0022 != 0 {
		return fmt.Errorf("workspace root is writable by other users (mode %s)", perm)
	}
	return nil
}

func readOwner(fsys system.FileSystem, lockPath string) (*Owner, error) {
	data, err := fsys.ReadFile(lockPath)
	if err != nil {
		return nil, err
	}
	var owner Owner
	if err := json.Unmarshal(data, &owner); err != nil {
		return nil, fmt.Errorf("failed to parse lock file: %w", err)
	}
	if owner.PID <= 0 {
		return nil, fmt.Errorf("lock file has no owner pid")
	}
	return &owner, nil
}
