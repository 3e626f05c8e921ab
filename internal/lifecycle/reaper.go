package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/firefly-engineering/fersk/internal/config"
	"github.com/firefly-engineering/fersk/internal/logging"
	"github.com/firefly-engineering/fersk/internal/system"
)

// DefaultLockGrace is how long an unreadable lock is assumed to be in the
// middle of being written.
const DefaultLockGrace = time.Minute

// Orphan is a workspace whose owning invocation is gone.
type Orphan struct {
	Workspace Workspace

	// Owner is the recorded owner, nil when the lock is missing or unreadable
	Owner *Owner

	// Reason explains why the workspace is considered orphaned
	Reason string
}

// Reaper finds and removes workspaces left behind by invocations that died
// before cleaning up.
type Reaper struct {
	Root string
	FS   system.FileSystem

	// Alive reports whether a process on this host is still running
	Alive func(pid int) bool

	// LockGrace protects freshly created locks that are not yet readable
	LockGrace time.Duration
}

// NewReaper returns a Reaper for the workspaces under root.
func NewReaper(root string) *Reaper {
	return &Reaper{
		Root:      root,
		FS:        system.DefaultFS(),
		Alive:     processAlive,
		LockGrace: DefaultLockGrace,
	}
}

// Scan lists orphaned workspaces, sorted by ID. A missing root has none.
func (r *Reaper) Scan() ([]Orphan, error) {
	entries, err := r.FS.ReadDir(r.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan workspace root: %w", err)
	}

	host, _ := os.Hostname()
	seen := make(map[string]bool)
	var orphans []Orphan

	for _, entry := range entries {
		id := strings.TrimSuffix(entry.Name(), lockSuffix)
		if !strings.HasPrefix(id, config.WorkspacePrefix) || seen[id] {
			continue
		}
		seen[id] = true

		ws := Workspace{
			ID:       id,
			Path:     filepath.Join(r.Root, id),
			LockPath: filepath.Join(r.Root, id+lockSuffix),
		}

		owner, err := readOwner(r.FS, ws.LockPath)
		switch {
		case os.IsNotExist(err):
			orphans = append(orphans, Orphan{Workspace: ws, Reason: "no lock file"})
		case err != nil:
			if r.recentlyLocked(ws.LockPath) {
				logging.Debug("skipping workspace with fresh lock", "id", id, "error", err)
				continue
			}
			orphans = append(orphans, Orphan{Workspace: ws, Reason: fmt.Sprintf("unreadable lock file: %v", err)})
		case owner.Host != "" && host != "" && owner.Host != host:
			logging.Debug("skipping workspace owned by another host", "id", id, "host", owner.Host)
		case !r.Alive(owner.PID):
			orphans = append(orphans, Orphan{
				Workspace: ws,
				Owner:     owner,
				Reason:    fmt.Sprintf("owner process %d is gone", owner.PID),
			})
		}
	}

	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].Workspace.ID < orphans[j].Workspace.ID
	})
	return orphans, nil
}

// Remove deletes an orphaned workspace and its lock.
func (r *Reaper) Remove(o Orphan) error {
	ws := o.Workspace
	if cerr := removeWorkspace(r.FS, &ws); cerr != nil {
		return cerr
	}
	return nil
}

func (r *Reaper) recentlyLocked(lockPath string) bool {
	info, err := r.FS.Stat(lockPath)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < r.LockGrace
}

// processAlive sends signal 0 to pid. EPERM means the process exists
// but belongs to someone else.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
