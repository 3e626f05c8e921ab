package system

import (
	"io/fs"
	"syscall"
)

// OwnerUID returns the uid owning the file described by info. It reports
// false when the platform or the FileSystem does not expose ownership.
func OwnerUID(info fs.FileInfo) (int, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok || st == nil {
		return 0, false
	}
	return int(st.Uid), true
}
