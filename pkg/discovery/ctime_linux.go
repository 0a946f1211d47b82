//go:build linux

package discovery

import (
	"io/fs"
	"syscall"
	"time"
)

// Linux exposes no birth time through stat(2); the inode change time is the
// closest stand-in.
func createdAt(info fs.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	}
	return info.ModTime()
}
