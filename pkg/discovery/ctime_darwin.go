//go:build darwin

package discovery

import (
	"io/fs"
	"syscall"
	"time"
)

func createdAt(info fs.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(int64(st.Birthtimespec.Sec), int64(st.Birthtimespec.Nsec))
	}
	return info.ModTime()
}
