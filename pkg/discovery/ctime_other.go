//go:build !linux && !darwin

package discovery

import (
	"io/fs"
	"time"
)

func createdAt(info fs.FileInfo) time.Time {
	return info.ModTime()
}
