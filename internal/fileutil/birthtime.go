package fileutil

import (
	"io/fs"
	"time"
)

// TimeSource records which timestamp stood in for a file's creation time.
type TimeSource string

const (
	// TimeSourceBirth means the filesystem reported a real creation time.
	TimeSourceBirth TimeSource = "birth"
	// TimeSourceModTime means creation time was unavailable and the
	// modification time was used instead.
	TimeSourceModTime TimeSource = "mtime"
)

// CreationTime returns the creation time of path. Platforms or filesystems
// without birth-time support fall back to info.ModTime(), which for recorder
// output (written once, never edited) is the same instant in practice.
func CreationTime(path string, info fs.FileInfo) (time.Time, TimeSource) {
	if t, ok := birthTime(path); ok {
		return t, TimeSourceBirth
	}
	if info == nil {
		return time.Time{}, TimeSourceModTime
	}
	return info.ModTime(), TimeSourceModTime
}

// birthFromParts converts a platform birth timestamp. Filesystems that do not
// record creation time report zero, which is treated as unavailable.
func birthFromParts(sec, nsec int64) (time.Time, bool) {
	if sec == 0 && nsec == 0 {
		return time.Time{}, false
	}
	return time.Unix(sec, nsec), true
}
