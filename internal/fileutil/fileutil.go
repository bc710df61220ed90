// Package fileutil holds the filesystem primitives shared by the publisher and
// the feed writer: atomic replacement, verified copies, and creation-time
// lookup.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
)

// PublishedMode is the permission applied to files placed in the web root.
const PublishedMode os.FileMode = 0o644

// WriteFileAtomic replaces path with the contents of r. Readers of path see
// either the old file or the complete new one, never a truncated write.
func WriteFileAtomic(path string, r io.Reader, mode os.FileMode) error {
	if err := atomic.WriteFile(path, r); err != nil {
		return err
	}
	// atomic.WriteFile leaves temp-file permissions on new files.
	return os.Chmod(path, mode)
}

// CopyFileVerified copies src to dst and then re-reads both to confirm the
// SHA256 digests and sizes agree. Removes dst on mismatch.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	srcHasher := sha256.New()
	if err := WriteFileAtomic(dst, io.TeeReader(in, srcHasher), PublishedMode); err != nil {
		return err
	}

	dstSum, dstSize, err := digest(dst)
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("verify copy: %w", err)
	}
	if dstSize != srcInfo.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), dstSize)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstSum) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

func digest(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, 0, err
	}
	return h.Sum(nil), n, nil
}
