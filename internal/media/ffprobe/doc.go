// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The publisher uses it to confirm that a repackaged recording is a readable
// MP4 with at least one audio or video stream before it replaces anything in
// the web root.
package ffprobe
