// Package convert repackages recordings into a web-servable container.
//
// The only conversion the publisher needs is MPEG-TS (m2ts) to MP4, done as an
// ffmpeg stream copy: audio and video are remuxed, never re-encoded. Output
// is staged in a hidden temp file beside the destination and renamed into
// place, so a failed or interrupted run never leaves a partial MP4 behind.
package convert
