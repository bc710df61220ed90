// Package publish places a selected recording into the web root.
//
// MPEG-TS recordings are repackaged to MP4 through a convert.Converter; every
// other allowed container is copied byte for byte. The resulting file is
// handed to the service account through an ownership.Owner. A failed publish
// never leaves a file at the destination.
package publish
