// Package feed builds and reads the podcast RSS document served next to the
// published recordings.
//
// Builder writes the channel with gorilla/feeds. Every item links to its file
// under the configured URL root and carries an enclosure so podcast clients
// can download it. Serialize depends only on what was added, so calling it
// twice yields identical bytes. Read parses an existing feed.xml with gofeed
// for the inspection commands and for tests.
package feed
