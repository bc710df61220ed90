// Package pipeline runs one publication pass: for every query it finds the
// newest matching recording, publishes it, and finally rewrites feed.xml in
// the publish root.
//
// Queries are independent. A query with no match or a failed publish is
// recorded in the Report and skipped; only an unreadable crawl root or a
// failed feed write aborts the run. Media already published before a fatal
// feed write failure is not rolled back.
package pipeline
