// Package crawl finds recorded programs under a crawl root and picks the
// newest recording for each query.
//
// Find walks the tree lazily and yields only regular files whose extension is
// in the published allow-list and whose name contains the query. Entries that
// cannot be read are skipped so one bad file never hides the rest of the
// tree; only an unreadable root is an error. Select reduces the candidates to
// the one with the latest creation time.
package crawl
