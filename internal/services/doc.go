// Package services defines shared utilities consumed by the publication
// pipeline and its collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, queries, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper so the pipeline can tell a
//     skipped query (no match, failed conversion, failed copy) apart from a
//     run-aborting failure (unreadable crawl root, unwritable feed).
//
// Use these helpers when wiring new stage logic so error classification and
// observability stay uniform across the pipeline.
package services
