// Package main hosts the aircheq-podcast CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration, runs a publication pass, and
// offers inspection commands for the generated feed and the host's
// readiness. The heavy lifting lives in the internal packages; commands here
// only wire them together and render results.
package main
