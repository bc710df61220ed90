// Package preflight provides readiness checks for the binaries and
// filesystem paths a publication run depends on.
//
// The run command calls RunAll before touching the publish root and refuses
// to start when a check fails. The status command shows the same results as
// a table.
package preflight
