// Package notifications delivers run outcomes to ntfy.
//
// A run summary is posted after each publication run and an error
// notification when a run fails. With no topic configured NewService returns a
// no-op implementation, so callers never need to check whether notifications
// are enabled.
package notifications
