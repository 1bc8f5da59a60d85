// Package notifications delivers operator push notifications for run
// outcomes and errors through ntfy.
package notifications
