// Package presence tracks per-user online status by reference-counting
// live connections.
//
// The tracker is the sole source of truth for online status. Only the
// connection registry mutates it; everything else reads through IsOnline
// or reacts to edge-triggered transition callbacks.
package presence
