// Package state keeps per-user relay sessions in memory.
// Sessions are not persisted; a restart forgets every conversation in progress.
package state
