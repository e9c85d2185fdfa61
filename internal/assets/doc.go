// Package assets holds the model and history that every request reads.
//
// Both are loaded once into a Store and shared read-only. Invalidate drops the
// cached pair so the next Get reloads it from disk; Reload swaps in a fresh pair
// only when loading succeeds, so a broken file on disk never takes down a
// running server.
package assets
