// Package dom provides the headless element tree the form engine renders into.
// It models the small slice of browser behaviour the engine depends on: element
// containment, class and attribute bookkeeping, bubbling events, focus and
// pointer tracking, native constraint validity, and a single-threaded event loop
// with a virtual clock. Nothing in this package is safe for concurrent use except
// Loop.Post and Loop.Go, which exist so background work can hand results back
// to the loop goroutine.
package dom
