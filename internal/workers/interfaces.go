// Package workers launches the engine's background loops. cmd/syncd wraps
// the periodic sync scheduler and the conflict-log pruner into [Worker]
// values and starts them through the [Workers] aggregate, keeping a single
// launch point for everything that runs off the request path.
package workers

// Worker is a background loop. Run must return quickly, spawning a goroutine
// for the actual work; shutdown is the implementation's own concern (the
// sync loops stop through their Stop methods).
type Worker interface {
	Run()
}
