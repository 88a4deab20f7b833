// Package services defines the shared error taxonomy and context helpers used
// by the worker supervisor, manifest store and reconciler.
//
// Key responsibilities:
//   - Error kind markers (environment, I/O, schema, worker spawn, worker
//     reported, completion lost, validation) plus the Wrap helpers that attach
//     stage, operation and path context to a failure.
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//
// Callers branch on errors.Is(err, services.ErrSchema) and friends; message
// text is for humans only.
package services
