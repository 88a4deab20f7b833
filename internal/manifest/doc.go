// Package manifest reads and writes the group-assignment manifest produced by
// the classification worker.
//
// The manifest lives at a fixed filename inside the application data
// directory. It is a JSON array whose objects carry a source path and exactly
// one group representation: a numeric label or a free-text name. The worker's
// historical key names are accepted on read; Write always emits the canonical
// keys. Failures are tagged with services.ErrEnvironment, services.ErrIO or
// services.ErrSchema so callers can tell them apart.
package manifest
