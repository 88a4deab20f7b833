// Package notifications delivers run events to whoever is listening.
//
// Events are named (organization_progress, run_completed, ...) and carry a
// small payload. The ntfy implementation publishes to the topic configured in
// config.toml and degrades to a no-op when no topic is set; the log
// implementation renders events for the terminal. Callers that must not wait
// on delivery use PublishAsync.
package notifications
