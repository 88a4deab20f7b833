// Package main hosts the foldersort CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the external classification worker,
// applies the manifest it writes to a destination folder, and exposes the
// manifest, run history, preflight status and configuration scaffolding. It
// centralizes configuration resolution, logger setup and the app data
// directory so subcommands only orchestrate internal packages.
//
// Keep this package lean: add new behaviour to the internal packages first,
// then surface it through commands or flags here.
package main
