// Package main hosts the nexscan CLI entrypoint and command graph.
//
// The Cobra command tree exposes the two pipeline stages separately (query
// the archive, check a local folder) and chained (check or download straight
// from a radar and time window). Configuration resolution, logger setup, and
// archive client construction live in the command context so subcommands only
// deal with flags and output.
package main
