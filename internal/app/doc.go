// Package app contains the compilation pipeline behind the command line. It loads
// an experiment, resolves it onto the tick grid, schedules it and writes the event
// list, optionally through the schedule cache. It does not parse flags; see
// package cli for that.
package app
