// Package progress carries status events from the pipeline to whoever
// renders them. The core only pushes Events into a Sink; terminal bars, log
// writers and UI front ends are all just Sink implementations.
package progress
