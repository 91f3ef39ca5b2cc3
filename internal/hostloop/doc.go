// Package hostloop provides the cooperative task queue that stands in for a host
// rendering loop.
//
// All tasks posted to a loop run one after another on a single goroutine, in the
// order they were posted. A long computation yields to other pending work (input
// handling, rendering ticks, probes) by posting its continuation instead of running
// it inline. Key pieces:
//   - Poster: the minimal "schedule this after the host yields" primitive
//   - Queue: a FIFO of tasks that tests can drain turn by turn
//   - EventLoop: a Queue driven by one goroutine until its context ends
package hostloop
