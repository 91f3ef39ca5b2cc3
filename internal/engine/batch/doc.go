// Package batch runs large batches of synchronous computations without starving
// the host loop that owns them.
//
// A batch can be executed two ways:
//   - chunked: Job splits the batch into fixed-size chunks, runs one chunk per
//     host loop turn and posts its own continuation, so the worst-case blocking
//     time of any turn is bounded by the chunk size rather than the batch size
//   - monolithic: Monolithic runs every item in one uninterrupted pass and serves
//     as the comparison baseline
//
// Progress is reported as an integer percentage after every chunk and completion
// is reported exactly once with the elapsed wall-clock time. Harness runs either
// mode on a shared batch, enforces one active run at a time and derives the
// timing comparison between the two modes.
//
// Compute failures are handled fail-soft: an item whose compute function returns
// an error or panics leaves the zero value in its result slot, is recorded as an
// ItemError, and processing continues with the next item.
package batch
