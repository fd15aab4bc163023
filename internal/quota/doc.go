// Package quota bounds outbound directory API calls to the upstream's
// published rate limit. A single Governor is shared by every concurrent crawl
// so the limit holds regardless of how many requests run at once.
//
// Design decision: We implement a token bucket rather than using a counting
// semaphore because:
//  1. A semaphore bounds how many calls are in flight simultaneously, not
//     how many calls happen per unit time
//  2. A burst of acquire/release cycles under a semaphore can still exceed
//     the upstream's time-windowed quota
//  3. The token bucket allows bounded bursts while enforcing the steady
//     long-run rate the upstream actually meters
//
// Design decision: We hand-roll the bucket rather than using
// golang.org/x/time/rate because the upstream can impose external reset
// windows (explicit quota-exceeded responses) that must drain the bucket and
// delay all waiters, and because waits carry deliberate jitter to avoid
// synchronized wake-ups. Neither fits rate.Limiter's reservation model.
//
// The token count is the only state in the pipeline mutated by multiple
// concurrent tasks. It is guarded by a single exclusive lock around
// refill-and-deduct; the raw counter is never exposed, only Acquire.
package quota
