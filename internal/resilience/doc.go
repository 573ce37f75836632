// Package resilience groups the fault-tolerance wrappers around the
// poller's outbound HTTP: retry for transient fetch failures, and circuit
// breakers that fence off hosts which are plainly down.
//
// The two are composed retry-outside-breaker, so an open breaker is seen by
// the retry layer as a permanent condition for this cycle:
//
//	err := retry.Do(ctx, retry.FeedFetchPolicy(), "feed fetch", func() error {
//		result, err := circuitbreaker.Do(breaker, fetchOnce)
//		...
//	})
package resilience
