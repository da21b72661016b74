// Package resilience provides retry and bulkhead decorators for pipeline
// operations, plus the underlying primitives for direct use.
//
//	flaky := resilience.RetryOperation(fetchRates, resilience.DefaultRetryConfig())
//	scarce := resilience.BulkheadOperation(callLedger, resilience.NewBulkhead(
//		resilience.DefaultBulkheadConfig("ledger"),
//	))
//	p := pipe.New().Add(flaky, scarce)
//
// Retry honors the Retryable flag on engine errors and never retries
// context cancellation. A bulkhead caps concurrent executions of the
// operations sharing it, so one slow dependency cannot absorb every
// worker.
package resilience
