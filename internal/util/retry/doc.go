// Package retry provides exponential backoff retry logic for transient failures.
//
// [Do] retries an operation with configurable max attempts, initial delay and
// maximum delay. Errors wrapped with [Fatal], or rejected by a [WithRetryIf]
// predicate, end the loop immediately. Stack submission uses it to retry
// only failures that happened before the backend acknowledged a request.
package retry
