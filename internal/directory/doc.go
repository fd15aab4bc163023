// Package directory implements the client for the upstream directory API.
//
// The client is a thin, retrying wrapper around the API's user-lookup and
// following-list endpoints. Every HTTP call, including every pagination page,
// first acquires one token from the shared quota governor, so the upstream's
// rate limit holds no matter how many crawls share the client.
//
// # Failure handling
//
// Responses are classified at this boundary into a closed set of outcomes so
// downstream logic can match exhaustively instead of inspecting raw errors:
//
//   - Found: the request succeeded and produced typed records
//   - NotFound: the actor does not exist upstream (permanent, never retried)
//   - Restricted: the actor is protected (permanent, never retried)
//
// Transient failures (timeouts, 5xx) are retried with exponential backoff
// before surfacing. An explicit quota-exceeded response suspends the caller
// for the upstream's stated reset window through the governor, then retries
// the call once more. Credential rejection is fatal and aborts the crawl.
//
// # Pagination
//
// Following lists are paginated upstream; the client drains all pages
// internally and returns the complete set. Callers never see partial pages,
// but each page still costs one quota token.
package directory
