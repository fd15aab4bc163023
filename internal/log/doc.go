// Package log provides a secure slog handler that redacts credentials from
// log output.
//
// Every crawl request carries the caller's bearer credential, and the
// directory client attaches Authorization headers to every request it logs
// about. A stray slog attribute must never leak those values into log files,
// so all pipeline loggers are built on SecureHandler, which masks attributes
// whose key or value looks credential-bearing before the record reaches the
// underlying handler.
package log
