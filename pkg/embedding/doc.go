// Package embedding turns text into dense vectors via an OpenAI-compatible
// inference endpoint.
//
// The search core consumes it through the Provider interface and treats any
// error as non-fatal: a failing provider downgrades vector and hybrid
// queries to text-only search, it never fails them. Provider failures are
// reported as *ProviderError so callers can distinguish them from their own
// construction errors.
package embedding
