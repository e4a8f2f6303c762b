// Package ai provides a client for the Workers AI text-generation REST API.
//
// The client issues one blocking POST per model invocation and normalizes the
// API's shape-shifting result payload (bare string vs. object with a response
// field) into plain text. It performs no retries; callers decide how to react
// to a failed invocation.
package ai
