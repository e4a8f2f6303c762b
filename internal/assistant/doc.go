// Package assistant implements the language-model pipeline: resolving
// free-form queries into date ranges and clock times, and narrating event
// lists into prose with a deterministic fallback.
package assistant
