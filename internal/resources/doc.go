// Package resources provides MCP resources for exposing calendar metadata.
// Resources are read-only data sources that MCP clients can fetch, such as
// the calendars visible to the service account and the scheduling defaults
// the server applies when interpreting requests.
package resources
