// Package calendar_tools implements the MCP tools for querying, creating,
// removing, and updating Google Calendar events. Failures surface as marked
// text results rather than protocol errors so clients can always render them.
package calendar_tools
