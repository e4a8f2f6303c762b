// Package calendar wraps the Google Calendar API behind a small client with
// service-account authentication and normalized event records.
package calendar
