package calendar

import (
	"math"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// EventRecord is the normalized view of a calendar event used to build prompt
// context and user-facing text. It is never mutated after construction.
type EventRecord struct {
	ID             string
	Name           string
	Creator        string
	Start          *time.Time // nil when the source event has no start
	End            *time.Time // nil when the source event has no end
	AttendeeEmails []string   // never nil
	Location       string
	SourceCalendar string
	TimeZone       string
}

// DurationMinutes returns the event length rounded to whole minutes. The
// second return value is false when either endpoint is missing.
func (e EventRecord) DurationMinutes() (int64, bool) {
	if e.Start == nil || e.End == nil {
		return 0, false
	}
	return int64(math.Round(e.End.Sub(*e.Start).Minutes())), true
}

// EventDraft carries the fields for a new calendar event.
type EventDraft struct {
	Summary  string
	Location string
	Start    time.Time
	End      time.Time
	TimeZone string
}

// EventPatch carries a partial update. Zero-value fields are omitted from the
// request, so an untouched field keeps its stored value.
type EventPatch struct {
	Summary  string
	Location string
	Start    *time.Time
	End      *time.Time
	TimeZone string
}

// CalendarInfo describes a subscribed calendar.
type CalendarInfo struct {
	ID       string
	Summary  string
	TimeZone string
	Primary  bool
}

// toEventRecord maps a raw API event into an EventRecord. It is total: any
// combination of missing fields yields a record, never an error. Date-time
// fields are preferred; all-day events fall back to their date-only marker.
func toEventRecord(event *calendar.Event, sourceCalendar string, loc *time.Location) EventRecord {
	record := EventRecord{
		AttendeeEmails: []string{},
		SourceCalendar: sourceCalendar,
	}
	if event == nil {
		return record
	}

	record.ID = event.Id
	record.Name = event.Summary
	if record.Name == "" {
		record.Name = "No title"
	}
	record.Location = event.Location

	if event.Creator != nil {
		record.Creator = event.Creator.Email
	}

	record.Start = parseEventTime(event.Start, loc)
	record.End = parseEventTime(event.End, loc)

	record.TimeZone = loc.String()
	if event.Start != nil && event.Start.TimeZone != "" {
		record.TimeZone = event.Start.TimeZone
	}

	for _, att := range event.Attendees {
		if att != nil && att.Email != "" {
			record.AttendeeEmails = append(record.AttendeeEmails, att.Email)
		}
	}

	return record
}

// parseEventTime extracts an instant from an event endpoint. Returns nil when
// the endpoint is absent or unparsable.
func parseEventTime(edt *calendar.EventDateTime, loc *time.Location) *time.Time {
	if edt == nil {
		return nil
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			t = t.In(loc)
			return &t
		}
		return nil
	}
	if edt.Date != "" {
		if t, err := time.ParseInLocation("2006-01-02", edt.Date, loc); err == nil {
			return &t
		}
	}
	return nil
}

func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}
	return CalendarInfo{
		ID:       entry.Id,
		Summary:  entry.Summary,
		TimeZone: entry.TimeZone,
		Primary:  entry.Primary,
	}
}
