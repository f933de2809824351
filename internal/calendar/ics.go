// Package calendar renders records as an iCalendar (RFC 5545) feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/chess-events/internal/event"
)

// TimeZone is the calendar zone declared in every feed.
const TimeZone = "Asia/Tokyo"

const uidDomain = "chess-events"

// GenerateICS generates an iCalendar document with one all-day VEVENT per record.
// It returns an empty string when there are no records.
func GenerateICS(records []*event.Record, calendarName string, now time.Time) string {
	if len(records) == 0 {
		return ""
	}

	var ics strings.Builder
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//Chess Events//chess-events//JA\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if calendarName != "" {
		ics.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeICS(calendarName)))
	}
	ics.WriteString(fmt.Sprintf("X-WR-TIMEZONE:%s\r\n", TimeZone))

	for _, rec := range records {
		writeEvent(&ics, rec, now)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, rec *event.Record, now time.Time) {
	ics.WriteString("BEGIN:VEVENT\r\n")

	ics.WriteString(fmt.Sprintf("UID:%s@%s\r\n", rec.ID, uidDomain))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(now)))

	// DTEND of an all-day event is exclusive
	ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", formatICSDate(rec.StartDate)))
	ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", formatICSDate(rec.EndDate.AddDays(1))))

	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(fmt.Sprintf("%s: %s", rec.Organizer, rec.Name))))

	var description strings.Builder
	if rec.OpenTime != event.Unknown {
		description.WriteString(fmt.Sprintf("Open: %s\n", rec.OpenTime))
	}
	if rec.Fee != event.Unknown {
		description.WriteString(fmt.Sprintf("Fee: %s\n", rec.Fee))
	}
	description.WriteString(rec.SourceURL)
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(description.String())))

	if rec.Revenue != event.Unknown {
		ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(rec.Revenue)))
	}
	if rec.SourceURL != "" {
		ics.WriteString(fmt.Sprintf("URL:%s\r\n", rec.SourceURL))
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("SEQUENCE:0\r\n")
	ics.WriteString("TRANSP:TRANSPARENT\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatICSDate formats a calendar date as an iCalendar DATE value
func formatICSDate(d event.CalendarDate) string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
