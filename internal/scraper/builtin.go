package scraper

import (
	"github.com/pfrederiksen/chess-events/internal/event"
	"github.com/pfrederiksen/chess-events/internal/extract"
)

// Keywords of the sources compiled into the binary.
const (
	KeywordClub8x8    = "8x8_chess_club"
	KeywordKitasenjyu = "kitasenjyu"
	KeywordNCS        = "ncs"
)

// BuiltinSources returns the compiled-in source configurations in run order.
func BuiltinSources() []SourceConfig {
	return []SourceConfig{
		{
			// hatenablog: one article per meeting announcement, one field per paragraph
			Keyword:          KeywordClub8x8,
			Organizer:        "8x8 Chess Club",
			URL:              "https://8by8.hatenablog.com/",
			Extractor:        ExtractLabelled,
			UnitSelector:     "article",
			FragmentSelector: "p",
			TitleSelector:    ".entry-title",
			LinkSelector:     ".entry-title a",
			Rules: []extract.Rule{
				{Field: event.FieldDate, Label: "日時:"},
				{Field: event.FieldRevenue, Label: "場所:"},
				{Field: event.FieldFee, Label: "参加費:"},
				{Field: event.FieldOpenTime, Pattern: extract.OpenTimePattern},
			},
			Required: []event.Field{event.FieldDate, event.FieldOpenTime, event.FieldRevenue, event.FieldFee},
			Grammar:  event.GrammarKanji,
		},
		{
			// Shift_JIS page; each official game line is "title　date　time　venue"
			Keyword:      KeywordKitasenjyu,
			Organizer:    "Kitasenju Chess Club",
			URL:          "http://chess.m1.valueserver.jp/",
			Encoding:     "Shift_JIS",
			Extractor:    ExtractLines,
			UnitSelector: "div.item",
			UnitMarker:   "公式戦例会予定",
			LineMarker:   "日本チェス連盟公式戦２Ｒ",
			Separator:    "　",
			Columns:      []event.Field{event.FieldName, event.FieldDate, event.FieldOpenTime, event.FieldRevenue},
			Required:     []event.Field{event.FieldDate, event.FieldOpenTime, event.FieldRevenue},
			Grammar:      event.GrammarSlash,
			Fixed:        event.Fields{event.FieldFee: event.Unknown},
		},
		{
			// federation tournament calendar: one table row per event, dates may span days
			Keyword:      KeywordNCS,
			Organizer:    "NCS",
			URL:          "https://www.jcf.or.jp/schedule/",
			Extractor:    ExtractTable,
			UnitSelector: "table.schedule tr",
			Columns:      []event.Field{event.FieldDate, event.FieldName, event.FieldRevenue, event.FieldFee},
			Required:     []event.Field{event.FieldDate, event.FieldRevenue},
			Grammar:      event.GrammarSlash,
			RangeDates:   true,
			DefaultName:  "tournament",
		},
	}
}
