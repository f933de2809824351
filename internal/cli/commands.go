package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/chess-events/internal/event"
)

var errUnparsableDate = errors.New("date could not be normalized")

// sourceInfo is one line of the sources listing
type sourceInfo struct {
	Keyword   string `json:"keyword"`
	Organizer string `json:"organizer"`
	URL       string `json:"url"`
	Extractor string `json:"extractor"`
	Grammar   string `json:"grammar"`
	Encoding  string `json:"encoding,omitempty"`
	Enabled   bool   `json:"enabled"`
}

func newSourcesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List registered sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.setup()
			if err != nil {
				return err
			}
			reg, err := a.registry(cfg)
			if err != nil {
				return err
			}

			enabled := make(map[string]bool)
			for _, k := range cfg.Sources {
				enabled[k] = true
			}

			infos := make([]sourceInfo, 0)
			for _, keyword := range reg.Keywords() {
				sc, _ := reg.Lookup(keyword)
				infos = append(infos, sourceInfo{
					Keyword:   sc.Keyword,
					Organizer: sc.Organizer,
					URL:       sc.URL,
					Extractor: string(sc.Extractor),
					Grammar:   string(sc.Grammar),
					Encoding:  sc.Encoding,
					Enabled:   enabled[keyword],
				})
			}

			if OutputFormat(strings.ToLower(a.format)) == FormatJSON {
				encoder := json.NewEncoder(a.stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(infos)
			}

			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				mark := " "
				if info.Enabled {
					mark = "*"
				}
				rows = append(rows, []string{mark, info.Keyword, info.Organizer, info.Extractor, info.URL})
			}
			widths := columnWidths(rows)
			for _, row := range rows {
				cells := make([]string, len(row))
				for i, cell := range row {
					cells[i] = runewidth.FillRight(cell, widths[i])
				}
				fmt.Fprintln(a.stdout, strings.TrimRight(strings.Join(cells, "  "), " "))
			}
			return nil
		},
	}
}

func newParseDateCmd(a *app) *cobra.Command {
	var (
		grammar string
		ref     string
		ranged  bool
	)

	cmd := &cobra.Command{
		Use:   "parse-date FRAGMENT",
		Short: "Show how a date fragment is normalized",
		Example: `  chess-events parse-date "１／２０（土）" --grammar slash --ref 2024-06-01
  chess-events parse-date "2024/1/7(日)-1/8(月祝)" --grammar slash --range`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var g event.Grammar
			if err := g.UnmarshalText([]byte(grammar)); err != nil {
				return err
			}

			refDate := event.DateOf(a.now().In(event.JST))
			if ref != "" {
				if err := refDate.UnmarshalText([]byte(ref)); err != nil {
					return fmt.Errorf("invalid --ref: %w", err)
				}
			}

			var start, end event.Resolution
			if ranged {
				start, end = event.NormalizeRange(args[0], refDate, g)
			} else {
				start = event.Normalize(args[0], refDate, g)
				end = start
			}

			printResolution(a, "start", start)
			if ranged {
				printResolution(a, "end", end)
			}

			c := event.Candidate{Start: start, End: end}
			if err := c.Validate(nil); err != nil {
				return fmt.Errorf("%w: %w", errUnparsableDate, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&grammar, "grammar", string(event.GrammarKanji), "Date grammar: kanji, slash or dot")
	cmd.Flags().StringVar(&ref, "ref", "", "Reference date YYYY-MM-DD (default today in Japan)")
	cmd.Flags().BoolVar(&ranged, "range", false, "Treat the fragment as a date range")

	return cmd
}

func printResolution(a *app, label string, r event.Resolution) {
	date := r.Date.String()
	if r.Date.IsSentinel() {
		date = "unparsable"
	}
	fmt.Fprintf(a.stdout, "%s: %s (year=%s month=%s day=%s)\n", label, date, r.Year, r.Month, r.Day)
}
