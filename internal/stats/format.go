package stats

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatUSD renders an amount with thousands separators, e.g. "$1,234.50".
func FormatUSD(v float64, decimals int) string {
	return printer.Sprintf(fmt.Sprintf("$%%.%df", decimals), v)
}

// FormatCap renders a whole-dollar amount, e.g. "$1,262,000,000,000".
func FormatCap(v int64) string {
	return printer.Sprintf("$%d", v)
}

// FormatChange renders a 24h change, e.g. "-1.25%".
func FormatChange(c Change) string {
	return fmt.Sprintf("%.2f%%", c.PercentChange24h)
}

// WriteText prints s in the console layout used by the analyze command.
func WriteText(w io.Writer, s Summary) error {
	ew := &errWriter{w: w}

	ew.printf("Top %d Cryptocurrencies by Market Cap:\n", len(s.Top))
	for i, r := range s.Top {
		ew.printf("  %d. %s (%s) - Market Cap: %s\n", i+1, r.Name, r.Symbol, FormatCap(r.MarketCap))
	}

	ew.printf("\nAverage Price of Top %d Cryptocurrencies: %s\n", s.Count, FormatUSD(s.MeanPrice, 2))

	if s.HasChanges {
		ew.printf("\nHighest 24h %% Change: %s (%s)\n", s.Highest.Name, FormatChange(s.Highest))
		ew.printf("Lowest 24h %% Change: %s (%s)\n", s.Lowest.Name, FormatChange(s.Lowest))
	} else {
		ew.printf("\nHighest 24h %% Change: n/a\n")
		ew.printf("Lowest 24h %% Change: n/a\n")
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
