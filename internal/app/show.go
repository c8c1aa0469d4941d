package app

import (
	"fmt"
	"os"
	"text/tabwriter"

	"daily-price-pipeline/internal/storage"
)

// Show prints the stored symbols and their latest partition metadata.
func (a *App) Show(opts ShowOptions) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}

	symbols, err := store.ListSymbols()
	if err != nil {
		return err
	}
	if opts.Symbol != "" {
		symbols = []string{opts.Symbol}
	}
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stdout, "no stored symbols")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Symbol\tPartition\tRows\tRange\tValid\tIssues\tUpdated")

	for _, symbol := range symbols {
		meta, ok, err := store.LatestMetadata(symbol)
		if err != nil {
			a.Logger.Warn().Err(err).Str("symbol", symbol).Msg("metadata unreadable")
			continue
		}
		if !ok {
			fmt.Fprintf(writer, "%s\t-\t-\t-\t-\t-\t-\n", symbol)
			continue
		}
		fmt.Fprintf(writer, "%s\t%04d-%02d\t%d\t%s to %s\t%v\t%d\t%s\n",
			meta.Symbol,
			meta.Partition.Year, meta.Partition.Month,
			meta.Records.Corrected,
			meta.DateRange.Start, meta.DateRange.End,
			meta.Validation.IsValid,
			meta.Validation.TotalIssues,
			meta.LastUpdated.Format("2006-01-02 15:04"),
		)
	}

	if err := writer.Flush(); err != nil {
		return err
	}

	if opts.Symbol != "" {
		line, err := describeBackups(store, opts.Symbol)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}

func describeBackups(store *storage.Store, symbol string) (string, error) {
	backups, err := store.Backups(symbol)
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "no backups", nil
	}
	return fmt.Sprintf("%d backups, newest %s", len(backups), backups[len(backups)-1]), nil
}
