package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"statcan-proxy/src/aggregator"
)

// datasetOutput is one dataset in --json output
type datasetOutput struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	aggregator.DatasetState
}

func writeStatesJSON(out io.Writer, datasets []*aggregator.Dataset, states map[string]aggregator.DatasetState) error {
	rows := make([]datasetOutput, 0, len(datasets))
	for _, ds := range datasets {
		rows = append(rows, datasetOutput{Name: ds.Name, Title: ds.Title, DatasetState: states[ds.Name]})
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

func writeStatesTable(out io.Writer, datasets []*aggregator.Dataset, states map[string]aggregator.DatasetState) error {
	for i, ds := range datasets {
		if i > 0 {
			if _, err := fmt.Fprintln(out); err != nil {
				return err
			}
		}
		state := states[ds.Name]
		if _, err := fmt.Fprintf(out, "== %s (%s): %s ==\n", ds.Title, ds.Name, state.Phase()); err != nil {
			return err
		}

		switch {
		case state.Error != "":
			if _, err := fmt.Fprintf(out, "error: %s\n", state.Error); err != nil {
				return err
			}
		case state.Data != nil:
			if err := writeChartTable(out, state); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeChartTable(out io.Writer, state aggregator.DatasetState) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	headers := []string{"LABEL"}
	for _, s := range state.Data.Series {
		headers = append(headers, s.Label)
	}
	if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
		return fmt.Errorf("failed to write table header: %w", err)
	}

	for i, label := range state.Data.Labels {
		row := []string{label}
		for _, s := range state.Data.Series {
			cell := ""
			if i < len(s.Values) {
				cell = formatValue(s.Values[i])
			}
			row = append(row, cell)
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return fmt.Errorf("failed to write table row: %w", err)
		}
	}
	return w.Flush()
}

func writeCatalog(out io.Writer, datasets []*aggregator.Dataset, pages []aggregator.Page) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "DATASET\tSOURCE\tLABELS\tSERIES\tTITLE"); err != nil {
		return err
	}
	for _, ds := range datasets {
		source := "static"
		if ds.NeedsFetch() {
			source = fmt.Sprintf("%d vectors", len(ds.Batch))
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", ds.Name, source, len(ds.Labels), len(ds.Series), ds.Title); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(out, "\nPAGES"); err != nil {
		return err
	}
	for _, p := range pages {
		if _, err := fmt.Fprintf(out, "  %s: %s\n", p.Name, strings.Join(p.Datasets, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// formatValue groups thousands and keeps at most two decimals
func formatValue(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}
