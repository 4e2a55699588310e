// Package export renders evaluation metrics and forecast records for the
// console.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/bikecast/core/evaluation"
	"github.com/kilianp07/bikecast/core/model"
)

// DateLayout is the short date format used in text output.
const DateLayout = "1/2/2006"

// Formats lists the accepted values of Write.
var Formats = []string{"text", "json", "csv", "yaml"}

// WriteMetrics writes the evaluation block with three decimals.
func WriteMetrics(w io.Writer, m evaluation.Metrics) error {
	_, err := fmt.Fprintf(w, "Evaluation Metrics\n---------------------\nMean Absolute Error: %.3f\nRoot Mean Squared Error: %.3f\n\n", m.MAE, m.RMSE)
	return err
}

// WriteText writes one block per record under a "Rental Forecast" header.
func WriteText(w io.Writer, recs []model.Record) error {
	if _, err := io.WriteString(w, "Rental Forecast\n---------------------\n"); err != nil {
		return err
	}
	for _, r := range recs {
		_, err := fmt.Fprintf(w, "Date: %s\nActual Rentals: %s\nLower Estimate: %s\nForecast: %s\nUpper Estimate: %s\n\n",
			r.Date.Format(DateLayout), num(r.Actual), num(r.Lower), num(r.Forecast), num(r.Upper))
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the records as an indented JSON array.
func WriteJSON(w io.Writer, recs []model.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if recs == nil {
		recs = []model.Record{}
	}
	return enc.Encode(recs)
}

// WriteCSV writes the records with a header row.
func WriteCSV(w io.Writer, recs []model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "actual_rentals", "lower_estimate", "forecast", "upper_estimate"}); err != nil {
		return err
	}
	for _, r := range recs {
		rec := []string{
			r.Date.Format("2006-01-02"),
			num(r.Actual),
			num(r.Lower),
			num(r.Forecast),
			num(r.Upper),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteYAML writes the records as a YAML sequence.
func WriteYAML(w io.Writer, recs []model.Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(recs); err != nil {
		return err
	}
	return enc.Close()
}

// Write dispatches to the writer for format.
func Write(w io.Writer, format string, recs []model.Record) error {
	switch format {
	case "", "text":
		return WriteText(w, recs)
	case "json":
		return WriteJSON(w, recs)
	case "csv":
		return WriteCSV(w, recs)
	case "yaml", "yml":
		return WriteYAML(w, recs)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// num prints v at single precision, the resolution rentals are reported with.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 32)
}
