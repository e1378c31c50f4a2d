// Package export serializes forecast results for downstream tooling.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/maelviard/trackcast/core/model"
)

// WriteJSON writes the forecast to w in JSON format.
func WriteJSON(w io.Writer, result model.PredictionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// WriteCSV writes the forecast points to w, one row per point.
func WriteCSV(w io.Writer, result model.PredictionResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "lat", "lon", "alt_m", "confidence", "uncertainty_m"}); err != nil {
		return err
	}
	for _, p := range result.Points {
		rec := []string{
			p.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(p.Position.Lat, 'f', -1, 64),
			strconv.FormatFloat(p.Position.Lon, 'f', -1, 64),
			"",
			strconv.FormatFloat(p.Confidence, 'f', -1, 64),
			strconv.FormatFloat(p.Uncertainty.RadiusM, 'f', -1, 64),
		}
		if p.Position.Alt != nil {
			rec[3] = strconv.FormatFloat(*p.Position.Alt, 'f', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
