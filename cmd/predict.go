package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/maelviard/trackcast/app"
	"github.com/maelviard/trackcast/config"
	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/pkg/export"
)

var (
	statePath  string
	fromFlag   string
	toFlag     string
	resolution int
	format     string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run a one-shot forecast from a state file",
	RunE:  predictOnce,
}

func init() {
	predictCmd.Flags().StringVarP(&statePath, "state", "s", "", "entity state file (JSON)")
	predictCmd.Flags().StringVar(&fromFlag, "from", "", "window start, RFC3339 (default: state timestamp)")
	predictCmd.Flags().StringVar(&toFlag, "to", "", "window end, RFC3339 (default: start plus one hour)")
	predictCmd.Flags().IntVarP(&resolution, "resolution", "r", 60, "seconds between points")
	predictCmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or csv")
	if err := predictCmd.MarkFlagRequired("state"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(predictCmd)
}

func predictOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// One-shot runs never consume the broker.
	cfg.MQTT.Enabled = false
	cfg.Metrics.Prometheus.Enabled = false
	cfg.Metrics.Influx.Enabled = false

	raw, err := os.ReadFile(statePath)
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	var st model.EntityState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if st.Timestamp.IsZero() {
		st.Timestamp = time.Now().UTC()
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	svc.Source.Set(st)

	from := st.Timestamp
	if fromFlag != "" {
		if from, err = time.Parse(time.RFC3339, fromFlag); err != nil {
			return fmt.Errorf("parse from: %w", err)
		}
	}
	to := from.Add(time.Hour)
	if toFlag != "" {
		if to, err = time.Parse(time.RFC3339, toFlag); err != nil {
			return fmt.Errorf("parse to: %w", err)
		}
	}

	result, err := svc.Predictions.PredictOne(ctx, model.PredictionRequest{
		EntityID:          st.EntityID,
		Type:              st.Type,
		From:              from,
		To:                to,
		ResolutionSeconds: resolution,
	})
	if err != nil {
		return err
	}
	switch format {
	case "csv":
		return export.WriteCSV(os.Stdout, result)
	case "json":
		return export.WriteJSON(os.Stdout, result)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
