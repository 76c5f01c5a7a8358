package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nullteam/toneengine/internal/config"
	"github.com/nullteam/toneengine/internal/detector"
	"github.com/nullteam/toneengine/internal/notify"
)

var (
	detectIn        string
	detectMode      string
	detectFilters   string
	detectFaxDivert string
)

var detectCmd = &cobra.Command{
	Use:   "detect <stream-id>",
	Short: "Run the tone detector over a raw 16-bit PCM file and print emitted events",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectIn, "in", "-", "raw 16-bit PCM input file; '-' means stdin")
	detectCmd.Flags().StringVar(&detectMode, "mode", "mono", "channel mode: mono, left, right, mixed")
	detectCmd.Flags().StringVar(&detectFilters, "filters", "", "comma-separated filter list (fax,rfax,cotv,cots,dtmf,callsetup,*); empty uses the config defaults")
	detectCmd.Flags().StringVar(&detectFaxDivert, "fax-divert", "", "call.execute target for fax detection instead of call.fax")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

	filters := detectFilters
	if filters == "" {
		cfg, _, err := config.Load(configPath, logger)
		if err != nil {
			logger.Warn("no config available for detector defaults, using fax+dtmf", "error", err)
			filters = "fax,dtmf"
		} else {
			filters = filterListFromConfig(cfg.Detector)
		}
	}

	streamName := fmt.Sprintf("tone/%s/%s", detectMode, filters)
	sink := notify.NewLogSink(logger)
	consumer := detector.New(args[0], streamName, sink, logger)
	if detectFaxDivert != "" {
		consumer.SetFaxDivert(detectFaxDivert, true, "", "")
	}

	var in io.Reader
	if detectIn == "-" {
		in = cmd.InOrStdin()
	} else {
		f, err := os.Open(detectIn)
		if err != nil {
			return fmt.Errorf("opening %s: %w", detectIn, err)
		}
		defer f.Close()
		in = f
	}

	ctx := context.Background()
	buf := make([]byte, 3200) // 200ms at 8kHz mono per read; each read is trimmed to an even length
	for {
		n, err := in.Read(buf)
		if n > 0 {
			frame := buf[:n-n%2]
			if len(frame) > 0 {
				consumer.Consume(ctx, frame)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", detectIn, err)
		}
	}
	return nil
}

// filterListFromConfig renders a DetectorConfig as the comma-separated
// filter-list a Consumer's stream name embeds (spec.md 4.5).
func filterListFromConfig(cfg config.DetectorConfig) string {
	var opts []string
	if cfg.FaxEnabled {
		opts = append(opts, "fax")
	}
	if cfg.DTMFEnabled {
		opts = append(opts, "dtmf")
	}
	if cfg.ContinuityVerified {
		opts = append(opts, "cotv")
	}
	if cfg.ContinuitySend {
		opts = append(opts, "cots")
	}
	if cfg.CallSetup {
		opts = append(opts, "callsetup")
	}
	return strings.Join(opts, ",")
}
