package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nullteam/toneengine/internal/cadence"
	"github.com/nullteam/toneengine/internal/waveform"
)

var listPackPath string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered cadence names",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listPackPath, "pack", "", "additional cadence pack YAML file to load on top of the built-ins")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	registry, err := buildRegistry(logger, listPackPath)
	if err != nil {
		return err
	}

	names := registry.Keys()
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(cmd.OutOrStdout(), n)
	}
	return nil
}

// buildRegistry constructs a standalone cadence registry (built-ins
// plus an optional pack file), used by the lightweight list/play/resolve
// commands that don't need the full serve setup.
func buildRegistry(logger *slog.Logger, packPath string) (*cadence.Registry, error) {
	cache := waveform.NewCache()
	registry, err := cadence.NewRegistry(cache, logger)
	if err != nil {
		return nil, fmt.Errorf("building cadence registry: %w", err)
	}
	if packPath != "" {
		if err := cadence.LoadPack(registry, packPath); err != nil {
			return nil, fmt.Errorf("loading cadence pack %s: %w", packPath, err)
		}
	}
	return registry, nil
}
