package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var resolveLang string
var resolvePackPath string

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve a cadence name the way getTone would, without starting a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveLang, "lang", "", "language prefix to resolve against")
	resolveCmd.Flags().StringVar(&resolvePackPath, "pack", "", "additional cadence pack YAML file to load on top of the built-ins")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	registry, err := buildRegistry(logger, resolvePackPath)
	if err != nil {
		return err
	}

	desc, canonical, ok := registry.Resolve(args[0], resolveLang, true)
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: unresolved\n", args[0])
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (repeat_all=%v, segments=%d)\n",
		args[0], canonical, desc.RepeatAll, len(desc.Cadence.Segments))
	return nil
}
