package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nullteam/toneengine/internal/playback"
	"github.com/nullteam/toneengine/internal/tonesource"
)

var (
	playLang      string
	playPackPath  string
	playDevice    int
	playOut       string
	playSeconds   float64
	playToSpeaker bool
)

var playCmd = &cobra.Command{
	Use:   "play <name>",
	Short: "Play a registered cadence, to a speaker or a raw PCM file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playLang, "lang", "", "language prefix to resolve against")
	playCmd.Flags().StringVar(&playPackPath, "pack", "", "additional cadence pack YAML file to load on top of the built-ins")
	playCmd.Flags().IntVar(&playDevice, "device", -1, "output device index (-1 for default)")
	playCmd.Flags().StringVar(&playOut, "out", "", "write raw 16-bit PCM to this file instead of (or in addition to logging) the speaker; '-' means stdout")
	playCmd.Flags().Float64Var(&playSeconds, "seconds", 0, "stop after this many seconds (0 = run until the cadence terminates on its own)")
	playCmd.Flags().BoolVar(&playToSpeaker, "speaker", true, "also play to the local speaker device")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	registry, err := buildRegistry(logger, playPackPath)
	if err != nil {
		return err
	}
	pool := tonesource.NewPool(registry, logger)
	defer pool.Close()

	var out io.Writer
	switch playOut {
	case "":
	case "-":
		out = cmd.OutOrStdout()
	default:
		f, err := os.Create(playOut)
		if err != nil {
			return fmt.Errorf("creating %s: %w", playOut, err)
		}
		defer f.Close()
		out = f
	}

	var player *playback.Player
	if playToSpeaker {
		player = playback.New(playDevice)
		if err := player.Init(); err != nil {
			return fmt.Errorf("initializing playback device: %w", err)
		}
		defer player.Close()
		ctx := context.Background()
		if err := player.Start(ctx); err != nil {
			return fmt.Errorf("starting playback device: %w", err)
		}
		defer player.Stop()
	}

	ctx := context.Background()
	if playSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(playSeconds*float64(time.Second)))
		defer cancel()
	}

	frameBuf := make([]byte, tonesource.FrameSamples*2)
	src := pool.GetTone(args[0], playLang, func(frame []int16) {
		if player != nil {
			player.Write(frame)
		}
		if out != nil {
			for i, s := range frame {
				binary.LittleEndian.PutUint16(frameBuf[i*2:], uint16(s))
			}
			out.Write(frameBuf)
		}
	})
	if src == nil {
		return fmt.Errorf("cadence %q does not resolve", args[0])
	}
	defer pool.Release(src)

	select {
	case <-src.Done():
	case <-ctx.Done():
		src.Stop()
		<-src.Done()
	}
	return nil
}
