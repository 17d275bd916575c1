package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/sitescout/internal/interaction"
	"github.com/MeKo-Tech/sitescout/internal/server"
	"github.com/MeKo-Tech/sitescout/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host one interactive assessment session over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("static-dir", "", "Directory with the browser map surface (optional)")
	serveCmd.Flags().StringSlice("allowed-origins", []string{"*"}, "CORS allowed origins")

	serveCmd.Flags().Float64("center-lat", interaction.DefaultCenter.Lat, "Session center latitude")
	serveCmd.Flags().Float64("center-lng", interaction.DefaultCenter.Lng, "Session center longitude")
	serveCmd.Flags().Bool("strict", false, "Reject events that are invalid in the current state instead of ignoring them")
	serveCmd.Flags().Bool("discard-open-segment", false, "Drop a half-finished measurement when the tool mode changes")

	serveCmd.Flags().Int("heatmap-count", interaction.DefaultHeatmapSamples, "Number of heatmap samples")
	serveCmd.Flags().String("heatmap-mode", string(interaction.HeatmapUniform), "Heatmap intensity model (uniform, perlin)")
	serveCmd.Flags().Int64("heatmap-seed", 1337, "Perlin noise seed for the heatmap")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.static_dir", "static-dir")
	mustBind("serve.allowed_origins", "allowed-origins")

	mustBind("session.center_lat", "center-lat")
	mustBind("session.center_lng", "center-lng")
	mustBind("session.strict", "strict")
	mustBind("session.discard_open_segment_on_mode_switch", "discard-open-segment")

	mustBind("heatmap.count", "heatmap-count")
	mustBind("heatmap.mode", "heatmap-mode")
	mustBind("heatmap.seed", "heatmap-seed")
}

// sessionConfig reads the interaction settings.
func sessionConfig() (interaction.Config, error) {
	mode, err := interaction.ParseHeatmapMode(viper.GetString("heatmap.mode"))
	if err != nil {
		return interaction.Config{}, err
	}

	center := types.NewCoordinate(viper.GetFloat64("session.center_lat"), viper.GetFloat64("session.center_lng"))
	if !center.Valid() {
		return interaction.Config{}, fmt.Errorf("invalid session center %s", center)
	}

	return interaction.Config{
		Workers:                        viper.GetInt("assess.workers"),
		Center:                         &center,
		HeatmapCount:                   viper.GetInt("heatmap.count"),
		HeatmapMode:                    mode,
		HeatmapSeed:                    viper.GetInt64("heatmap.seed"),
		Strict:                         viper.GetBool("session.strict"),
		DiscardOpenSegmentOnModeSwitch: viper.GetBool("session.discard_open_segment_on_mode_switch"),
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	cfg, err := sessionConfig()
	if err != nil {
		return err
	}

	rng := randSource()
	adapter, err := newAdapter(rng)
	if err != nil {
		return err
	}
	cfg.Assessor = adapter
	cfg.Rand = rng
	cfg.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	machine, err := interaction.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer machine.Close()

	addr := viper.GetString("serve.addr")
	api := server.New(machine, server.Config{
		AllowedOrigins: viper.GetStringSlice("serve.allowed_origins"),
		StaticDir:      viper.GetString("serve.static_dir"),
	}, logger)

	srv := &http.Server{Addr: addr, Handler: api.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("session server listening",
		"addr", addr,
		"provider", viper.GetString("assess.provider"),
		"remote", adapter.HasRemote(),
		"workers", cfg.Workers,
	)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received interrupt signal, shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
