package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/MeKo-Tech/sitescout/internal/types"
	"github.com/MeKo-Tech/sitescout/internal/worker"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess one or more locations and print the result as JSON",
	Long: `Assess locations outside an interactive session.

A single location is given with --lat and --lng. Several locations can be
given with repeated --at lat,lng flags; they are assessed in parallel by the
worker pool. Assessment never fails: when the remote provider is missing or
unavailable the synthetic generator answers.`,
	Example: `  sitescout assess --lat 31.2304 --lng 121.4737
  sitescout assess --at 31.2304,121.4737 --at 31.2243,121.4768 --provider overpass`,
	RunE: runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().Float64("lat", 0, "Latitude of the location")
	assessCmd.Flags().Float64("lng", 0, "Longitude of the location")
	assessCmd.Flags().StringArray("at", nil, "Location lat,lng (repeatable)")
	assessCmd.Flags().Bool("progress", true, "Show progress bar when assessing several locations")
	assessCmd.MarkFlagsRequiredTogether("lat", "lng")
	assessCmd.MarkFlagsMutuallyExclusive("lat", "at")
}

// assessment is one line of assess output.
type assessment struct {
	Position      types.Coordinate `json:"position"`
	CombinedScore int              `json:"combinedScore"`
	types.Assessment
}

func runAssess(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	coords, err := assessTargets(cmd)
	if err != nil {
		return err
	}

	adapter, err := newAdapter(randSource())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if len(coords) == 1 {
		a := adapter.Assess(ctx, coords[0])
		return enc.Encode(assessment{Position: coords[0], CombinedScore: a.CombinedScore(), Assessment: a})
	}

	showProgress, _ := cmd.Flags().GetBool("progress")
	results := assessBatch(ctx, adapter, coords, showProgress)
	return enc.Encode(results)
}

// assessTargets collects the coordinates from --lat/--lng or --at.
func assessTargets(cmd *cobra.Command) ([]types.Coordinate, error) {
	at, _ := cmd.Flags().GetStringArray("at")
	if len(at) > 0 {
		coords := make([]types.Coordinate, 0, len(at))
		for _, s := range at {
			c, err := parseCoordinate(s)
			if err != nil {
				return nil, fmt.Errorf("invalid --at: %w", err)
			}
			coords = append(coords, c)
		}
		return coords, nil
	}

	if !cmd.Flags().Changed("lat") {
		return nil, fmt.Errorf("either --lat/--lng or --at is required")
	}
	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")
	c := types.NewCoordinate(lat, lng)
	if !c.Valid() {
		return nil, fmt.Errorf("coordinate %s out of range", c)
	}
	return []types.Coordinate{c}, nil
}

// assessBatch runs every coordinate through the dispatcher and returns the
// results ranked by combined score, best first.
func assessBatch(ctx context.Context, assessor worker.Assessor, coords []types.Coordinate, showProgress bool) []assessment {
	progress := worker.NewProgress(len(coords), showProgress)

	results := make(chan worker.Result, len(coords))
	d := worker.New(worker.Config{
		Workers:   viper.GetInt("assess.workers"),
		Assessor:  assessor,
		QueueSize: len(coords),
		OnResult: func(r worker.Result) {
			progress.Record(r)
			results <- r
		},
		Logger: logger,
	})
	d.Start(ctx)

	logger.Info("Assessing locations", "count", len(coords))
	for i, c := range coords {
		d.Submit(worker.Job{PointID: types.PointID(strconv.Itoa(i)), Coordinate: c})
	}
	d.Stop()
	close(results)
	progress.Done()

	out := make([]assessment, len(coords))
	for r := range results {
		i, err := strconv.Atoi(string(r.Job.PointID))
		if err != nil {
			continue
		}
		out[i] = assessment{Position: r.Job.Coordinate, CombinedScore: r.Assessment.CombinedScore(), Assessment: r.Assessment}
	}

	logger.Info(progress.Summary())
	sort.SliceStable(out, func(a, b int) bool { return out[a].CombinedScore > out[b].CombinedScore })
	return out
}
