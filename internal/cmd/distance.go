package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/sitescout/internal/geo"
	"github.com/spf13/cobra"
)

var distanceCmd = &cobra.Command{
	Use:     "distance",
	Short:   "Print the great-circle distance between two coordinates in meters",
	Example: `  sitescout distance --from 31.2304,121.4737 --to 31.2304,121.4837`,
	RunE:    runDistance,
}

func init() {
	rootCmd.AddCommand(distanceCmd)

	distanceCmd.Flags().String("from", "", "Start coordinate lat,lng")
	distanceCmd.Flags().String("to", "", "End coordinate lat,lng")
	distanceCmd.Flags().Bool("exact", false, "Print the unrounded distance")
	_ = distanceCmd.MarkFlagRequired("from")
	_ = distanceCmd.MarkFlagRequired("to")
}

func runDistance(cmd *cobra.Command, args []string) error {
	fromFlag, _ := cmd.Flags().GetString("from")
	toFlag, _ := cmd.Flags().GetString("to")
	exact, _ := cmd.Flags().GetBool("exact")

	from, err := parseCoordinate(fromFlag)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := parseCoordinate(toFlag)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}

	if exact {
		fmt.Fprintf(cmd.OutOrStdout(), "%.3f\n", geo.DistanceExact(from, to))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%.0f\n", geo.Distance(from, to))
	return nil
}
