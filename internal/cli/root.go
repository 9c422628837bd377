// Package cli implements the surveyplan command line tool: offline
// deviation and sequence planning over GeoJSON inputs.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

// rootCmd is the root command for surveyplan.
var rootCmd = &cobra.Command{
	Use:     "surveyplan",
	Version: "dev",
	Short:   "Survey line deviation and acquisition sequence planner",
	Long: `surveyplan plans collision-free, turn-radius-feasible vessel paths for
marine surveys: detours around exclusion zones and timed Racetrack or
Teardrop acquisition sequences. Geometry is exchanged as GeoJSON in a
planar projected CRS.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(sequenceCmd)
}
