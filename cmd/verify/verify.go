package verify

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/morphotools/morphoverify/internal/conf"
	"github.com/morphotools/morphoverify/internal/reconcile"
)

// Command creates a new verify command for reconciling a single specimen table.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [input.csv]",
		Short: "Verify a specimen table against MorphoSource",
		Long:  `Look up every specimen row in the MorphoSource media registry and write an annotated copy of the table with the match results.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.InputFile = args[0]
			return reconcile.RunFile(cmd.Context(), settings)
		},
	}

	// Set up flags specific to the 'verify' command
	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the verify command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVarP(&settings.Output.Dir, "output", "o", viper.GetString("output.dir"), "Path to output directory")
	cmd.Flags().Float64VarP(&settings.MorphoSource.Tolerance, "tolerance", "t", viper.GetFloat64("morphosource.tolerance"), "Voxel spacing comparison tolerance")
	cmd.Flags().IntVar(&settings.MorphoSource.RateLimitMS, "ratelimit", viper.GetInt("morphosource.ratelimitms"), "Pause between registry searches in milliseconds")
	cmd.Flags().IntVar(&settings.MorphoSource.PerPage, "perpage", viper.GetInt("morphosource.perpage"), "Registry search page size")
	cmd.Flags().BoolVar(&settings.Dump.Enabled, "dump", viper.GetBool("dump.enabled"), "Save the first few raw registry responses for troubleshooting")
	cmd.Flags().StringVar(&settings.Dump.Path, "dumppath", viper.GetString("dump.path"), "Directory for raw response dumps")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
