package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wegman-software/csv2osm-go/internal/config"
	"github.com/wegman-software/csv2osm-go/internal/logger"
)

var (
	cfg         = config.DefaultConfig()
	profileFile string
)

var rootCmd = &cobra.Command{
	Use:   "csv2osm [input] [output]",
	Short: "Convert CSV point tables to OSM XML",
	Long: `csv2osm converts a delimited table with coordinate columns into an
OSM XML 0.6 document of nodes with negative ids, optionally closed by a way.

Input and output default to stdin and stdout; "-" selects them explicitly.
Files ending in .gz are decompressed or compressed transparently.

Coordinates:
  - Decimal degrees written in any numeric locale (--locale pt_BR.UTF-8)
  - DMS strings such as 23°30'15,5"S
  - Projected inputs reprojected to WGS84 through PROJ
    (--proj4, --sirgas2000 ZONE, --sad69 ZONE|ll)

Rows whose coordinates cannot be read are reported and skipped; their id is
not reused.`,
	Args:         cobra.MaximumNArgs(2),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger with optional file output
		if cfg.LogFile != "" {
			logger.InitWithFile(cfg.Verbose, cfg.LogFile)
		} else {
			logger.Init(cfg.Verbose)
		}
		return applyProfile(cmd.Flags())
	},
	Run: runConvert,
}

func Execute() error {
	err := rootCmd.Execute()
	logger.Sync()
	return err
}

func init() {
	flags := rootCmd.Flags()

	// Columns and numbers
	flags.StringVarP(&cfg.Lon, "lon", "x", cfg.Lon, "Longitude/easting column (default: first of LONGITUDE, Longitude, longitude, lon, x, e)")
	flags.StringVarP(&cfg.Lat, "lat", "y", cfg.Lat, "Latitude/northing column (default: first of LATITUDE, Latitude, latitude, lat, y, n)")
	flags.StringVarP(&cfg.Locale, "locale", "l", cfg.Locale, "Numeric locale of the input, e.g. pt_BR.UTF-8 (default: C)")

	// Source projection
	flags.StringVar(&cfg.Proj4, "proj4", cfg.Proj4, "PROJ descriptor of the source coordinates")
	flags.StringVar(&cfg.SIRGAS2000, "sirgas2000", cfg.SIRGAS2000, "Source is SIRGAS2000 / UTM zone ZONE south")
	flags.StringVar(&cfg.SAD69, "sad69", cfg.SAD69, "Source is SAD69 / UTM zone ZONE south, or ll for geographic")

	// Output
	flags.BoolVar(&cfg.Way, "way", cfg.Way, "Close the document with a way referencing the nodes")
	flags.BoolVar(&cfg.WayEmittedOnly, "way-emitted-only", cfg.WayEmittedOnly, "Leave skipped rows out of the way")
	flags.StringVar(&cfg.Generator, "generator", cfg.Generator, "Generator attribute of the osm element")

	// Input dialect
	flags.StringVarP(&cfg.Delimiter, "delimiter", "d", cfg.Delimiter, `Field delimiter, e.g. ";" or tab (default: sniffed)`)
	flags.StringVar(&cfg.Encoding, "encoding", cfg.Encoding, "Input charset, e.g. windows-1252 (default: UTF-8)")

	// Tags
	flags.StringVarP(&cfg.StyleFile, "style", "S", cfg.StyleFile, "Style YAML file with tag rules")
	flags.StringVar(&cfg.ScriptFile, "script", cfg.ScriptFile, "Lua script defining csv2osm.process_row(tags, node)")
	flags.StringVar(&profileFile, "config", "", "YAML profile with default options; flags override it")

	// Logging and metrics
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output")
	flags.StringVar(&cfg.LogFile, "log-file", "", "Path to log file for persistent logging (JSON format)")
	flags.DurationVar(&cfg.MetricsInterval, "metrics-interval", cfg.MetricsInterval, "Interval for system metrics logging, 0 disables (e.g., 10s, 1m)")
	flags.Int64Var(&cfg.ProgressEvery, "progress-every", cfg.ProgressEvery, "Rows between progress lines in verbose mode, 0 disables")
}

// applyProfile loads the --config profile into cfg and re-applies the
// flags set on the command line so they win over the profile
func applyProfile(flags *pflag.FlagSet) error {
	if profileFile == "" {
		return nil
	}

	explicit := make(map[string]string)
	flags.Visit(func(f *pflag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	if err := cfg.LoadProfile(profileFile); err != nil {
		return err
	}

	for name, value := range explicit {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("failed to re-apply --%s: %w", name, err)
		}
	}

	logger.Get().Debug("Profile loaded", zap.String("profile", profileFile))
	return nil
}

func exitWithError(msg string, err error) {
	log := logger.Get()
	if err != nil {
		log.Error(msg, zap.Error(err))
	} else {
		log.Error(msg)
	}
	logger.Sync()
	os.Exit(1)
}
