package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sitescout",
	Short: "Commercial site assessment on an interactive map",
	Long: `SiteScout lets an analyst place candidate locations on a map and receive a
commercial-viability assessment for each of them.

Assessments come from a remote analysis model (Gemini), from OpenStreetMap
amenity counts (Overpass) or, whenever neither is available, from a synthetic
generator. The serve command hosts one interactive session for a browser map.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.String("log-format", "text", "Log format (text, json)")

	// Assessment provider, shared by serve and assess
	flags.String("provider", "gemini", "Remote assessment provider (gemini, overpass, synthetic)")
	flags.String("api-key", "", "Gemini API key (also read from GEMINI_API_KEY or API_KEY)")
	flags.String("model", "", "Gemini model (default: "+defaultModelHint+")")
	flags.String("endpoint", "", "Gemini API base URL")
	flags.String("region", "", "Region named in the analysis prompt")
	flags.Duration("timeout", defaultAssessTimeout, "Timeout per remote assessment (0 disables)")
	flags.Float64("rate-limit", 2, "Max remote assessment requests per second (0 = unlimited)")
	flags.Int("workers", 4, "Number of concurrent assessment workers")
	flags.String("overpass-endpoint", "", "Overpass API interpreter URL")
	flags.Int64("seed", 0, "Seed for synthetic assessments and geometry (0 = random)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"verbose", "verbose"},
		{"log_format", "log-format"},
		{"assess.provider", "provider"},
		{"assess.api_key", "api-key"},
		{"assess.model", "model"},
		{"assess.endpoint", "endpoint"},
		{"assess.region", "region"},
		{"assess.timeout", "timeout"},
		{"assess.rate_limit", "rate-limit"},
		{"assess.workers", "workers"},
		{"overpass.endpoint", "overpass-endpoint"},
		{"seed", "seed"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, flags.Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("SITESCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
