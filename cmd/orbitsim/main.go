package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/logging"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/san-kum/orbitsim/internal/viz"
)

// Settings shared by every command. Each is bound to a persistent flag, an
// ORBITSIM_* environment variable and an optional orbitsim.yaml.
const (
	keyDataDir  = "data"
	keyLogLevel = "log-level"
	keyLogDir   = "log-dir"
	keyCatalog  = "catalog"
	keyTheme    = "theme"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "orbitsim",
		Short:         "newtonian n-body orbit simulator",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := readSettings(); err != nil {
				return err
			}
			_, err := logging.Setup(logging.Options{
				Level: viper.GetString(keyLogLevel),
				Dir:   viper.GetString(keyLogDir),
			})
			return err
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String(keyDataDir, ".orbitsim", "data directory for saved runs")
	pf.String(keyLogLevel, "info", "log level: trace, debug, info, warn, error")
	pf.String(keyLogDir, "", "also write simulation.log into this directory")
	pf.String(keyCatalog, "", "body catalog (yaml or json) replacing the built-in one")
	pf.String(keyTheme, viz.ThemeDeepSpace.Name, fmt.Sprintf("color theme %v", viz.ListThemes()))
	_ = viper.BindPFlags(pf)

	rootCmd.AddCommand(
		newRunCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCSVCmd(),
		newExportJSONCmd(),
		newAnalyzeCmd(),
		newCompareCmd(),
		newLyapunovCmd(),
		newPresetsCmd(),
		newMethodsCmd(),
		newCatalogCmd(),
		newVisVivaCmd(),
		newScenarioCmd(),
		newSweepCmd(),
		newMonteCarloCmd(),
	)
	return rootCmd
}

func readSettings() error {
	viper.SetEnvPrefix("ORBITSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("orbitsim")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "orbitsim"))
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read settings: %w", err)
		}
	}
	return nil
}

func openStore() (*storage.Store, error) {
	st := storage.New(viper.GetString(keyDataDir))
	return st, st.Init()
}

func loadCatalog() (*config.Catalog, error) {
	if path := viper.GetString(keyCatalog); path != "" {
		return config.LoadCatalog(path)
	}
	return config.DefaultCatalog(), nil
}

func theme() viz.Theme {
	return viz.GetTheme(viper.GetString(keyTheme))
}

// resolveConfig picks the run config from --config, a preset name, or the
// default preset, in that order.
func resolveConfig(path string, args []string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	if len(args) > 0 {
		cfg, _ := config.FindPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (see: orbitsim presets)", args[0])
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}
