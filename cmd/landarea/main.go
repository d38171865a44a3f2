// Land Area Core - regional land area converter.
//
// landarea serves the converter panel, REST API, WebSocket sessions and the
// MQTT conversion bridge, and offers one-shot conversions from the shell.
//
//	landarea serve
//	landarea convert 2.5 bigha acre --region banka_bihar
//	landarea db status
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/nerrad567/landarea-core/migrations"

	"github.com/nerrad567/landarea-core/internal/infrastructure/config"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// configEnv names the environment variable read when --config is not given.
const configEnv = "LANDAREA_CONFIG"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	useDB      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "landarea",
		Short:         "Convert land areas between standard and regional units",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			opts.configPath = getConfigPath(opts.configPath)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"config file (default $"+configEnv+" or "+config.DefaultPath+")")
	root.PersistentFlags().BoolVar(&opts.useDB, "use-db", false,
		"load factor tables from the configured database instead of the built-in ones")

	root.AddCommand(serveCmd(opts), convertCmd(opts), unitsCmd(), regionsCmd(opts), dbCmd(opts))
	return root
}

// getConfigPath returns the configuration file path.
// An explicit flag wins, then LANDAREA_CONFIG, then the default path.
func getConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv(configEnv); path != "" {
		return path
	}
	return config.DefaultPath
}
