package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payalias/internal/modkit"
	"payalias/internal/platform/config"
	"payalias/internal/platform/logger"

	"github.com/spf13/cobra"
)

var (
	flagTimeout time.Duration
	flagCompact bool
)

var rootCmd = &cobra.Command{
	Use:   "payalias",
	Short: "Resolve payment aliases to crypto addresses and check domain ownership",
	Long: `payalias turns human readable payment aliases (ENS names, Unstoppable domains,
OpenAlias TXT records, PayString ids, Lightning addresses and more) into
cryptocurrency addresses, and verifies that a domain publishes the addresses it
claims over DNS and HTTPS.

The CLI runs the resolver and verifier in process with an in memory cache and
no database. Upstreams are configured with the same environment variables as
the API, for example RESOLUTION_ETH_RPC_URL or VERIFICATION_DOH_URL.`,
	SilenceUsage: true,
}

// Execute runs the root command; main calls it once
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().DurationVarP(&flagTimeout, "timeout", "t", 30*time.Second, "overall deadline for the command")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "print single line JSON")
}

// cliDeps are the deps every subcommand builds modules from
func cliDeps() modkit.Deps {
	return modkit.Deps{Cfg: config.New(), Log: *logger.Get()}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if !flagCompact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
