package main

import (
	"context"
	"errors"

	"payalias/internal/modkit/module"
	"payalias/internal/services/resolution/domain"
	resolutionmod "payalias/internal/services/resolution/module"

	"github.com/spf13/cobra"
)

var resolveChain string

var resolveCmd = &cobra.Command{
	Use:   "resolve ALIAS",
	Short: "Resolve an alias to its published addresses",
	Example: `  payalias resolve vitalik.eth
  payalias resolve alice@example.com --chain BTC`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		o := resolutionmod.FromConfig(cliDeps().Cfg)
		o.CacheBackend = resolutionmod.CacheMemory
		o.LookupLog = false
		m := resolutionmod.NewWith(cliDeps(), o)
		resolver := module.MustPortsOf[resolutionmod.Ports](m).Resolver

		out, err := resolver.Resolve(ctx, domain.Query{Alias: args[0], Chain: resolveChain})
		if err != nil {
			return err
		}
		if err := printJSON(cmd, out); err != nil {
			return err
		}
		if out.Chosen == nil {
			return errors.New("no address found for " + args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVarP(&resolveChain, "chain", "c", "", "preferred chain, e.g. BTC, ETH, SOL")
}
