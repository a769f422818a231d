package main

import (
	"payalias/internal/core/trust"

	"github.com/spf13/cobra"
)

var scoreProofs trust.Proofs

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Print the trust score for a set of verification proofs",
	Example: `  payalias score --dns --https
  payalias score --dns --dnssec`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b := trust.Explain(scoreProofs)
		return printJSON(cmd, map[string]any{
			"trustScore":      b.Total(),
			"status":          trust.Status(b.Total()),
			"breakdown":       b,
			"recommendations": trust.Recommendations(scoreProofs),
		})
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().BoolVar(&scoreProofs.DNSVerified, "dns", false, "DNS TXT records matched")
	scoreCmd.Flags().BoolVar(&scoreProofs.HTTPSVerified, "https", false, "well-known document matched")
	scoreCmd.Flags().BoolVar(&scoreProofs.DNSSECEnabled, "dnssec", false, "DNS answer was DNSSEC authenticated")
}
