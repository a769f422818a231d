package main

import (
	"context"
	"fmt"

	"payalias/internal/modkit/module"
	"payalias/internal/services/verification/domain"
	verifmod "payalias/internal/services/verification/module"

	"github.com/spf13/cobra"
)

var (
	verifyMethod    string
	verifyAddresses map[string]string
)

var verifyCmd = &cobra.Command{
	Use:   "verify DOMAIN",
	Short: "Check that a domain publishes the expected addresses over DNS and HTTPS",
	Example: `  payalias verify pay.example.com -a BTC=bc1q... -a ETH=0xabc...
  payalias verify pay.example.com -m dns -a XMR=4A...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(verifyAddresses) == 0 {
			return fmt.Errorf("at least one --address CHAIN=ADDRESS is required")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		m := verifmod.New(cliDeps())
		svc := module.MustPortsOf[verifmod.Ports](m).Verifier

		res, err := svc.Verify(ctx, domain.VerifyInput{
			Domain:             args[0],
			VerificationMethod: verifyMethod,
			ExpectedAddresses:  verifyAddresses,
		})
		if err != nil {
			return err
		}
		if err := printJSON(cmd, res); err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("verification of %s failed", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&verifyMethod, "method", "m", domain.MethodBoth, "verification method: dns | https | both")
	verifyCmd.Flags().StringToStringVarP(&verifyAddresses, "address", "a", nil, "expected CHAIN=ADDRESS, repeatable")
}
