package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	FlagEnvFile = "env"
)

var (
	buildVersion = "unknown"
	buildDate    = "unknown"
	buildUser    = "unknown"
)

var escrowCmd = &cobra.Command{
	Use:           "escrow",
	Short:         "Milestone Escrow CLI",
	Long:          "Lock, approve, redeem and refund milestone payments held by the job agreement script.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func SetBuild(version, date, user string) {
	buildVersion = version
	buildDate = date
	buildUser = user
}

func Execute() {
	escrowCmd.PersistentFlags().String(FlagEnvFile, ".env", "environment file to load")

	escrowCmd.AddCommand(cmdAddress)
	escrowCmd.AddCommand(cmdCreate)
	escrowCmd.AddCommand(cmdApprove)
	escrowCmd.AddCommand(cmdRedeem)
	escrowCmd.AddCommand(cmdRefund)
	escrowCmd.AddCommand(cmdBuild)
	escrowCmd.AddCommand(cmdStatus)
	escrowCmd.AddCommand(cmdDatum)
	escrowCmd.AddCommand(cmdReceipts)
	escrowCmd.AddCommand(cmdKey)
	escrowCmd.AddCommand(cmdVersion)

	if err := escrowCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

var cmdVersion = &cobra.Command{
	Use:   "version",
	Short: "Print the build version.",
	RunE: func(c *cobra.Command, args []string) error {
		fmt.Printf("%s (%s on %s)\n", buildVersion, buildUser, buildDate)
		return nil
	},
}

func dumpJSON(o interface{}) error {
	js, err := json.MarshalIndent(o, "", "    ")
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", js)
	return nil
}
