package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdAddress = &cobra.Command{
	Use:   "address [key name]",
	Short: "Print the script address and the address of a wallet key.",
	RunE: func(c *cobra.Command, args []string) error {
		a, err := setup(c)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.connect(); err != nil {
			return err
		}

		fmt.Printf("Script : %s\n", a.orchestrator.ScriptAddress())

		name := a.config.Wallet.Key
		if len(a.config.Wallet.EncryptedKey) > 0 {
			name = envKeyName
		}
		if len(args) > 0 {
			name = args[0]
		}

		key, err := a.wallet.GetByName(name)
		if err != nil {
			if len(args) > 0 {
				return errors.Wrap(err, name)
			}
			return nil // no default key
		}

		fmt.Printf("Wallet : %s (%s)\n", key.Address(a.net), key.Name)
		return nil
	},
}
