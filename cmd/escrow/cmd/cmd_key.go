package cmd

import (
	"fmt"
	"os"

	"github.com/tokenized/milestone-escrow/pkg/cardano"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdKey = &cobra.Command{
	Use:   "key",
	Short: "Manage the wallet's encrypted signing keys.",
}

var cmdKeyGenerate = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a signing key and store it encrypted with the wallet passphrase.",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("Missing key name")
		}

		key, err := cardano.GenerateKey()
		if err != nil {
			return errors.Wrap(err, "generate")
		}
		defer key.Zero()

		return importKey(c, args[0], key)
	},
}

var cmdKeyImport = &cobra.Command{
	Use:   "import <name> <signing key file>",
	Short: "Import a payment signing key text envelope.",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 2 {
			return errors.New("Missing key name or file")
		}

		data, err := os.ReadFile(args[1])
		if err != nil {
			return errors.Wrap(err, "read key file")
		}

		key, err := cardano.ParseSigningKeyEnvelope(data)
		if err != nil {
			return err
		}
		defer key.Zero()

		return importKey(c, args[0], key)
	},
}

var cmdKeyList = &cobra.Command{
	Use:   "list",
	Short: "List the wallet keys and their addresses.",
	RunE: func(c *cobra.Command, args []string) error {
		a, err := setup(c)
		if err != nil {
			return err
		}
		defer a.close()

		for _, key := range a.wallet.ListAll() {
			fmt.Printf("%-16s %s %s\n", key.Name, key.Hash(), key.Address(a.net))
		}
		return nil
	},
}

func importKey(c *cobra.Command, name string, key *cardano.Key) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.wallet.GetByName(name); err == nil {
		return fmt.Errorf("Key %s already exists", name)
	}

	if len(a.config.Wallet.Passphrase) == 0 {
		return errors.New("Missing wallet passphrase")
	}

	stored, err := a.wallet.Import(name, key, []byte(a.config.Wallet.Passphrase))
	if err != nil {
		return err
	}

	// A key from the environment is not saved.
	if len(a.config.Wallet.EncryptedKey) > 0 {
		if envKey, err := a.wallet.GetByName(envKeyName); err == nil {
			a.wallet.KeyStore.Remove(envKey)
		}
	}

	if err := a.wallet.Save(a.ctx, a.store); err != nil {
		return errors.Wrap(err, "save wallet")
	}

	fmt.Printf("%s %s\n", stored.Hash(), stored.Address(a.net))
	return nil
}

func init() {
	cmdKey.AddCommand(cmdKeyGenerate)
	cmdKey.AddCommand(cmdKeyImport)
	cmdKey.AddCommand(cmdKeyList)
}
