package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/tokenized/milestone-escrow/internal/escrow"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	FlagSign = "sign"
)

var cmdBuild = &cobra.Command{
	Use:     "build <action>",
	Short:   "Build an escrow transaction without submitting it.",
	Long:    "Build an escrow transaction and print its CBOR hex. With --sign the transaction is signed by the wallet key. Nothing is submitted.",
	Example: "escrow build approve --milestone 3 --client addr_test1... --freelancer addr_test1...",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("Missing action")
		}

		action, err := escrow.ParseAction(args[0])
		if err != nil {
			return err
		}

		meta, err := metadataFromFlags(c)
		if err != nil {
			return err
		}

		a, err := setup(c)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.connect(); err != nil {
			return err
		}

		keyName, _ := c.Flags().GetString(FlagKey)
		signer, err := a.signer(keyName)
		if err != nil {
			return errors.Wrap(err, "signer")
		}
		defer signer.Close()

		unsigned, err := a.orchestrator.Build(a.ctx, action, meta, signer)
		if err != nil {
			return err
		}

		raw, err := unsigned.Tx.Bytes()
		if err != nil {
			return errors.Wrap(err, "serialize")
		}

		if sign, _ := c.Flags().GetBool(FlagSign); sign {
			signed, err := a.orchestrator.Sign(a.ctx, unsigned, signer)
			if err != nil {
				return err
			}
			if raw, err = signed.Bytes(); err != nil {
				return errors.Wrap(err, "serialize signed")
			}
		}

		fmt.Printf("TxID     : %s\n", unsigned.Tx.ID)
		fmt.Printf("Fee      : %d\n", unsigned.Tx.Fee)
		fmt.Printf("State    : %s\n", escrow.StateOf(unsigned.Agreement.Milestone))
		if unsigned.PaidTo != nil {
			fmt.Printf("Pays     : %d to %s\n", unsigned.Payment, unsigned.PaidTo)
		}
		fmt.Printf("%s\n", hex.EncodeToString(raw))
		return nil
	},
}

func init() {
	addMetadataFlags(cmdBuild)
	cmdBuild.Flags().Bool(FlagSign, false, "sign with the wallet key")
}
