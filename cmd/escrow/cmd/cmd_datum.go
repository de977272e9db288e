package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tokenized/milestone-escrow/internal/escrow"
	"github.com/tokenized/milestone-escrow/pkg/plutus"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	FlagRedeemer = "redeemer"
	FlagRaw      = "raw"
)

var cmdDatum = &cobra.Command{
	Use:   "datum <hex>",
	Short: "Decode a job agreement datum, or a redeemer, from CBOR hex.",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("Missing hex input")
		}

		data, err := hex.DecodeString(strings.TrimSpace(args[0]))
		if err != nil {
			return errors.Wrap(err, "decode hex")
		}

		if raw, _ := c.Flags().GetBool(FlagRaw); raw {
			d, err := plutus.Decode(data)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", d)
			return nil
		}

		if redeemer, _ := c.Flags().GetBool(FlagRedeemer); redeemer {
			r, err := escrow.DecodeRedeemer(data)
			if err != nil {
				return err
			}
			spew.Dump(r)
			return nil
		}

		agreement, err := escrow.DecodeDatum(data)
		if err != nil {
			return err
		}

		spew.Dump(agreement)
		fmt.Printf("State : %s\n", escrow.StateOf(agreement.Milestone))
		return nil
	},
}

func init() {
	cmdDatum.Flags().Bool(FlagRedeemer, false, "decode a redeemer")
	cmdDatum.Flags().Bool(FlagRaw, false, "print the untyped data")
}
