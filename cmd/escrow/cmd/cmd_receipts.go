package cmd

import (
	"strconv"

	"github.com/tokenized/milestone-escrow/internal/escrow"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdReceipts = &cobra.Command{
	Use:   "receipts [milestone id]",
	Short: "List the receipts of submitted transactions, for one milestone or all.",
	RunE: func(c *cobra.Command, args []string) error {
		a, err := setup(c)
		if err != nil {
			return err
		}
		defer a.close()

		var list []*escrow.Receipt
		if len(args) > 0 {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return errors.Wrap(err, "milestone id")
			}

			if list, err = a.receipts.List(a.ctx, id); err != nil {
				return err
			}
		} else {
			if list, err = a.receipts.ListAll(a.ctx); err != nil {
				return err
			}
		}

		return dumpJSON(list)
	},
}
