package cmd

import (
	"fmt"
	"strconv"

	"github.com/tokenized/milestone-escrow/internal/escrow"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdStatus = &cobra.Command{
	Use:   "status <milestone id>",
	Short: "Show the on-chain state of a milestone.",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("Missing milestone id")
		}

		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return errors.Wrap(err, "milestone id")
		}

		a, err := setup(c)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.connect(); err != nil {
			return err
		}

		agreement, utxo, err := a.orchestrator.Milestone(a.ctx, id)
		if err != nil {
			if escrow.IsErrorCode(err, escrow.ErrorCodeMilestoneNotFound) {
				fmt.Printf("Milestone %d is not locked. It was never created or is paid.\n", id)
				return nil
			}
			return err
		}

		fmt.Printf("UTXO       : %s\n", utxo.Ref())
		fmt.Printf("Value      : %s\n", utxo.Value)
		fmt.Printf("Client     : %s\n", agreement.Client)
		fmt.Printf("Freelancer : %s\n", agreement.Freelancer)
		fmt.Printf("Reward     : %d\n", agreement.Milestone.Reward)
		fmt.Printf("State      : %s\n", escrow.StateOf(agreement.Milestone))
		return nil
	},
}
