package cmd

import (
	"fmt"

	"github.com/tokenized/milestone-escrow/internal/escrow"
	"github.com/tokenized/milestone-escrow/pkg/cardano"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	FlagMilestone  = "milestone"
	FlagReward     = "reward"
	FlagClient     = "client"
	FlagFreelancer = "freelancer"
	FlagKey        = "key"
)

var cmdCreate = newActionCommand(escrow.ActionCreate, "create",
	"Lock a milestone reward at the script address.")
var cmdApprove = newActionCommand(escrow.ActionApprove, "approve",
	"Approve a milestone as the client or the freelancer.")
var cmdRedeem = newActionCommand(escrow.ActionRedeem, "redeem",
	"Pay a fully approved milestone to the freelancer.")
var cmdRefund = newActionCommand(escrow.ActionRefund, "refund",
	"Return an unpaid milestone reward to the client.")

func newActionCommand(action escrow.Action, use, short string) *cobra.Command {
	result := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(c *cobra.Command, args []string) error {
			return executeAction(c, action)
		},
	}

	addMetadataFlags(result)
	return result
}

func addMetadataFlags(c *cobra.Command) {
	c.Flags().Uint64(FlagMilestone, 0, "milestone id")
	c.Flags().Uint64(FlagReward, 0, "reward in lovelace")
	c.Flags().String(FlagClient, "", "client payment address")
	c.Flags().String(FlagFreelancer, "", "freelancer payment address")
	c.Flags().String(FlagKey, "", "wallet key name, the configured key by default")
	c.MarkFlagRequired(FlagMilestone)
}

// metadataFromFlags reads the milestone metadata supplied by the application.
func metadataFromFlags(c *cobra.Command) (escrow.Metadata, error) {
	var result escrow.Metadata

	result.MilestoneID, _ = c.Flags().GetUint64(FlagMilestone)
	result.Reward, _ = c.Flags().GetUint64(FlagReward)

	for flag, address := range map[string]*cardano.Address{
		FlagClient:     &result.ClientAddress,
		FlagFreelancer: &result.FreelancerAddress,
	} {
		s, _ := c.Flags().GetString(flag)
		if len(s) == 0 {
			continue
		}

		decoded, err := cardano.DecodeAddress(s)
		if err != nil {
			return result, errors.Wrapf(err, "%s address", flag)
		}
		*address = decoded
	}

	return result, nil
}

func executeAction(c *cobra.Command, action escrow.Action) error {
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

	receipt, err := a.orchestrator.Execute(a.ctx, action, meta, signer)
	if err != nil {
		if code := escrow.ErrorCode(err); code != 0 {
			return fmt.Errorf("%s failed (%s) : %s", action, escrow.ErrorCodeString(code), err)
		}
		return errors.Wrapf(err, "%s", action)
	}

	return dumpJSON(receipt)
}
