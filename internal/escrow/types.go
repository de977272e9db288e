package escrow

import (
	"fmt"
	"time"

	"github.com/tokenized/milestone-escrow/pkg/cardano"
)

// Action selects the escrow operation to perform.
type Action string

const (
	ActionCreate  Action = "create_milestone"
	ActionApprove Action = "approve_milestone"
	ActionRedeem  Action = "redeem_milestone"
	ActionRefund  Action = "refund_milestone"
)

// ParseAction accepts the full action names and the short forms "create", "approve", "redeem"
// and "refund".
func ParseAction(s string) (Action, error) {
	switch s {
	case string(ActionCreate), "create":
		return ActionCreate, nil
	case string(ActionApprove), "approve":
		return ActionApprove, nil
	case string(ActionRedeem), "redeem":
		return ActionRedeem, nil
	case string(ActionRefund), "refund":
		return ActionRefund, nil
	}
	return "", newErrorf(ErrorCodeInvalidAction, "unknown action %q", s)
}

// SpendsScript returns true for actions that consume the milestone UTXO.
func (a Action) SpendsScript() bool {
	return a == ActionApprove || a == ActionRedeem || a == ActionRefund
}

// Milestone is the on-chain part of a milestone.
type Milestone struct {
	ID                   uint64 `json:"id"`
	Reward               uint64 `json:"reward"` // lovelace
	ApprovedByFreelancer bool   `json:"approved_by_freelancer"`
	ApprovedByClient     bool   `json:"approved_by_client"`
	Paid                 bool   `json:"paid"`
}

// JobAgreement is the datum locked with the milestone's funds.
type JobAgreement struct {
	Freelancer cardano.Hash28 `json:"freelancer"`
	Client     cardano.Hash28 `json:"client"`
	Milestone  Milestone      `json:"milestone"`
}

// RedeemerAction is the script action carried by a redeemer.
type RedeemerAction uint8

const (
	RedeemerApproveMilestone RedeemerAction = 0
	RedeemerRedeemMilestone  RedeemerAction = 1
	RedeemerRefund           RedeemerAction = 2
)

func (a RedeemerAction) String() string {
	switch a {
	case RedeemerApproveMilestone:
		return "ApproveMilestone"
	case RedeemerRedeemMilestone:
		return "RedeemMilestone"
	case RedeemerRefund:
		return "Refund"
	}
	return fmt.Sprintf("RedeemerAction(%d)", uint8(a))
}

// Redeemer is the spending argument for the escrow script. Exactly one of IsClient and
// IsFreelancer is true.
type Redeemer struct {
	Signer       cardano.Hash28 `json:"signer"`
	Action       RedeemerAction `json:"action"`
	IsClient     bool           `json:"is_client"`
	IsFreelancer bool           `json:"is_freelancer"`
}

// State is the lifecycle position of a milestone derived from its datum.
type State string

const (
	StateLocked            State = "LOCKED"
	StatePartiallyApproved State = "PARTIALLY_APPROVED"
	StateFullyApproved     State = "FULLY_APPROVED"
	StateRedeemed          State = "REDEEMED"
	StateRefunded          State = "REFUNDED"
)

// StateOf returns the state of a milestone that still has a UTXO. Redeemed and refunded
// milestones have no UTXO, so only a paid datum reports StateRedeemed.
func StateOf(m Milestone) State {
	switch {
	case m.Paid:
		return StateRedeemed
	case m.ApprovedByClient && m.ApprovedByFreelancer:
		return StateFullyApproved
	case m.ApprovedByClient || m.ApprovedByFreelancer:
		return StatePartiallyApproved
	default:
		return StateLocked
	}
}

// Metadata is what the application knows about a milestone.
type Metadata struct {
	MilestoneID       uint64          `json:"milestone_id"`
	Reward            uint64          `json:"reward"`
	ClientAddress     cardano.Address `json:"client_address"`
	FreelancerAddress cardano.Address `json:"freelancer_address"`
}

// Receipt describes a submitted transaction.
type Receipt struct {
	TxID          cardano.Hash32  `json:"tx_id"`
	Action        Action          `json:"action"`
	MilestoneID   uint64          `json:"milestone_id"`
	Signer        cardano.Hash28  `json:"signer"`
	Reward        uint64          `json:"reward"`
	LockedValue   uint64          `json:"locked_value"` // lovelace at the script after the tx
	PaidTo        string          `json:"paid_to,omitempty"`
	Payment       uint64          `json:"payment"` // lovelace locked by create or paid out
	Fee           uint64          `json:"fee"`
	ScriptAddress cardano.Address `json:"script_address"`
	State         State           `json:"state"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}
