package escrow

import (
	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/plutus"

	"github.com/pkg/errors"
)

// Constructor table of the escrow script's data types. Every type has a single constructor
// except RedeemerAction.
const (
	constrJobAgreement = 0
	constrMilestone    = 0
	constrRedeemer     = 0

	jobAgreementFields = 3
	milestoneFields    = 5
	redeemerFields     = 4
)

// DatumData returns the on-chain data form of an agreement.
func DatumData(j JobAgreement) plutus.Data {
	m := j.Milestone
	return plutus.NewConstr(constrJobAgreement,
		plutus.Bytes(j.Freelancer.Bytes()),
		plutus.Bytes(j.Client.Bytes()),
		plutus.NewConstr(constrMilestone,
			plutus.NewUintInteger(m.ID),
			plutus.NewUintInteger(m.Reward),
			plutus.Bool(m.ApprovedByFreelancer),
			plutus.Bool(m.ApprovedByClient),
			plutus.Bool(m.Paid),
		),
	)
}

// EncodeDatum returns the CBOR of the agreement datum.
func EncodeDatum(j JobAgreement) ([]byte, error) {
	return plutus.Encode(DatumData(j))
}

// DecodeDatum parses an agreement datum. Any mismatch with the constructor table is a
// DecodeError.
func DecodeDatum(b []byte) (*JobAgreement, error) {
	d, err := plutus.Decode(b)
	if err != nil {
		return nil, decodeError(err, "datum")
	}

	j, err := datumFromData(d)
	if err != nil {
		return nil, decodeError(err, "datum")
	}
	return j, nil
}

func datumFromData(d plutus.Data) (*JobAgreement, error) {
	fields, err := plutus.ExpectConstr(d, constrJobAgreement, jobAgreementFields)
	if err != nil {
		return nil, errors.Wrap(err, "job agreement")
	}

	var result JobAgreement
	if err := readHash(fields[0], &result.Freelancer); err != nil {
		return nil, errors.Wrap(err, "freelancer")
	}
	if err := readHash(fields[1], &result.Client); err != nil {
		return nil, errors.Wrap(err, "client")
	}

	mfields, err := plutus.ExpectConstr(fields[2], constrMilestone, milestoneFields)
	if err != nil {
		return nil, errors.Wrap(err, "milestone")
	}

	m := &result.Milestone
	if m.ID, err = plutus.ExpectUint(mfields[0]); err != nil {
		return nil, errors.Wrap(err, "milestone id")
	}
	if m.Reward, err = plutus.ExpectUint(mfields[1]); err != nil {
		return nil, errors.Wrap(err, "reward")
	}
	if m.ApprovedByFreelancer, err = plutus.ExpectBool(mfields[2]); err != nil {
		return nil, errors.Wrap(err, "approved by freelancer")
	}
	if m.ApprovedByClient, err = plutus.ExpectBool(mfields[3]); err != nil {
		return nil, errors.Wrap(err, "approved by client")
	}
	if m.Paid, err = plutus.ExpectBool(mfields[4]); err != nil {
		return nil, errors.Wrap(err, "paid")
	}

	return &result, nil
}

// RedeemerData returns the on-chain data form of a redeemer.
func RedeemerData(r Redeemer) plutus.Data {
	return plutus.NewConstr(constrRedeemer,
		plutus.Bytes(r.Signer.Bytes()),
		plutus.NewConstr(uint64(r.Action)),
		plutus.Bool(r.IsClient),
		plutus.Bool(r.IsFreelancer),
	)
}

// EncodeRedeemer returns the CBOR of the redeemer. It fails unless exactly one role flag is set.
func EncodeRedeemer(r Redeemer) ([]byte, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	return plutus.Encode(RedeemerData(r))
}

// DecodeRedeemer parses a redeemer.
func DecodeRedeemer(b []byte) (*Redeemer, error) {
	d, err := plutus.Decode(b)
	if err != nil {
		return nil, decodeError(err, "redeemer")
	}

	fields, err := plutus.ExpectConstr(d, constrRedeemer, redeemerFields)
	if err != nil {
		return nil, decodeError(err, "redeemer")
	}

	var result Redeemer
	if err := readHash(fields[0], &result.Signer); err != nil {
		return nil, decodeError(err, "redeemer signer")
	}

	action, ok := fields[1].(plutus.Constr)
	if !ok || action.Index > uint64(RedeemerRefund) || len(action.Fields) != 0 {
		return nil, newErrorf(ErrorCodeDecodeError, "redeemer action %s", fields[1])
	}
	result.Action = RedeemerAction(action.Index)

	if result.IsClient, err = plutus.ExpectBool(fields[2]); err != nil {
		return nil, decodeError(err, "redeemer is client")
	}
	if result.IsFreelancer, err = plutus.ExpectBool(fields[3]); err != nil {
		return nil, decodeError(err, "redeemer is freelancer")
	}

	if err := result.validate(); err != nil {
		return nil, err
	}

	return &result, nil
}

func (r Redeemer) validate() error {
	if r.IsClient == r.IsFreelancer {
		return newErrorf(ErrorCodeDecodeError, "redeemer role flags client %t, freelancer %t",
			r.IsClient, r.IsFreelancer)
	}
	if r.Action > RedeemerRefund {
		return newErrorf(ErrorCodeDecodeError, "redeemer action %d", r.Action)
	}
	return nil
}

func readHash(d plutus.Data, hash *cardano.Hash28) error {
	b, err := plutus.ExpectBytes(d, cardano.Hash28Size)
	if err != nil {
		return err
	}
	copy(hash[:], b)
	return nil
}

func decodeError(err error, what string) error {
	return newErrorf(ErrorCodeDecodeError, "%s : %s", what, err)
}
