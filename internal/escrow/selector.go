package escrow

import (
	"context"
	"strings"

	"github.com/tokenized/milestone-escrow/internal/platform/logger"
	"github.com/tokenized/milestone-escrow/pkg/txbuilder"
)

// DefaultCollateralMinimum is the smallest lovelace amount accepted as collateral.
const DefaultCollateralMinimum = 5000000

// FindMilestoneUTXO returns the script UTXO whose datum holds milestoneID along with the decoded
// agreement. UTXOs without a decodable agreement datum don't match.
func FindMilestoneUTXO(ctx context.Context, utxos []txbuilder.UTXO,
	milestoneID uint64) (txbuilder.UTXO, *JobAgreement, error) {

	var matches []txbuilder.UTXO
	var agreement *JobAgreement
	for _, utxo := range utxos {
		if len(utxo.Datum) == 0 {
			continue
		}

		j, err := DecodeDatum(utxo.Datum)
		if err != nil {
			logger.Verbose(ctx, "Skipping %s : %s", utxo.Ref(), err)
			continue
		}

		if j.Milestone.ID == milestoneID {
			matches = append(matches, utxo)
			agreement = j
		}
	}

	switch len(matches) {
	case 0:
		return txbuilder.UTXO{}, nil, newErrorf(ErrorCodeMilestoneNotFound,
			"milestone %d not in %d script utxos", milestoneID, len(utxos))
	case 1:
		return matches[0], agreement, nil
	}

	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, m.Ref())
	}
	return txbuilder.UTXO{}, nil, newErrorf(ErrorCodeAmbiguousState, "milestone %d in %s",
		milestoneID, strings.Join(refs, ", "))
}

// FindCollateralUTXO returns the first UTXO that holds only lovelace, at least minimum of it,
// and no datum or script.
func FindCollateralUTXO(utxos []txbuilder.UTXO, minimum uint64) (txbuilder.UTXO, error) {
	for _, utxo := range utxos {
		if isCollateral(utxo, minimum) {
			return utxo, nil
		}
	}

	return txbuilder.UTXO{}, newErrorf(ErrorCodeCollateralNotFound,
		"no pure lovelace utxo of at least %d in %d wallet utxos", minimum, len(utxos))
}

func isCollateral(utxo txbuilder.UTXO, minimum uint64) bool {
	return utxo.Value.IsPure() && utxo.Value.Coin >= minimum && len(utxo.Datum) == 0 &&
		utxo.DatumHash == nil && !utxo.HasScript && !utxo.Address.IsScript()
}
