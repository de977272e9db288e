// Package receipts keeps the receipts of submitted escrow transactions so the application can
// audit what was done for each milestone.
package receipts

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tokenized/milestone-escrow/internal/escrow"
	"github.com/tokenized/milestone-escrow/internal/platform/db"
	"github.com/tokenized/milestone-escrow/internal/platform/logger"
	"github.com/tokenized/milestone-escrow/pkg/cardano"

	"github.com/pkg/errors"
)

const (
	storageKey = "receipts"
)

var (
	// ErrNotFound abstracts the standard not found error.
	ErrNotFound = errors.New("Receipt not found")
)

// Repository stores receipts by milestone.
type Repository struct {
	db *db.DB
}

func NewRepository(masterDB *db.DB) *Repository {
	return &Repository{db: masterDB}
}

// Save writes a receipt. A receipt for the same transaction is replaced.
func (r *Repository) Save(ctx context.Context, receipt *escrow.Receipt) error {
	b, err := json.Marshal(receipt)
	if err != nil {
		return errors.Wrap(err, "marshal receipt")
	}

	logger.Verbose(ctx, "Saving receipt for milestone %d : %s", receipt.MilestoneID,
		receipt.TxID)
	return r.db.Put(ctx, buildStoragePath(receipt.MilestoneID, receipt.TxID), b)
}

// Get returns the receipt of a transaction.
func (r *Repository) Get(ctx context.Context, milestoneID uint64,
	txID cardano.Hash32) (*escrow.Receipt, error) {

	b, err := r.db.Fetch(ctx, buildStoragePath(milestoneID, txID))
	if err != nil {
		if err == db.ErrNotFound {
			err = ErrNotFound
		}
		return nil, err
	}

	result := &escrow.Receipt{}
	if err := json.Unmarshal(b, result); err != nil {
		return nil, errors.Wrapf(err, "unmarshal receipt %s", txID)
	}
	return result, nil
}

// List returns the receipts of a milestone oldest first.
func (r *Repository) List(ctx context.Context, milestoneID uint64) ([]*escrow.Receipt, error) {
	return r.search(ctx, fmt.Sprintf("%s/%d/", storageKey, milestoneID))
}

// ListAll returns every receipt oldest first.
func (r *Repository) ListAll(ctx context.Context) ([]*escrow.Receipt, error) {
	return r.search(ctx, storageKey+"/")
}

func (r *Repository) search(ctx context.Context, prefix string) ([]*escrow.Receipt, error) {
	data, err := r.db.Search(ctx, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "search receipts")
	}

	result := make([]*escrow.Receipt, 0, len(data))
	for _, b := range data {
		receipt := &escrow.Receipt{}
		if err := json.Unmarshal(b, receipt); err != nil {
			return nil, errors.Wrap(err, "unmarshal receipt")
		}
		result = append(result, receipt)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SubmittedAt.Before(result[j].SubmittedAt)
	})
	return result, nil
}

// Returns the storage path for a receipt.
func buildStoragePath(milestoneID uint64, txID cardano.Hash32) string {
	return fmt.Sprintf("%s/%d/%s.json", storageKey, milestoneID, txID)
}
