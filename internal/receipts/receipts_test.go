package receipts

import (
	"context"
	"testing"
	"time"

	"github.com/tokenized/milestone-escrow/internal/escrow"
	"github.com/tokenized/milestone-escrow/internal/platform/db"
	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/storage"
)

var testScriptAddress = cardano.NewEnterpriseAddress(cardano.Blake2b224([]byte("script")), true,
	cardano.TestNet)

func testReceipt(milestoneID uint64, name string, at time.Time) *escrow.Receipt {
	return &escrow.Receipt{
		TxID:          cardano.Blake2b256([]byte(name)),
		Action:        escrow.ActionApprove,
		MilestoneID:   milestoneID,
		Signer:        cardano.Blake2b224([]byte("signer")),
		Reward:        5000000,
		LockedValue:   5000000,
		Fee:           180000,
		ScriptAddress: testScriptAddress,
		State:         escrow.StatePartiallyApproved,
		SubmittedAt:   at.UTC(),
	}
}

func TestSaveList(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(db.New(storage.NewConfig("", "", "", storage.StandaloneBucket,
		t.TempDir())))

	now := time.Now()
	later := testReceipt(1, "later", now.Add(time.Minute))
	earlier := testReceipt(1, "earlier", now)
	other := testReceipt(2, "other", now.Add(-time.Minute))

	for _, r := range []*escrow.Receipt{later, earlier, other} {
		if err := repo.Save(ctx, r); err != nil {
			t.Fatalf("Failed to save : %s", err)
		}
	}

	list, err := repo.List(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to list : %s", err)
	}
	if len(list) != 2 {
		t.Fatalf("Wrong receipt count : got %d, want %d", len(list), 2)
	}
	if list[0].TxID != earlier.TxID || list[1].TxID != later.TxID {
		t.Errorf("Wrong order : got %s, %s", list[0].TxID, list[1].TxID)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("Failed to list all : %s", err)
	}
	if len(all) != 3 || all[0].TxID != other.TxID {
		t.Errorf("Wrong receipts : %d", len(all))
	}

	got, err := repo.Get(ctx, 1, earlier.TxID)
	if err != nil {
		t.Fatalf("Failed to get : %s", err)
	}
	if !got.ScriptAddress.Equal(testScriptAddress) {
		t.Errorf("Wrong script address : got %s, want %s", got.ScriptAddress, testScriptAddress)
	}
	if got.State != earlier.State || got.Signer != earlier.Signer || got.Fee != earlier.Fee {
		t.Errorf("Wrong receipt : got %+v, want %+v", got, earlier)
	}
	if !got.SubmittedAt.Equal(earlier.SubmittedAt) {
		t.Errorf("Wrong time : got %s, want %s", got.SubmittedAt, earlier.SubmittedAt)
	}

	if _, err := repo.Get(ctx, 3, earlier.TxID); err != ErrNotFound {
		t.Errorf("Wrong error : got %v, want %s", err, ErrNotFound)
	}
}

func TestListPrefix(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(db.New(storage.NewConfig("", "", "", storage.StandaloneBucket,
		t.TempDir())))

	// Milestone 1 must not match milestone 10.
	if err := repo.Save(ctx, testReceipt(10, "ten", time.Now())); err != nil {
		t.Fatalf("Failed to save : %s", err)
	}

	list, err := repo.List(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to list : %s", err)
	}
	if len(list) != 0 {
		t.Errorf("Wrong receipt count : got %d, want %d", len(list), 0)
	}
}
