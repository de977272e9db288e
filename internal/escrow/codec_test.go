package escrow

import (
	"bytes"
	"testing"

	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/plutus"

	"github.com/google/go-cmp/cmp"
)

func testHash(b byte) cardano.Hash28 {
	var h cardano.Hash28
	for i := range h {
		h[i] = b
	}
	return h
}

func TestDatumRoundTrip(t *testing.T) {
	agreements := []JobAgreement{
		{
			Freelancer: testHash(1),
			Client:     testHash(2),
			Milestone:  Milestone{ID: 7, Reward: 5000000},
		},
		{
			Freelancer: testHash(3),
			Client:     testHash(3),
			Milestone: Milestone{ID: 1 << 40, Reward: 1, ApprovedByClient: true,
				ApprovedByFreelancer: true, Paid: true},
		},
	}

	for _, agreement := range agreements {
		b, err := EncodeDatum(agreement)
		if err != nil {
			t.Fatalf("Failed to encode : %s", err)
		}

		decoded, err := DecodeDatum(b)
		if err != nil {
			t.Fatalf("Failed to decode : %s", err)
		}

		if diff := cmp.Diff(*decoded, agreement); diff != "" {
			t.Errorf("Wrong agreement (-got +want):\n%s", diff)
		}

		again, err := EncodeDatum(*decoded)
		if err != nil {
			t.Fatalf("Failed to encode : %s", err)
		}
		if !bytes.Equal(b, again) {
			t.Errorf("Encoding not deterministic : %x != %x", b, again)
		}
	}
}

func TestDatumEncoding(t *testing.T) {
	b, err := EncodeDatum(JobAgreement{Milestone: Milestone{ID: 1, Reward: 2}})
	if err != nil {
		t.Fatalf("Failed to encode : %s", err)
	}

	// Constr 0 is tag 121.
	if b[0] != 0xd8 || b[1] != 0x79 {
		t.Errorf("Wrong constructor tag : %x", b[:2])
	}
}

func TestDecodeDatumErrors(t *testing.T) {
	short := plutus.NewConstr(0, plutus.Bytes(make([]byte, 20)), plutus.Bytes(make([]byte, 28)),
		plutus.NewConstr(0, plutus.NewUintInteger(1), plutus.NewUintInteger(1), plutus.Bool(false),
			plutus.Bool(false), plutus.Bool(false)))
	wrongConstr := plutus.NewConstr(1)
	badBool := plutus.NewConstr(0, plutus.Bytes(make([]byte, 28)), plutus.Bytes(make([]byte, 28)),
		plutus.NewConstr(0, plutus.NewUintInteger(1), plutus.NewUintInteger(1), plutus.NewConstr(2),
			plutus.Bool(false), plutus.Bool(false)))
	missingField := plutus.NewConstr(0, plutus.Bytes(make([]byte, 28)),
		plutus.Bytes(make([]byte, 28)))

	tests := []struct {
		name string
		data plutus.Data
	}{
		{"short hash", short},
		{"wrong constructor", wrongConstr},
		{"bad bool", badBool},
		{"missing field", missingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := plutus.Encode(tt.data)
			if err != nil {
				t.Fatalf("Failed to encode : %s", err)
			}

			_, err = DecodeDatum(b)
			if !IsErrorCode(err, ErrorCodeDecodeError) {
				t.Fatalf("Wrong error : got %v, want %s", err,
					ErrorCodeString(ErrorCodeDecodeError))
			}
		})
	}

	if _, err := DecodeDatum([]byte{0xff, 0x00}); !IsErrorCode(err, ErrorCodeDecodeError) {
		t.Errorf("Wrong error for invalid cbor : %v", err)
	}
}

func TestRedeemerRoundTrip(t *testing.T) {
	redeemers := []Redeemer{
		{Signer: testHash(4), Action: RedeemerApproveMilestone, IsClient: true},
		{Signer: testHash(5), Action: RedeemerRedeemMilestone, IsFreelancer: true},
		{Signer: testHash(6), Action: RedeemerRefund, IsClient: true},
	}

	for _, redeemer := range redeemers {
		t.Run(redeemer.Action.String(), func(t *testing.T) {
			b, err := EncodeRedeemer(redeemer)
			if err != nil {
				t.Fatalf("Failed to encode : %s", err)
			}

			decoded, err := DecodeRedeemer(b)
			if err != nil {
				t.Fatalf("Failed to decode : %s", err)
			}

			if diff := cmp.Diff(*decoded, redeemer); diff != "" {
				t.Errorf("Wrong redeemer (-got +want):\n%s", diff)
			}
		})
	}
}

func TestRedeemerRoleFlags(t *testing.T) {
	if _, err := EncodeRedeemer(Redeemer{Signer: testHash(1), IsClient: true,
		IsFreelancer: true}); !IsErrorCode(err, ErrorCodeDecodeError) {
		t.Errorf("Both roles accepted : %v", err)
	}

	if _, err := EncodeRedeemer(Redeemer{Signer: testHash(1)}); !IsErrorCode(err,
		ErrorCodeDecodeError) {
		t.Errorf("No role accepted : %v", err)
	}

	// Encoded directly so the flags are not checked on the way out.
	b, err := plutus.Encode(RedeemerData(Redeemer{Signer: testHash(1), IsClient: true,
		IsFreelancer: true}))
	if err != nil {
		t.Fatalf("Failed to encode : %s", err)
	}
	if _, err := DecodeRedeemer(b); !IsErrorCode(err, ErrorCodeDecodeError) {
		t.Errorf("Both roles decoded : %v", err)
	}
}

func TestDecodeRedeemerUnknownAction(t *testing.T) {
	b, err := plutus.Encode(plutus.NewConstr(0, plutus.Bytes(testHash(1).Bytes()),
		plutus.NewConstr(3), plutus.Bool(true), plutus.Bool(false)))
	if err != nil {
		t.Fatalf("Failed to encode : %s", err)
	}

	if _, err := DecodeRedeemer(b); !IsErrorCode(err, ErrorCodeDecodeError) {
		t.Fatalf("Wrong error : got %v, want %s", err, ErrorCodeString(ErrorCodeDecodeError))
	}
}

func TestStateOf(t *testing.T) {
	tests := []struct {
		milestone Milestone
		want      State
	}{
		{Milestone{}, StateLocked},
		{Milestone{ApprovedByClient: true}, StatePartiallyApproved},
		{Milestone{ApprovedByFreelancer: true}, StatePartiallyApproved},
		{Milestone{ApprovedByClient: true, ApprovedByFreelancer: true}, StateFullyApproved},
		{Milestone{ApprovedByClient: true, ApprovedByFreelancer: true, Paid: true}, StateRedeemed},
	}

	for _, tt := range tests {
		if got := StateOf(tt.milestone); got != tt.want {
			t.Errorf("Wrong state for %+v : got %s, want %s", tt.milestone, got, tt.want)
		}
	}
}

func TestParseAction(t *testing.T) {
	for _, s := range []string{"approve", "approve_milestone"} {
		action, err := ParseAction(s)
		if err != nil {
			t.Fatalf("Failed to parse %s : %s", s, err)
		}
		if action != ActionApprove {
			t.Errorf("Wrong action : got %s, want %s", action, ActionApprove)
		}
	}

	if _, err := ParseAction("withdraw"); !IsErrorCode(err, ErrorCodeInvalidAction) {
		t.Errorf("Wrong error : got %v, want %s", err, ErrorCodeString(ErrorCodeInvalidAction))
	}
}
