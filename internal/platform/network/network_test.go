package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tokenized/milestone-escrow/pkg/ogmios"
	"github.com/tokenized/milestone-escrow/pkg/submitapi"

	"github.com/pkg/errors"
)

func TestSubmitRouting(t *testing.T) {
	const txID = "8f7d1c6c0c5e0fa1d4c5a7bbf4d54b7a4c2f3f8c6e4e0a4d9c1b2a3f4e5d6c7b"

	submitted := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		submitted++
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`"` + txID + `"`))
	}))
	defer server.Close()

	// Ogmios is not listening, so only the submit API can succeed.
	n := NewNetwork(ogmios.NewConfig("ws://127.0.0.1:1", time.Second),
		&submitapi.Config{URL: server.URL})
	defer n.Close()

	id, err := n.Submit(context.Background(), []byte{0x84})
	if err != nil {
		t.Fatalf("Failed to submit : %s", err)
	}
	if id.String() != txID || submitted != 1 {
		t.Errorf("Wrong submit : id %s, count %d", id, submitted)
	}

	_, err = n.ProtocolParameters(context.Background())
	u, ok := errors.Cause(errors.Wrap(err, "query")).(interface{ Unavailable() bool })
	if !ok || !u.Unavailable() {
		t.Fatalf("Wrong error : got %v, want unavailable", err)
	}
	if !strings.Contains(err.Error(), "unavailable") {
		t.Errorf("Wrong message : %s", err)
	}
}

func TestNoSubmitAPI(t *testing.T) {
	n := NewNetwork(ogmios.NewConfig("ws://127.0.0.1:1", time.Second), &submitapi.Config{})
	if n.SubmitAPI != nil {
		t.Errorf("Submit API created without URL")
	}
}
