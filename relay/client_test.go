package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/bolt-protocol/bolt-sidecar/constraints"
	"github.com/bolt-protocol/bolt-sidecar/primitives"
	"github.com/bolt-protocol/bolt-sidecar/signing"
)

func testSigned() *constraints.Signed {
	msg := &constraints.Message{
		Pubkey: [48]byte{1},
		Slot:   10,
		Top:    true,
		Transactions: []*primitives.Transaction{
			{Nonce: 0, Gas: 21000},
		},
	}
	return &constraints.Signed{Message: msg, Signature: signing.Signature{}}
}

func TestClientSubmitSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != submitPath {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.Submit(context.Background(), testSigned()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestClientSubmitRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.Submit(context.Background(), testSigned()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestClientSubmitFailsAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.Submit(context.Background(), testSigned()); err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != maxAttempts {
		t.Fatalf("expected %d calls, got %d", maxAttempts, calls)
	}
}
