package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/bolt-protocol/bolt-sidecar/constraints"
	"github.com/bolt-protocol/bolt-sidecar/internal/xlog"
	"github.com/bolt-protocol/bolt-sidecar/metrics"
	"github.com/bolt-protocol/bolt-sidecar/primitives"
	"github.com/bolt-protocol/bolt-sidecar/rpcerr"
	"github.com/bolt-protocol/bolt-sidecar/statecache"
	"github.com/bolt-protocol/bolt-sidecar/validation"
)

// requestTimeout is the hard upper bound on a single RPC call (spec
// §4.7).
const requestTimeout = 6 * time.Second

// maxRequestBytes caps the request body read; the sidecar only ever
// expects small JSON-RPC envelopes carrying a handful of signed
// transactions.
const maxRequestBytes = 10 << 20

// Server is the sidecar's JSON-RPC 2.0 HTTP front-end (spec §4.7). It
// authenticates callers, enforces the per-request timeout and
// deduplication, and wires validated requests through to the constraint
// engine.
type Server struct {
	Version   string
	Validator *validation.Validator
	Cache     *statecache.Cache
	// Engines holds one constraint engine per delegatee pubkey this
	// process has signing authority for (spec §4.5); Duties resolves
	// which one is on duty for a given slot.
	Engines map[[48]byte]*constraints.Engine
	Duties  DutyLookup

	proposers map[primitives.Address]struct{}
	dedup     *dedupTracker
	gas       *slotGasTracker
}

// New returns a Server authenticating callers against proposerAddresses.
func New(version string, v *validation.Validator, cache *statecache.Cache, engines map[[48]byte]*constraints.Engine, duties DutyLookup, proposerAddresses []primitives.Address) *Server {
	proposers := make(map[primitives.Address]struct{}, len(proposerAddresses))
	for _, a := range proposerAddresses {
		proposers[a] = struct{}{}
	}
	return &Server{
		Version:   version,
		Validator: v,
		Cache:     cache,
		Engines:   engines,
		Duties:    duties,
		proposers: proposers,
		dedup:     newDedupTracker(),
		gas:       newSlotGasTracker(),
	}
}

// engineForSlot resolves the proposer on duty for slot and returns the
// engine holding that proposer's delegatee key (spec §6 "no available
// pubkey for slot", code -32008).
func (s *Server) engineForSlot(slot uint64) (*constraints.Engine, *rpcerr.Error) {
	pubkey, err := s.Duties(slot)
	if err != nil {
		return nil, rpcerr.Internal(err)
	}
	engine, ok := s.Engines[pubkey]
	if !ok {
		return nil, rpcerr.ErrNoAvailablePubkeyForSlot
	}
	return engine, nil
}

// AdvanceSlot prunes the deduplication window and the per-slot
// preconfirmed-gas totals around the new head slot (spec §4.7 "within
// the active slot window").
func (s *Server) AdvanceSlot(slot uint64) {
	s.dedup.Advance(slot)
	s.gas.Advance(slot)
}

// Handler returns the CORS-wrapped HTTP handler to mount at the RPC
// listen address.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost},
		AllowedHeaders: []string{"content-type", signatureHeader},
	})
	return c.Handler(http.HandlerFunc(s.serveHTTP))
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if ct := r.Header.Get("content-type"); ct != "" && ct != "application/json" {
		writeResponse(w, errorResponse(nil, int(rpcerr.CodeInvalidRequest), "content-type must be application/json"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil || len(body) > maxRequestBytes {
		writeResponse(w, errorResponse(nil, int(rpcerr.CodeParseError), "failed to read request body"))
		return
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		writeResponse(w, errorResponse(nil, int(rpcerr.CodeParseError), "invalid json"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, rpcErr := s.dispatch(ctx, r, req)
	if rpcErr != nil {
		metrics.RequestRejectedMeter.Mark(1)
		xlog.Debug("rpc request rejected", "method", req.Method, "code", rpcErr.Code, "err", rpcErr.Message)
		writeResponse(w, errorResponse(req.ID, int(rpcErr.Code), rpcErr.Message))
		return
	}
	writeResponse(w, successResponse(req.ID, result))
}

func (s *Server) dispatch(ctx context.Context, r *http.Request, req request) (any, *rpcerr.Error) {
	switch req.Method {
	case "bolt_getVersion":
		return versionResult{Version: s.Version}, nil
	case "bolt_metadata":
		return s.handleMetadata(), nil
	case "bolt_requestInclusion":
		return s.handleRequestInclusion(ctx, r, req.Params)
	default:
		return nil, rpcerr.ErrUnknownMethod
	}
}

func (s *Server) handleMetadata() metadataResult {
	out := make([]string, 0, len(s.Engines))
	for pk := range s.Engines {
		out = append(out, "0x"+hexEncode(pk[:]))
	}
	return metadataResult{Pubkeys: out}
}

func (s *Server) handleRequestInclusion(ctx context.Context, r *http.Request, rawParams json.RawMessage) (any, *rpcerr.Error) {
	// Authenticate over the canonical request digest before touching any
	// state, per spec §4.7's "parse and signature errors fail the request
	// immediately with no state change" policy: the digest is the
	// keccak256 hash of the exact params bytes received, so the signature
	// covers precisely what gets acted on below.
	digest := primitives.Keccak256(rawParams)
	if rpcErr := s.authenticate(r, digest); rpcErr != nil {
		return nil, rpcErr
	}

	var params primitives.InclusionRequest
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return nil, rpcerr.ErrInvalidRequest
	}
	if len(params.Txs) == 0 {
		return nil, rpcerr.Rejected("empty transaction list")
	}

	start := time.Now()
	defer metrics.ObserveValidationHandleCost(start)

	// Dedup fingerprints are the (sender, nonce, slot) tuple plus each
	// transaction's raw hash (spec §3).
	keys, hashes, err := params.DedupKeys()
	if err != nil {
		return nil, rpcerr.Rejected("could not recover sender: " + err.Error())
	}
	for i, key := range keys {
		if !s.dedup.CheckAndMark(key.Slot, key.Sender, key.Nonce, hashes[i]) {
			metrics.RequestDuplicateMeter.Mark(1)
			return nil, rpcerr.ErrDuplicate
		}
	}

	engine, rpcErr := s.engineForSlot(params.Slot)
	if rpcErr != nil {
		return nil, rpcErr
	}

	// baseGas is the gas already committed to this slot by other,
	// already-admitted requests (spec §3 "preconfirmed_gas[slot]" is a
	// per-slot total shared across every bolt_requestInclusion call
	// targeting that slot, not a value scoped to this single request).
	baseGas := s.gas.Get(params.Slot)
	admittedGas := baseGas

	// Each sender touched by this request gets exactly one Lease, held
	// across every transaction of that sender within the request and
	// across the downstream engine.Build call. Nothing is written back
	// to the cache until the whole request succeeds; any failure below
	// releases every lease still open, leaving the cache exactly as it
	// was before this call (spec §4.4, §4.7, §7 "any failure downstream
	// of the speculative state-cache update triggers a rollback").
	leases := make(map[primitives.Address]*statecache.Lease)
	defer func() {
		for _, lease := range leases {
			lease.Release()
		}
	}()

	for i, tx := range params.Txs {
		txSender := keys[i].Sender

		lease, ok := leases[txSender]
		if !ok {
			var err error
			lease, err = s.Cache.Acquire(ctx, txSender)
			if err != nil {
				return nil, rpcerr.Consensus(err)
			}
			leases[txSender] = lease
		}

		account := lease.State()
		if verr := s.Validator.Validate(tx, account, admittedGas); verr != nil {
			// Validation failures keep the dedup marks taken above
			// intentionally (spec §7), so a retry of the same failing
			// request is cheap; leases are released unmodified by the
			// deferred cleanup.
			return nil, rpcerr.FromValidation(verr)
		}
		account.TransactionCount++
		lease.Update(account)
		admittedGas += tx.Gas
	}

	// engine.Build itself rolls back its speculative top-of-block claim
	// on a sign or submit failure, including a context deadline (spec
	// §4.7 "any speculative state update is rolled back").
	signed, err := engine.Build(ctx, params.Slot, params.TopOfBlock, params.Txs)
	if err != nil {
		// The transactions never reached a relay, so the dedup marks
		// are released too: unlike a validation failure, this is a
		// downstream/infra failure and the same nonces should be
		// retryable (spec §7).
		for i, key := range keys {
			s.dedup.Release(key.Slot, key.Sender, key.Nonce, hashes[i])
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, rpcerr.Internal(err)
		}
		return nil, rpcerr.Rejected(err.Error())
	}

	for addr, lease := range leases {
		lease.Commit()
		delete(leases, addr)
	}
	s.gas.Add(params.Slot, admittedGas-baseGas)

	metrics.RequestAcceptedMeter.Mark(1)
	return requestInclusionResult{Signed: signed}, nil
}

func writeResponse(w http.ResponseWriter, resp response) {
	w.Header().Set("content-type", "application/json")
	if resp.Error != nil {
		w.WriteHeader(http.StatusBadRequest)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func hexEncode(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}
