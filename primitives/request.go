package primitives

import (
	"encoding/json"
	"fmt"
)

// InclusionRequest is the payload of a `bolt_requestInclusion` call: a slot
// and the list of raw signed transactions the caller wants preconfirmed.
type InclusionRequest struct {
	Slot uint64         `json:"slot"`
	Txs  []*Transaction `json:"txs"`

	// TopOfBlock, if set, marks this request's transactions as a
	// top-of-block bundle. Only one such bundle may be admitted per slot
	// (spec §4.4).
	TopOfBlock bool `json:"top_of_block,omitempty"`
}

// UnmarshalJSON decodes `txs` as an array of 0x-prefixed raw transaction
// hex strings, mirroring the wire shape used by the reference commitments
// API (`{"slot": 10, "txs": ["0x02f8..."]}`)
func (r *InclusionRequest) UnmarshalJSON(data []byte) error {
	var wire struct {
		Slot       uint64   `json:"slot"`
		Txs        []string `json:"txs"`
		TopOfBlock bool     `json:"top_of_block"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	txs := make([]*Transaction, 0, len(wire.Txs))
	for i, raw := range wire.Txs {
		tx, err := DecodeTx(raw)
		if err != nil {
			return fmt.Errorf("primitives: decoding tx %d: %w", i, err)
		}
		txs = append(txs, tx)
	}
	r.Slot = wire.Slot
	r.Txs = txs
	r.TopOfBlock = wire.TopOfBlock
	return nil
}

func (r *InclusionRequest) MarshalJSON() ([]byte, error) {
	wire := struct {
		Slot       uint64   `json:"slot"`
		Txs        []string `json:"txs"`
		TopOfBlock bool     `json:"top_of_block,omitempty"`
	}{Slot: r.Slot, TopOfBlock: r.TopOfBlock}
	wire.Txs = make([]string, len(r.Txs))
	for i, tx := range r.Txs {
		wire.Txs[i] = "0x" + fmt.Sprintf("%x", tx.EnvelopeEncoded())
	}
	return json.Marshal(wire)
}

// Senders returns the recovered sender of each transaction, in order.
func (r *InclusionRequest) Senders() ([]Address, error) {
	out := make([]Address, len(r.Txs))
	for i, tx := range r.Txs {
		addr, err := tx.Sender()
		if err != nil {
			return nil, fmt.Errorf("primitives: recovering sender for tx %d: %w", i, err)
		}
		out[i] = addr
	}
	return out, nil
}

// TotalGasLimit sums the gas limit of every transaction in the request.
func (r *InclusionRequest) TotalGasLimit() uint64 {
	var total uint64
	for _, tx := range r.Txs {
		total += tx.Gas
	}
	return total
}

// DedupKey identifies a request for duplicate detection: the tuple of each
// (sender, nonce, slot), keyed additionally by the raw transaction hash
// (spec §3).
type DedupKey struct {
	Sender Address
	Nonce  uint64
	Slot   uint64
}

// DedupKeys returns one DedupKey per transaction in the request, alongside
// the transaction's raw hash for the secondary dedup index.
func (r *InclusionRequest) DedupKeys() ([]DedupKey, []Hash, error) {
	senders, err := r.Senders()
	if err != nil {
		return nil, nil, err
	}
	keys := make([]DedupKey, len(r.Txs))
	hashes := make([]Hash, len(r.Txs))
	for i, tx := range r.Txs {
		keys[i] = DedupKey{Sender: senders[i], Nonce: tx.Nonce, Slot: r.Slot}
		hashes[i] = tx.Hash()
	}
	return keys, hashes, nil
}
