package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// slotsPerEpoch is fixed by the consensus spec; duties are published one
// epoch at a time.
const slotsPerEpoch = 32

// DutiesClient resolves the validator pubkey proposing at a given slot
// from the beacon node's proposer-duties REST endpoint, caching one
// epoch's worth of duties at a time (spec §6 "beacon duties", feeding
// rpc.DutyLookup).
type DutiesClient struct {
	baseURL string
	client  *http.Client

	mu          sync.Mutex
	cachedEpoch uint64
	haveCache   bool
	bySlot      map[uint64][48]byte
}

// NewDutiesClient returns a DutiesClient reading from the given beacon
// node base URL (the REST API root, not the websocket event path).
func NewDutiesClient(baseURL string) *DutiesClient {
	return &DutiesClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

type proposerDutiesResponse struct {
	Data []struct {
		Pubkey string `json:"pubkey"`
		Slot   string `json:"slot"`
	} `json:"data"`
}

// ProposerPubkey returns the BLS pubkey on duty to propose at slot,
// refreshing its epoch's duties from the beacon node on a cache miss.
func (d *DutiesClient) ProposerPubkey(ctx context.Context, slot uint64) ([48]byte, error) {
	epoch := slot / slotsPerEpoch

	d.mu.Lock()
	if d.haveCache && d.cachedEpoch == epoch {
		pubkey, ok := d.bySlot[slot]
		d.mu.Unlock()
		if !ok {
			return [48]byte{}, fmt.Errorf("chain: no proposer duty for slot %d", slot)
		}
		return pubkey, nil
	}
	d.mu.Unlock()

	bySlot, err := d.fetchEpoch(ctx, epoch)
	if err != nil {
		return [48]byte{}, err
	}

	d.mu.Lock()
	d.cachedEpoch = epoch
	d.haveCache = true
	d.bySlot = bySlot
	d.mu.Unlock()

	pubkey, ok := bySlot[slot]
	if !ok {
		return [48]byte{}, fmt.Errorf("chain: no proposer duty for slot %d", slot)
	}
	return pubkey, nil
}

func (d *DutiesClient) fetchEpoch(ctx context.Context, epoch uint64) (map[uint64][48]byte, error) {
	url := fmt.Sprintf("%s/eth/v1/validator/duties/proposer/%s", d.baseURL, strconv.FormatUint(epoch, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: build duties request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chain: fetch proposer duties: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chain: proposer duties: unexpected status %d", resp.StatusCode)
	}

	var decoded proposerDutiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("chain: decode proposer duties: %w", err)
	}

	out := make(map[uint64][48]byte, len(decoded.Data))
	for _, duty := range decoded.Data {
		slot, err := strconv.ParseUint(duty.Slot, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chain: proposer duties: malformed slot %q: %w", duty.Slot, err)
		}
		pubkeyBytes, err := hex.DecodeString(strings.TrimPrefix(duty.Pubkey, "0x"))
		if err != nil || len(pubkeyBytes) != 48 {
			return nil, fmt.Errorf("chain: proposer duties: malformed pubkey %q", duty.Pubkey)
		}
		var pubkey [48]byte
		copy(pubkey[:], pubkeyBytes)
		out[slot] = pubkey
	}
	return out, nil
}
