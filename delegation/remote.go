package delegation

import (
	"context"
	"fmt"

	"github.com/bolt-protocol/bolt-sidecar/internal/xlog"
	"github.com/bolt-protocol/bolt-sidecar/signerclient"
	"github.com/bolt-protocol/bolt-sidecar/signing"
)

// RemoteSource produces signed delegation/revocation messages via a
// Dirk-style remote signer (spec.md §4.5 item 3; §4.6 state machine).
// For each enumerated account it attempts Unlock with the ordered
// passphrase list until one succeeds, requests a Sign over (digest,
// domain), then attempts Lock (failure to re-lock is logged, not fatal).
type RemoteSource struct {
	Client      *signerclient.Client
	WalletPaths []string
	Passphrases []string
	Domain      signing.Domain
}

// NewRemoteSource builds a RemoteSource over a connected signer client.
func NewRemoteSource(client *signerclient.Client, walletPaths, passphrases []string, domain signing.Domain) *RemoteSource {
	return &RemoteSource{Client: client, WalletPaths: walletPaths, Passphrases: passphrases, Domain: domain}
}

// Generate enumerates every account under WalletPaths (both singular and
// threshold-distributed, spec §4.5 item 3) and signs one message per
// account.
func (s *RemoteSource) Generate(ctx context.Context, action Action, delegateePubkey [signing.PublicKeySize]byte) ([]*Signed, error) {
	listResp, err := s.Client.ListAccounts(ctx, s.WalletPaths)
	if err != nil {
		return nil, fmt.Errorf("delegation: remote source: %w", err)
	}

	accounts := append(append([]signerclient.Account{}, listResp.Accounts...), listResp.DistributedAccounts...)

	out := make([]*Signed, 0, len(accounts))
	for _, account := range accounts {
		signed, err := s.generateOne(ctx, account, action, delegateePubkey)
		if err != nil {
			return nil, err
		}
		out = append(out, signed)
	}
	return out, nil
}

func (s *RemoteSource) generateOne(ctx context.Context, account signerclient.Account, action Action, delegateePubkey [signing.PublicKeySize]byte) (*Signed, error) {
	unlocked, err := s.tryUnlock(ctx, account.Name)
	if err != nil {
		return nil, fmt.Errorf("delegation: remote source: account %s: %w", account.Name, err)
	}
	if !unlocked {
		return nil, fmt.Errorf("delegation: remote source: account %s: no candidate passphrase succeeded", account.Name)
	}

	defer func() {
		if _, err := s.Client.Lock(ctx, account.Name); err != nil {
			xlog.Warn("failed to re-lock remote signer account", "account", account.Name, "err", err)
		}
	}()

	if len(account.PublicKey) != signing.PublicKeySize {
		return nil, fmt.Errorf("delegation: remote source: account %s: unexpected pubkey length %d", account.Name, len(account.PublicKey))
	}
	var validatorPubkey [signing.PublicKeySize]byte
	copy(validatorPubkey[:], account.PublicKey)

	msg := Message{Action: action, ValidatorPubkey: validatorPubkey, DelegateePubkey: delegateePubkey}
	digest := msg.Digest()

	sigBytes, err := s.Client.Sign(ctx, account.Name, digest, s.Domain)
	if err != nil {
		return nil, fmt.Errorf("delegation: remote source: account %s: %w", account.Name, err)
	}
	sig, err := signing.SignatureFromBytes(sigBytes)
	if err != nil {
		return nil, fmt.Errorf("delegation: remote source: account %s: %w", account.Name, err)
	}

	signed := &Signed{Message: msg, Signature: *sig}

	signingRoot := signing.ComputeSigningRoot(digest, s.Domain)
	if err := signed.Verify(signingRoot); err != nil {
		return nil, fmt.Errorf("delegation: remote source: account %s: %w", account.Name, err)
	}
	return signed, nil
}

// tryUnlock iterates the ordered passphrase list and stops at the first
// one the remote signer accepts. It reports false with a nil error if
// every passphrase is denied, and returns an error only when an Unlock
// call itself fails; generateOne turns a false result into the
// account's failure (spec
// §4.5 "attempt Unlock with the ordered passphrase list until one
// succeeds, else fail-fast for that account").
func (s *RemoteSource) tryUnlock(ctx context.Context, account string) (bool, error) {
	for _, passphrase := range s.Passphrases {
		ok, err := s.Client.Unlock(ctx, account, passphrase)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
