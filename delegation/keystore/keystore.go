// Package keystore loads EIP-2335 encrypted BLS keystores from the files
// directly inside one directory; subdirectories are not searched
// (spec.md §4.5 item 2 "Encrypted keystore"). Grounded on the shape of
// the teacher's own accounts/keystore package's directory-walking and
// passphrase-resolution idiom — the teacher repo has no keystore package of
// its own to adapt verbatim (op-geth's account model lives entirely in
// accounts/abi and accounts/usbwallet, not accounts/keystore), so the KDF/
// cipher/checksum logic here follows the EIP-2335 standard directly, and the
// error taxonomy folds in bolt-delegations-cli's lighter single-purpose
// KeystoreError variants (ReadFromJSON, KeypairDecryption, UnknownPublicKey).
package keystore

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// Error wraps a keystore-loading failure with the file it happened on,
// folding in bolt-delegations-cli's KeystoreError taxonomy.
type Error struct {
	Path string
	Op   string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("keystore: %s %s: %v", e.Op, e.Path, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func newError(op, path string, err error) *Error { return &Error{Op: op, Path: path, Err: err} }

// file is the on-disk EIP-2335 JSON shape (fields this loader depends on;
// unknown fields are ignored by encoding/json).
type file struct {
	Crypto  cryptoFields `json:"crypto"`
	Pubkey  string       `json:"pubkey"`
	Path    string       `json:"path"`
	UUID    string       `json:"uuid"`
	Version int          `json:"version"`
}

type cryptoFields struct {
	Checksum struct {
		Function string          `json:"function"`
		Params   json.RawMessage `json:"params"`
		Message  string          `json:"message"`
	} `json:"checksum"`
	Cipher struct {
		Function string          `json:"function"`
		Params   struct {
			IV string `json:"iv"`
		} `json:"params"`
		Message string `json:"message"`
	} `json:"cipher"`
	KDF struct {
		Function string          `json:"function"`
		Params   json.RawMessage `json:"params"`
		Message  string          `json:"message"`
	} `json:"kdf"`
}

type scryptParams struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	P     int    `json:"p"`
	R     int    `json:"r"`
	Salt  string `json:"salt"`
}

type pbkdf2Params struct {
	DKLen int    `json:"dklen"`
	C     int    `json:"c"`
	PRF   string `json:"prf"`
	Salt  string `json:"salt"`
}

// PassphraseResolver yields the decryption passphrase for a given keystore
// file's validator pubkey. Spec §4.5 item 2: resolved either from a
// matching per-pubkey secret file in a sibling directory (named by the
// pubkey) or from a single shared passphrase.
type PassphraseResolver interface {
	Resolve(pubkeyHex string) (string, error)
}

// SharedPassphrase resolves every keystore to the same passphrase.
type SharedPassphrase string

func (s SharedPassphrase) Resolve(string) (string, error) { return string(s), nil }

// PerPubkeyDir resolves the passphrase for pubkeyHex from a file of the
// same name (optionally ".txt"-suffixed) in Dir.
type PerPubkeyDir string

func (d PerPubkeyDir) Resolve(pubkeyHex string) (string, error) {
	pubkeyHex = strings.TrimPrefix(strings.ToLower(pubkeyHex), "0x")
	for _, name := range []string{pubkeyHex, pubkeyHex + ".txt"} {
		b, err := os.ReadFile(filepath.Join(string(d), name))
		if err == nil {
			return strings.TrimSpace(string(b)), nil
		}
	}
	return "", fmt.Errorf("keystore: no passphrase file found for pubkey %s in %s", pubkeyHex, string(d))
}

// Decrypted is one recovered secret, tagged with the pubkey the keystore
// file itself claims, pending the caller's own pubkey-derivation check
// (UnknownPublicKey in the folded error taxonomy).
type Decrypted struct {
	Path   string
	Pubkey string
	Secret []byte
}

// Load walks dir for *.json keystore files and decrypts each with the
// passphrase produced by resolver, taking an exclusive advisory lock on
// dir for the duration (mirrors the teacher's directory-scoped account
// manager locking, adapted via gofrs/flock since accounts/keystore itself
// is absent from this tree).
func Load(dir string, resolver PassphraseResolver) ([]Decrypted, error) {
	lock := flock.New(filepath.Join(dir, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, newError("lock", dir, err)
	}
	if !locked {
		return nil, newError("lock", dir, fmt.Errorf("directory is locked by another process"))
	}
	defer lock.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, newError("read_dir", dir, err)
	}

	var out []Decrypted
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		d, err := decryptFile(path, resolver)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func decryptFile(path string, resolver PassphraseResolver) (*Decrypted, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newError("read_json", path, err)
	}

	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, newError("read_json", path, err)
	}
	if _, err := uuid.Parse(f.UUID); err != nil {
		return nil, newError("read_json", path, fmt.Errorf("invalid keystore uuid %q: %w", f.UUID, err))
	}

	passphrase, err := resolver.Resolve(f.Pubkey)
	if err != nil {
		return nil, newError("resolve_passphrase", path, err)
	}

	secret, err := decrypt(f.Crypto, passphrase)
	if err != nil {
		return nil, newError("keypair_decryption", path, err)
	}

	return &Decrypted{Path: path, Pubkey: f.Pubkey, Secret: secret}, nil
}

// decrypt runs the EIP-2335 KDF -> checksum-verify -> AES-128-CTR decrypt
// pipeline.
func decrypt(c cryptoFields, passphrase string) ([]byte, error) {
	decryptionKey, err := deriveKey(c.KDF.Function, c.KDF.Params, passphrase)
	if err != nil {
		return nil, fmt.Errorf("kdf: %w", err)
	}
	if len(decryptionKey) < 32 {
		return nil, fmt.Errorf("derived key too short: %d bytes", len(decryptionKey))
	}

	cipherMessage, err := hex.DecodeString(c.Cipher.Message)
	if err != nil {
		return nil, fmt.Errorf("cipher message: %w", err)
	}

	// Checksum = sha256(decryptionKey[16:32] || cipherMessage), per EIP-2335.
	h := sha256.New()
	h.Write(decryptionKey[16:32])
	h.Write(cipherMessage)
	checksum := h.Sum(nil)

	wantChecksum, err := hex.DecodeString(c.Checksum.Message)
	if err != nil {
		return nil, fmt.Errorf("checksum message: %w", err)
	}
	if !bytes.Equal(checksum, wantChecksum) {
		return nil, fmt.Errorf("invalid passphrase: checksum mismatch")
	}

	if c.Cipher.Function != "aes-128-ctr" {
		return nil, fmt.Errorf("unsupported cipher function %q", c.Cipher.Function)
	}
	iv, err := hex.DecodeString(c.Cipher.Params.IV)
	if err != nil {
		return nil, fmt.Errorf("cipher iv: %w", err)
	}

	block, err := aes.NewCipher(decryptionKey[:16])
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	secret := make([]byte, len(cipherMessage))
	cipher.NewCTR(block, iv).XORKeyStream(secret, cipherMessage)

	return secret, nil
}

func deriveKey(function string, params json.RawMessage, passphrase string) ([]byte, error) {
	salted := []byte(normalizePassphrase(passphrase))

	switch function {
	case "scrypt":
		var p scryptParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		salt, err := hex.DecodeString(p.Salt)
		if err != nil {
			return nil, err
		}
		return scrypt.Key(salted, salt, p.N, p.R, p.P, p.DKLen)
	case "pbkdf2":
		var p pbkdf2Params
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		salt, err := hex.DecodeString(p.Salt)
		if err != nil {
			return nil, err
		}
		return pbkdf2.Key(salted, salt, p.C, p.DKLen, sha256.New), nil
	default:
		return nil, fmt.Errorf("unsupported kdf function %q", function)
	}
}

// normalizePassphrase strips control characters per EIP-2335 §"Password
// Requirements" (NFKD normalization of the full Unicode range is out of
// scope for this loader's expected ASCII-passphrase deployments).
func normalizePassphrase(p string) string {
	var b strings.Builder
	for _, r := range p {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
