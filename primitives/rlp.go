package primitives

import (
	"errors"
	"math/big"
)

// rlpReader is a minimal recursive-length-prefix decoder, scoped to what's
// needed to parse pooled Ethereum transaction envelopes. It does not
// decode into arbitrary structs; the only RLP the sidecar produces is the
// unsigned signing payload, via the encoding helpers at the end of this
// file.
type rlpReader struct {
	data []byte
	pos  int
}

var (
	errRLPTooShort    = errors.New("rlp: input too short")
	errRLPBadLength   = errors.New("rlp: invalid length prefix")
	errRLPNotAList    = errors.New("rlp: expected list")
	errRLPNotAString  = errors.New("rlp: expected string")
	errRLPTrailingFmt = errors.New("rlp: trailing bytes after list")
)

func newRLPReader(b []byte) *rlpReader {
	return &rlpReader{data: b}
}

func (r *rlpReader) remaining() int {
	return len(r.data) - r.pos
}

// readHeader reads the next RLP header, returning whether it's a list, the
// payload length, and the offset of the payload within r.data.
func (r *rlpReader) readHeader() (isList bool, size int, payloadStart int, err error) {
	if r.remaining() <= 0 {
		return false, 0, 0, errRLPTooShort
	}
	b0 := r.data[r.pos]
	switch {
	case b0 < 0x80:
		return false, 1, r.pos, nil
	case b0 < 0xb8:
		size = int(b0 - 0x80)
		payloadStart = r.pos + 1
		if payloadStart+size > len(r.data) {
			return false, 0, 0, errRLPTooShort
		}
		return false, size, payloadStart, nil
	case b0 < 0xc0:
		lenOfLen := int(b0 - 0xb7)
		if r.pos+1+lenOfLen > len(r.data) {
			return false, 0, 0, errRLPTooShort
		}
		size = int(beUint(r.data[r.pos+1 : r.pos+1+lenOfLen]))
		payloadStart = r.pos + 1 + lenOfLen
		if payloadStart+size > len(r.data) {
			return false, 0, 0, errRLPTooShort
		}
		return false, size, payloadStart, nil
	case b0 < 0xf8:
		size = int(b0 - 0xc0)
		payloadStart = r.pos + 1
		if payloadStart+size > len(r.data) {
			return false, 0, 0, errRLPTooShort
		}
		return true, size, payloadStart, nil
	default:
		lenOfLen := int(b0 - 0xf7)
		if r.pos+1+lenOfLen > len(r.data) {
			return false, 0, 0, errRLPTooShort
		}
		size = int(beUint(r.data[r.pos+1 : r.pos+1+lenOfLen]))
		payloadStart = r.pos + 1 + lenOfLen
		if payloadStart+size > len(r.data) {
			return false, 0, 0, errRLPTooShort
		}
		return true, size, payloadStart, nil
	}
}

func beUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// enterList descends into the next list item, returning a reader scoped to
// its payload and advancing the parent past it.
func (r *rlpReader) enterList() (*rlpReader, error) {
	isList, size, start, err := r.readHeader()
	if err != nil {
		return nil, err
	}
	if !isList {
		return nil, errRLPNotAList
	}
	r.pos = start + size
	return &rlpReader{data: r.data[start : start+size]}, nil
}

// readBytes reads the next string item as raw bytes.
func (r *rlpReader) readBytes() ([]byte, error) {
	isList, size, start, err := r.readHeader()
	if err != nil {
		return nil, err
	}
	if isList {
		return nil, errRLPNotAString
	}
	r.pos = start + size
	return r.data[start : start+size], nil
}

func (r *rlpReader) readUint64() (uint64, error) {
	b, err := r.readBytes()
	if err != nil {
		return 0, err
	}
	return beUint(b), nil
}

func (r *rlpReader) readBigInt() (*big.Int, error) {
	b, err := r.readBytes()
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

// readRawList reads a nested list and returns the raw byte slices of each
// top-level item within it, without interpreting them further. Used for
// blob versioned-hash arrays, which this sidecar doesn't need to inspect
// beyond counting/forwarding.
func (r *rlpReader) readRawList() ([][]byte, error) {
	sub, err := r.enterList()
	if err != nil {
		return nil, err
	}
	var items [][]byte
	for sub.remaining() > 0 {
		isList, size, start, err := sub.readHeader()
		if err != nil {
			return nil, err
		}
		end := start + size
		if isList {
			items = append(items, sub.data[sub.pos:end])
		} else {
			items = append(items, sub.data[start:end])
		}
		sub.pos = end
	}
	return items, nil
}

func (r *rlpReader) atEnd() bool {
	return r.remaining() == 0
}

// readRawItem returns the exact encoded bytes (header included) of the next
// item, without interpreting it, and advances past it. Used to carry
// access-list / blob-hash sub-structures through unmodified so that
// re-deriving a signing payload reproduces the original encoding exactly.
func (r *rlpReader) readRawItem() ([]byte, error) {
	_, size, start, err := r.readHeader()
	if err != nil {
		return nil, err
	}
	end := start + size
	raw := r.data[r.pos:end]
	r.pos = end
	return raw, nil
}

// --- encoding side, used only to reconstruct the unsigned signing payload ---

func rlpEncodeHeader(listOffset byte, size int) []byte {
	if size < 56 {
		return []byte{listOffset + byte(size)}
	}
	lb := bigEndianMinimal(uint64(size))
	return append([]byte{listOffset + 55 + byte(len(lb))}, lb...)
}

func rlpEncodeBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return []byte{b[0]}
	}
	return append(rlpEncodeHeader(0x80, len(b)), b...)
}

func rlpEncodeList(items ...[]byte) []byte {
	var payload []byte
	for _, it := range items {
		payload = append(payload, it...)
	}
	return append(rlpEncodeHeader(0xc0, len(payload)), payload...)
}

func rlpEncodeUint64(v uint64) []byte {
	if v == 0 {
		return rlpEncodeBytes(nil)
	}
	return rlpEncodeBytes(bigEndianMinimal(v))
}

func rlpEncodeBigInt(v *big.Int) []byte {
	if v == nil || v.Sign() == 0 {
		return rlpEncodeBytes(nil)
	}
	return rlpEncodeBytes(v.Bytes())
}

func bigEndianMinimal(v uint64) []byte {
	if v == 0 {
		return nil
	}
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	i := 0
	for i < 8 && buf[i] == 0 {
		i++
	}
	return buf[i:]
}
