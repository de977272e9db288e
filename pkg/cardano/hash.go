package cardano

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	// Hash28Size is the size of key hashes and script hashes (blake2b-224).
	Hash28Size = 28

	// Hash32Size is the size of transaction ids and data hashes (blake2b-256).
	Hash32Size = 32
)

var ErrBadHashLength = errors.New("Hash has invalid length")

// Hash28 is a blake2b-224 hash. Payment credentials, policy ids and script hashes are Hash28.
type Hash28 [Hash28Size]byte

func NewHash28(b []byte) (*Hash28, error) {
	if len(b) != Hash28Size {
		return nil, errors.Wrapf(ErrBadHashLength, "got %d, want %d", len(b), Hash28Size)
	}
	result := Hash28{}
	copy(result[:], b)
	return &result, nil
}

// NewHash28FromStr parses hex text.
func NewHash28FromStr(s string) (*Hash28, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "hex")
	}
	return NewHash28(b)
}

// Bytes returns the data for the hash.
func (h Hash28) Bytes() []byte {
	return h[:]
}

// Equal returns true if the parameter has the same value.
func (h Hash28) Equal(o Hash28) bool {
	return bytes.Equal(h[:], o[:])
}

func (h Hash28) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalJSON converts to json.
func (h Hash28) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("\"%x\"", h[:])), nil
}

// UnmarshalJSON converts from json.
func (h *Hash28) UnmarshalJSON(data []byte) error {
	if len(data) != 2*Hash28Size+2 {
		return fmt.Errorf("Wrong size hex data for Hash28 : %d", len(data)-2)
	}

	_, err := hex.Decode(h[:], data[1:len(data)-1])
	return err
}

// Hash32 is a blake2b-256 hash. Transaction ids and script data hashes are Hash32.
type Hash32 [Hash32Size]byte

func NewHash32(b []byte) (*Hash32, error) {
	if len(b) != Hash32Size {
		return nil, errors.Wrapf(ErrBadHashLength, "got %d, want %d", len(b), Hash32Size)
	}
	result := Hash32{}
	copy(result[:], b)
	return &result, nil
}

// NewHash32FromStr parses hex text.
func NewHash32FromStr(s string) (*Hash32, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "hex")
	}
	return NewHash32(b)
}

// Bytes returns the data for the hash.
func (h Hash32) Bytes() []byte {
	return h[:]
}

// Equal returns true if the parameter has the same value.
func (h Hash32) Equal(o Hash32) bool {
	return bytes.Equal(h[:], o[:])
}

func (h Hash32) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalJSON converts to json.
func (h Hash32) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("\"%x\"", h[:])), nil
}

// UnmarshalJSON converts from json.
func (h *Hash32) UnmarshalJSON(data []byte) error {
	if len(data) != 2*Hash32Size+2 {
		return fmt.Errorf("Wrong size hex data for Hash32 : %d", len(data)-2)
	}

	_, err := hex.Decode(h[:], data[1:len(data)-1])
	return err
}

// Blake2b224 returns the 28 byte blake2b digest of data.
func Blake2b224(data []byte) Hash28 {
	// New only fails for bad sizes or keys.
	h, _ := blake2b.New(Hash28Size, nil)
	h.Write(data)

	var result Hash28
	copy(result[:], h.Sum(nil))
	return result
}

// Blake2b256 returns the 32 byte blake2b digest of data.
func Blake2b256(data []byte) Hash32 {
	return Hash32(blake2b.Sum256(data))
}
