package wallet

import (
	"bytes"
	"io"

	"github.com/tokenized/milestone-escrow/pkg/cardano"

	"github.com/pkg/errors"
	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/crypto/openpgp/packet"
)

const armorType = "PGP MESSAGE"

var (
	ErrWrongPassphrase = errors.New("Wrong passphrase")
	ErrMissingKey      = errors.New("Missing key")
)

// EncryptKey returns the key's signing key envelope, symmetrically encrypted with passphrase and
// armored. It is the same format as `gpg --symmetric --armor` of a signing key file.
func EncryptKey(key *cardano.Key, passphrase []byte) ([]byte, error) {
	envelope, err := key.Envelope()
	if err != nil {
		return nil, errors.Wrap(err, "envelope")
	}
	defer zero(envelope)

	var buf bytes.Buffer
	aw, err := armor.Encode(&buf, armorType, nil)
	if err != nil {
		return nil, errors.Wrap(err, "armor")
	}

	w, err := openpgp.SymmetricallyEncrypt(aw, passphrase, &openpgp.FileHints{IsBinary: false},
		&packet.Config{DefaultCipher: packet.CipherAES256})
	if err != nil {
		return nil, errors.Wrap(err, "encrypt")
	}

	if _, err := w.Write(envelope); err != nil {
		return nil, errors.Wrap(err, "write")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "close")
	}
	if err := aw.Close(); err != nil {
		return nil, errors.Wrap(err, "close armor")
	}

	return buf.Bytes(), nil
}

// DecryptKey decrypts an armored or binary OpenPGP message holding a signing key envelope. The
// caller must Zero the returned key.
func DecryptKey(data, passphrase []byte) (*cardano.Key, error) {
	if len(data) == 0 {
		return nil, ErrMissingKey
	}

	var r io.Reader = bytes.NewReader(data)
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN")) {
		block, err := armor.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "armor")
		}
		r = block.Body
	}

	tried := false
	prompt := func(keys []openpgp.Key, symmetric bool) ([]byte, error) {
		if tried || !symmetric {
			return nil, ErrWrongPassphrase
		}
		tried = true
		return passphrase, nil
	}

	md, err := openpgp.ReadMessage(r, nil, prompt, nil)
	if err != nil {
		if errors.Cause(err) == ErrWrongPassphrase {
			return nil, ErrWrongPassphrase
		}
		return nil, errors.Wrap(err, "decrypt")
	}

	plaintext, err := io.ReadAll(md.UnverifiedBody)
	defer zero(plaintext)
	if err != nil {
		return nil, errors.Wrap(err, "read plaintext")
	}

	key, err := cardano.ParseSigningKeyEnvelope(plaintext)
	if err != nil {
		return nil, errors.Wrap(err, "signing key")
	}

	return key, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
