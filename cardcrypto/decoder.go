package cardcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	apperrors "github.com/ospass/ospass-server/internal/errors"
)

// PayloadLength is the exact ciphertext length produced by the card: a 16 byte
// challenge response, the 16 byte card UUID and a 16 byte reserved block.
const PayloadLength = 48

// CardData holds the decrypted fields of a card payload. Both values are
// uppercase hex, 32 characters each.
type CardData struct {
	Response string
	CardUUID string
}

// Decoder decrypts card payloads with the deployment's fixed AES-CBC key and
// IV. It holds no mutable state and is safe for concurrent use.
type Decoder struct {
	key []byte
	iv  []byte
}

// NewDecoder builds a Decoder from hex-encoded key and IV material.
func NewDecoder(secretHex, ivHex string) (*Decoder, error) {
	key, err := hex.DecodeString(secretHex)
	if err != nil {
		return nil, errors.Wrap(err, "[NewDecoder] invalid card secret")
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, errors.Wrap(err, "[NewDecoder] invalid card IV")
	}
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, errors.New("[NewDecoder] card secret must be 16, 24 or 32 bytes")
	}
	if len(iv) != aes.BlockSize {
		return nil, errors.New("[NewDecoder] card IV must be 16 bytes")
	}
	return &Decoder{key: key, iv: iv}, nil
}

// Decode decrypts a raw 48 byte payload and slices out the card fields.
func (d *Decoder) Decode(payload []byte) (*CardData, error) {
	if len(payload) != PayloadLength {
		return nil, apperrors.ErrInvalidPayload
	}

	block, err := aes.NewCipher(d.key)
	if err != nil {
		return nil, errors.Wrap(apperrors.ErrCrypto, err.Error())
	}

	plaintext := make([]byte, PayloadLength)
	cipher.NewCBCDecrypter(block, d.iv).CryptBlocks(plaintext, payload)

	return &CardData{
		Response: strings.ToUpper(hex.EncodeToString(plaintext[:16])),
		CardUUID: strings.ToUpper(hex.EncodeToString(plaintext[16:32])),
	}, nil
}

// DecodeHex accepts the hex string form of a payload (exactly 96 characters).
func (d *Decoder) DecodeHex(payload string) (*CardData, error) {
	if len(payload) != PayloadLength*2 {
		return nil, apperrors.ErrInvalidPayload
	}
	raw, err := hex.DecodeString(payload)
	if err != nil {
		return nil, apperrors.ErrInvalidPayload
	}
	return d.Decode(raw)
}
