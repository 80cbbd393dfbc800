package config

// CardConfig exposes the fixed symmetric key material shared with the
// encrypting card reader. Both values are hex encoded: a 16/24/32 byte AES key
// and a 16 byte CBC IV.
type CardConfig interface {
	GetCardSecretHex() string
	GetCardIVHex() string
}

type Card struct{}

var _ CardConfig = Card{}

func (Card) GetCardSecretHex() string {
	return GetEnv("OSLABID_SECRET", "000102030405060708090a0b0c0d0e0f")
}

func (Card) GetCardIVHex() string {
	return GetEnv("OSLABID_IV", "101112131415161718191a1b1c1d1e1f")
}
