package token

// Domain selects the trust domain a token belongs to. Web-portal tokens and
// app tokens are signed with distinct key material so a credential minted for
// one surface can never be replayed against the other.
type Domain string

const (
	// DomainWeb covers tokens handed to third-party services via the
	// authorization-code exchange.
	DomainWeb Domain = "web"

	// DomainApp covers tokens issued to the companion app after a password
	// or card login.
	DomainApp Domain = "app"
)

// Keyring holds the signers for one trust domain: access and refresh tokens
// never share a secret.
type Keyring struct {
	Access  Signer
	Refresh Signer
}
