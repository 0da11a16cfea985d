package ports

import (
	"context"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
)

// CredentialStore is the durable key/value persistence for the current
// credential. Implementations must make Write atomic from the caller's
// point of view: no reader may observe an access token without its sibling
// refresh token.
type CredentialStore interface {
	// Write persists all credential fields together. A nil User removes any
	// previously cached profile.
	Write(ctx context.Context, cred domain.Credential) error

	// Read returns whatever subset of the credential is present. An empty
	// store is not an error: a missing access token is authoritative for
	// "logged out". When the stored profile cannot be decoded, Read returns
	// the token fields it could recover alongside ErrMalformedCredential.
	Read(ctx context.Context) (domain.Credential, error)

	// Clear removes every credential key. Idempotent.
	Clear(ctx context.Context) error
}
