package auth

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// ParseUserID parses the string id carried by claims and identities.
func ParseUserID(id string) (uuid.UUID, error) {
	out, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "user id is not a uuid").
			WithMetadata(map[string]any{
				"id": id,
			})
	}
	return out, nil
}

// DeterministicUserID derives a stable uuid from an email address, used when
// registration opts into hashid identities.
func DeterministicUserID(email string) (uuid.UUID, error) {
	return hashid.NewUUID(email)
}

// HasUserUUID reports whether ParseUserID will succeed for the claims.
func HasUserUUID(claims AuthClaims) bool {
	if claims == nil {
		return false
	}
	_, err := ParseUserID(claims.UserID())
	return err == nil
}
