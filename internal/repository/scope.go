package repository

import (
	"strings"

	"github.com/templui/linkstash/internal/apperr"
)

const maxOwnerIDLength = 128

// Scope is the owner identity a Repository is bound to. It can only be
// created through NewScope and never changes afterwards.
type Scope struct {
	ownerID string
}

// NewScope validates ownerID and binds it into a Scope.
func NewScope(ownerID string) (Scope, error) {
	if ownerID == "" || strings.TrimSpace(ownerID) != ownerID {
		return Scope{}, apperr.Validation("owner id is required")
	}
	if len(ownerID) > maxOwnerIDLength {
		return Scope{}, apperr.Validation("owner id is too long")
	}
	// Owner ids become object-store path segments.
	if strings.ContainsAny(ownerID, "/\\?#%*") || strings.Contains(ownerID, "..") {
		return Scope{}, apperr.Validation("owner id contains invalid characters")
	}
	return Scope{ownerID: ownerID}, nil
}

// OwnerID returns the bound owner. It is read-only; there is no way to point
// an existing Scope at another owner.
func (s Scope) OwnerID() string {
	return s.ownerID
}

func (s Scope) IsZero() bool {
	return s.ownerID == ""
}

// ObjectPrefix is the object-store prefix all of the owner's objects live under.
func (s Scope) ObjectPrefix() string {
	return "users/" + s.ownerID + "/"
}

// Owns reports whether an object key lives under this scope's prefix.
func (s Scope) Owns(key string) bool {
	return !s.IsZero() && strings.HasPrefix(key, s.ObjectPrefix()) && !strings.Contains(key, "..")
}
