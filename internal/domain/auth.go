package domain

// Identity is the authenticated caller extracted from a verified token.
// It is immutable for the lifetime of the token that carried it.
type Identity struct {
	UserID string
	Role   Role
}
