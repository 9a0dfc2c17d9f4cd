package domain

// Identity is the authenticated-user snapshot carried by a token.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// Session is the resolved authentication state for one request.
// IsAdmin stays false until the claim set has actually been inspected;
// callers must treat an unresolved session as not-admin.
type Session struct {
	Identity *Identity
	IsAdmin  bool
}

// Anonymous reports whether there is no signed-in identity.
func (s Session) Anonymous() bool {
	return s.Identity == nil
}
