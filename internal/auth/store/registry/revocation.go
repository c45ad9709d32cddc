package registry

import "context"

// RevocationChecker adapts a Registry to the revocation lookup the request
// authentication middleware needs.
type RevocationChecker struct {
	reg Registry
}

func NewRevocationChecker(reg Registry) *RevocationChecker {
	return &RevocationChecker{reg: reg}
}

func (c *RevocationChecker) IsRevoked(ctx context.Context, token string) (bool, error) {
	return c.reg.Exists(ctx, KeyPrefixRevoked+token)
}
