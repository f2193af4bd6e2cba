package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), normalizeCost(cost))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// NewDummyHash returns a hash of a fixed throwaway password at cost. Comparing
// against it when no credential row exists makes a login for an unknown email
// cost the same as one with a wrong password, as long as cost matches the
// cost stored hashes are created with.
func NewDummyHash(cost int) []byte {
	b, err := bcrypt.GenerateFromPassword([]byte("portfolio-dummy-password"), normalizeCost(cost))
	if err != nil {
		return nil
	}
	return b
}

// BurnPasswordCheck performs a comparison against dummy whose result is
// discarded.
func BurnPasswordCheck(dummy []byte, plain string) {
	_ = bcrypt.CompareHashAndPassword(dummy, []byte(plain))
}

func normalizeCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}
