package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// DummyHash returns a valid hash of a random-looking secret at the given
// cost. Comparing against it costs the same as a real comparison.
func DummyHash(cost int) string {
	hashed, err := bcrypt.GenerateFromPassword([]byte("news-portal/no-such-account"), cost)
	if err != nil {
		return ""
	}
	return string(hashed)
}
