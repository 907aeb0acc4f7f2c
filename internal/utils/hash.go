package utils

import "golang.org/x/crypto/bcrypt"

// Password hashing is only used for staff accounts: customers
// authenticate by call verification and never hold a password.

// HashPassword bcrypt-hashes a staff password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
