package server

import (
	"golang.org/x/crypto/bcrypt"
)

// checkAccess verifies a lobby access key against the configured bcrypt
// hash. An empty hash disables the check entirely.
func checkAccess(accessKeyHash, accessKey string) bool {
	if accessKeyHash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(accessKeyHash), []byte(accessKey)) == nil
}

// HashAccessKey derives the bcrypt hash to put in the configuration.
func HashAccessKey(accessKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(accessKey), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
