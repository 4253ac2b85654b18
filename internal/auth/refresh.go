package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// HashRefreshToken produz o hash SHA-256 base64 armazenado no lugar do token.
// O token bruto nunca é persistido; comparações são sempre hash contra hash.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RefreshRedisKey monta a chave do hash corrente de refresh por usuário.
func RefreshRedisKey(userID string) string {
	return fmt.Sprintf("refresh:%s", userID)
}
