package auth

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/rada-network/launchpad/internal/user"
	"github.com/sirupsen/logrus"
)

// Middleware authenticates wallet-signature bearer tokens and resolves the
// admin capability through an explicit role lookup.
type Middleware struct {
	users       user.Service
	nonceStore  map[string]time.Time
	nonceWindow time.Duration
	mu          sync.Mutex
}

// NewMiddleware creates the auth middleware.
func NewMiddleware(users user.Service) *Middleware {
	return &Middleware{
		users:       users,
		nonceStore:  make(map[string]time.Time),
		nonceWindow: 5 * time.Minute,
	}
}

// RequireAuth verifies the bearer token and sets user_address in the context.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
				"code":  "AUTH_HEADER_MISSING",
			})
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format",
				"code":  "INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		address, err := m.verifySignatureToken(token)
		if err != nil {
			logrus.WithError(err).Warn("Authentication failed")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication failed",
				"code":  "AUTH_FAILED",
			})
			c.Abort()
			return
		}

		c.Set("user_address", strings.ToLower(address))
		c.Next()
	}
}

// RequireAdmin resolves the admin role for the authenticated address. It must
// run after RequireAuth.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		address, exists := c.Get("user_address")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "User not authenticated",
				"code":  "USER_NOT_AUTHENTICATED",
			})
			c.Abort()
			return
		}

		isAdmin, err := m.users.IsAdmin(c.Request.Context(), address.(string))
		if err != nil {
			logrus.WithError(err).Error("Admin role lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "role lookup failed"})
			c.Abort()
			return
		}
		if !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
				"code":  "INSUFFICIENT_PERMISSIONS",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// verifySignatureToken checks a "signature:nonce:timestamp:address" token.
func (m *Middleware) verifySignatureToken(token string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 4 {
		return "", fmt.Errorf("invalid token format")
	}
	signature := parts[0]
	nonce := parts[1]
	timestampStr := parts[2]
	address := parts[3]

	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid address format")
	}
	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid timestamp")
	}

	// 5 minute validity, 60s future grace
	now := time.Now().Unix()
	if now-timestamp > 300 || timestamp > now+60 {
		return "", fmt.Errorf("timestamp out of valid range")
	}

	m.mu.Lock()
	if lastUsed, exists := m.nonceStore[nonce]; exists && time.Since(lastUsed) < m.nonceWindow {
		m.mu.Unlock()
		return "", fmt.Errorf("nonce already used")
	}
	m.mu.Unlock()

	message := fmt.Sprintf("Launchpad Auth:%s:%d", nonce, timestamp)
	if err := verifyEthereumSignature(message, signature, address); err != nil {
		return "", fmt.Errorf("signature verification failed: %w", err)
	}

	m.mu.Lock()
	m.nonceStore[nonce] = time.Now()
	m.cleanupExpiredNonces()
	m.mu.Unlock()

	return address, nil
}

// verifyEthereumSignature recovers the signer of a personal-signed message and
// compares it to the expected address.
func verifyEthereumSignature(message, signature, expectedAddress string) error {
	signature = strings.TrimPrefix(signature, "0x")

	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("invalid signature encoding")
	}
	if len(sigBytes) != 65 {
		return fmt.Errorf("invalid signature length")
	}
	// Normalize the recovery id; wallets emit 27/28.
	if sigBytes[64] >= 27 {
		sigBytes[64] -= 27
	}

	prefixedMessage := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	hash := crypto.Keccak256Hash([]byte(prefixedMessage))

	pubKey, err := crypto.SigToPub(hash.Bytes(), sigBytes)
	if err != nil {
		return fmt.Errorf("failed to recover public key")
	}
	recoveredAddress := crypto.PubkeyToAddress(*pubKey)
	if !strings.EqualFold(recoveredAddress.Hex(), expectedAddress) {
		return fmt.Errorf("signature address mismatch")
	}
	return nil
}

// cleanupExpiredNonces removes stale nonces; callers hold m.mu.
func (m *Middleware) cleanupExpiredNonces() {
	now := time.Now()
	for nonce, timestamp := range m.nonceStore {
		if now.Sub(timestamp) > m.nonceWindow {
			delete(m.nonceStore, nonce)
		}
	}
}

// SecurityHeaders adds standard security headers.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// SecureCORS allows only whitelisted origins.
func SecureCORS(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		for _, allowed := range allowedOrigins {
			if origin == allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
