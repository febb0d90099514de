package auth

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, key *ecdsa.PrivateKey, nonce string, timestamp int64) string {
	t.Helper()
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	message := fmt.Sprintf("Launchpad Auth:%s:%d", nonce, timestamp)
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	hash := crypto.Keccak256Hash([]byte(prefixed))

	sig, err := crypto.Sign(hash.Bytes(), key)
	require.NoError(t, err)
	sig[64] += 27 // wallet-style recovery id

	return fmt.Sprintf("0x%s:%s:%d:%s", hex.EncodeToString(sig), nonce, timestamp, address)
}

func newTestRouter(m *Middleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", m.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"address": c.GetString("user_address")})
	})
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_ValidSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	m := NewMiddleware(nil)
	router := newTestRouter(m)

	token := signToken(t, key, "nonce-1", time.Now().Unix())
	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_MissingOrMalformedHeader(t *testing.T) {
	m := NewMiddleware(nil)
	router := newTestRouter(m)

	w := doRequest(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, "Bearer not:enough")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_NonceReplayRejected(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	m := NewMiddleware(nil)
	router := newTestRouter(m)

	token := signToken(t, key, "nonce-replay", time.Now().Unix())
	w := doRequest(router, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_StaleTimestamp(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	m := NewMiddleware(nil)
	router := newTestRouter(m)

	token := signToken(t, key, "nonce-stale", time.Now().Add(-10*time.Minute).Unix())
	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_WrongSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	m := NewMiddleware(nil)
	router := newTestRouter(m)

	// Signed by one key but claiming the other's address.
	nonce := "nonce-wrong"
	timestamp := time.Now().Unix()
	message := fmt.Sprintf("Launchpad Auth:%s:%d", nonce, timestamp)
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	sig, err := crypto.Sign(crypto.Keccak256Hash([]byte(prefixed)).Bytes(), key)
	require.NoError(t, err)
	sig[64] += 27

	token := fmt.Sprintf("0x%s:%s:%d:%s",
		hex.EncodeToString(sig), nonce, timestamp, crypto.PubkeyToAddress(other.PublicKey).Hex())
	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
