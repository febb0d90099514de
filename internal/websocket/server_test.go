package websocket

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckOrigin_RestrictsToAllowedList(t *testing.T) {
	s := NewServer([]string{"https://app.example.com", "http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/ws/pools", nil)
	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, s.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, s.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "https://other.example.com")
	assert.False(t, s.upgrader.CheckOrigin(req))

	// Non-browser clients send no Origin header and are not subject to the
	// browser same-origin policy.
	req.Header.Del("Origin")
	assert.True(t, s.upgrader.CheckOrigin(req))
}
