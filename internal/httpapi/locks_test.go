package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCallLockNoopWithoutRedis(t *testing.T) {
	r := gin.New()
	r.POST("/webhook", CallLock(nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook?callId=c1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
}

func TestLockCallIDFormFallback(t *testing.T) {
	form := strings.NewReader("callId=c7&CallStatus=completed")
	req := httptest.NewRequest(http.MethodPost, "/webhook", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	if got := lockCallID(c); got != "c7" {
		t.Fatalf("expected form call id, got %q", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhook?callId=c1", strings.NewReader("callId=c7"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	if got := lockCallID(c); got != "c1" {
		t.Fatalf("expected query to win, got %q", got)
	}
}
