package logger

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("verbose"))
}

func TestWithRequest_KeepsRequestID(t *testing.T) {
	req := httptest.NewRequest("POST", "/analyze", nil)
	req.Header.Set(RequestIDHeader, "abc-123")

	entry := New().WithRequest(req)
	assert.Equal(t, "abc-123", entry.Data["req_id"])
	assert.Equal(t, "POST", entry.Data["method"])
	assert.Equal(t, "/analyze", entry.Data["path"])
}

func TestRequestID_Generated(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	a, b := RequestID(req), RequestID(req)
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestWithError(t *testing.T) {
	l := New()
	assert.Equal(t, "boom", l.WithError(errors.New("boom")).Data["error"])
	assert.NotContains(t, l.WithError(nil).Data, "error")
}
