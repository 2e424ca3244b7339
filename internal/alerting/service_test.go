package alerting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestService_NilReceiver(t *testing.T) {
	var s *Service

	assert.NotPanics(t, func() {
		s.NotifySLABreach(context.Background(), "r1", 2, "NLP")
	})
	assert.NotPanics(t, func() {
		s.NotifyStuckWorkItem(context.Background(), "wi1", "trace1", "MATCHING")
	})
	assert.NotPanics(t, func() {
		s.NotifyPersistentError(context.Background(), "wi1", "trace1", "boom")
	})
}

func TestNewService_RequiresTokenAndChannel(t *testing.T) {
	assert.Nil(t, NewService(ServiceConfig{Token: "", Channel: "C123"}))
	assert.Nil(t, NewService(ServiceConfig{Token: "xoxb-test", Channel: ""}))
	assert.NotNil(t, NewService(ServiceConfig{Token: "xoxb-test", Channel: "C123"}))
}

func TestService_NotifySLABreach_PostsMessage(t *testing.T) {
	var posted bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posted = true
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"ts":"123.456"}`))
	}))
	defer server.Close()

	client := NewClientWithAPIURL("xoxb-test", "C123", server.URL+"/")
	svc := NewServiceWithClient(client)

	svc.NotifySLABreach(context.Background(), "r1", 2, "NLP")
	assert.True(t, posted)
}
