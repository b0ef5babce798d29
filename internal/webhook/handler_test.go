package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/faq-linebot-go/internal/bot"
	"github.com/garyellow/faq-linebot-go/internal/metrics"
)

const testSecret = "test_channel_secret"

type recordingProcessor struct {
	mu   sync.Mutex
	msgs []bot.Message
}

func (p *recordingProcessor) Process(_ context.Context, msg bot.Message) bot.Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return bot.OutcomeAnswered
}

func (p *recordingProcessor) messages() []bot.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bot.Message(nil), p.msgs...)
}

func setupTestHandler(t *testing.T) (*Handler, *recordingProcessor, *metrics.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	proc := &recordingProcessor{}
	m := metrics.New(prometheus.NewRegistry())
	h, err := NewHandler(HandlerConfig{
		ChannelSecret:  testSecret,
		Processor:      proc,
		Metrics:        m,
		ProcessTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return h, proc, m
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func serve(h *Handler, body []byte, signature string) *httptest.ResponseRecorder {
	router := gin.New()
	router.POST("/webhook", h.Handle)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Line-Signature", signature)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNewHandler_Validation(t *testing.T) {
	_, err := NewHandler(HandlerConfig{Processor: &recordingProcessor{}})
	assert.Error(t, err)

	_, err = NewHandler(HandlerConfig{ChannelSecret: testSecret})
	assert.Error(t, err)
}

// TestHandleInvalidSignature tests webhook with invalid signature
func TestHandleInvalidSignature(t *testing.T) {
	h, proc, m := setupTestHandler(t)

	w := serve(h, []byte(`{"destination":"U0","events":[]}`), "invalid_signature")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Body.String())
	require.NoError(t, h.Shutdown(context.Background()))
	assert.Empty(t, proc.messages())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPErrorsTotal.WithLabelValues("invalid_signature", "webhook")))
}

func TestHandleMessageEvent(t *testing.T) {
	h, proc, _ := setupTestHandler(t)

	body := []byte(`{
		"destination": "U0",
		"events": [{
			"type": "message",
			"mode": "active",
			"timestamp": 1700000000000,
			"webhookEventId": "01HEVENT",
			"deliveryContext": {"isRedelivery": false},
			"replyToken": "nHuyWiB7yP5Zw52FIkcQobQuGDXCTA",
			"source": {"type": "group", "groupId": "C-support", "userId": "U1"},
			"message": {"type": "text", "id": "468789577898262530", "quoteToken": "q", "text": "tunnel not working"}
		}, {
			"type": "unfollow",
			"mode": "active",
			"timestamp": 1700000000001,
			"webhookEventId": "01HUNFOLLOW",
			"deliveryContext": {"isRedelivery": false},
			"source": {"type": "user", "userId": "U2"}
		}]
	}`)

	w := serve(h, body, sign(body))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, h.Shutdown(context.Background()))

	msgs := proc.messages()
	require.Len(t, msgs, 1, "unfollow events are not forwarded")
	assert.Equal(t, bot.Message{
		ID:         "468789577898262530",
		AuthorID:   "U1",
		ChannelID:  "C-support",
		Kind:       bot.KindContent,
		Text:       "tunnel not working",
		ReplyToken: "nHuyWiB7yP5Zw52FIkcQobQuGDXCTA",
	}, msgs[0])
}

func TestShutdown_ContextCanceled(t *testing.T) {
	h, _, _ := setupTestHandler(t)

	block := make(chan struct{})
	h.wg.Go(func() { <-block })
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Shutdown(ctx), context.DeadlineExceeded)
}
