package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemint/internal/codes"
)

const testSecret = "whsec_test"

// recordingMailer captures outbound messages.
type recordingMailer struct {
	to      []string
	subject []string
	body    []string
	err     error
}

func (m *recordingMailer) Send(ctx context.Context, subject, to, body string) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.subject = append(m.subject, subject)
	m.body = append(m.body, body)
	return nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(h *RazorpayWebhookHandler, body []byte, signature string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/razorpay/webhook", strings.NewReader(string(body)))
	if signature != "" {
		req.Header.Set("X-Razorpay-Signature", signature)
	}
	rec := httptest.NewRecorder()
	_ = h.HandleWebhook(e.NewContext(req, rec))
	return rec
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	h := NewRazorpayWebhookHandler(codes.NewMemStore(), &recordingMailer{}, testSecret)

	rec := postWebhook(h, []byte(`{}`), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid signature")
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := NewRazorpayWebhookHandler(codes.NewMemStore(), &recordingMailer{}, testSecret)
	body := []byte(`{"payload":{"payment":{"entity":{"id":"pay_1","email":"a@b.com","amount":19900}}}}`)

	// Flip one hex digit of an otherwise valid signature.
	sig := sign(testSecret, body)
	var flipped byte = 'a'
	if sig[0] == 'a' {
		flipped = 'b'
	}
	rec := postWebhook(h, body, string(flipped)+sig[1:])
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsMutatedBody(t *testing.T) {
	h := NewRazorpayWebhookHandler(codes.NewMemStore(), &recordingMailer{}, testSecret)
	body := []byte(`{"payload":{"payment":{"entity":{"id":"pay_1","email":"a@b.com","amount":19900}}}}`)
	sig := sign(testSecret, body)

	mutated := []byte(strings.Replace(string(body), "19900", "19901", 1))
	rec := postWebhook(h, mutated, sig)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsWhenSecretUnconfigured(t *testing.T) {
	h := NewRazorpayWebhookHandler(codes.NewMemStore(), &recordingMailer{}, "")
	body := []byte(`{"payload":{"payment":{"entity":{"id":"pay_1","email":"a@b.com","amount":19900}}}}`)

	// Even a self-consistent signature must fail without a secret.
	rec := postWebhook(h, body, sign("", body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	store := codes.NewMemStore()
	h := NewRazorpayWebhookHandler(store, &recordingMailer{}, testSecret)

	for _, body := range []string{
		`{"event":"payment.captured"}`,
		`{"payload":{}}`,
		`{"payload":{"payment":{}}}`,
		`not json at all`,
	} {
		rec := postWebhook(h, []byte(body), sign(testSecret, []byte(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
		assert.Contains(t, rec.Body.String(), "malformed", "body: %s", body)
	}

	data, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, data, "rejected webhooks must not mint codes")
}

func TestWebhookRejectsMissingEmail(t *testing.T) {
	h := NewRazorpayWebhookHandler(codes.NewMemStore(), &recordingMailer{}, testSecret)
	body := []byte(`{"payload":{"payment":{"entity":{"id":"pay_1","amount":19900}}}}`)

	rec := postWebhook(h, body, sign(testSecret, body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no email")
}

func TestWebhookIssuesCodeAndSendsMail(t *testing.T) {
	store := codes.NewMemStore()
	mail := &recordingMailer{}
	h := NewRazorpayWebhookHandler(store, mail, testSecret)
	h.now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }

	body := []byte(`{"payload":{"payment":{"entity":{"id":"pay_1","email":"a@b.com","amount":19900}}}}`)
	rec := postWebhook(h, body, sign(testSecret, body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "a@b.com", resp["code_sent_to"])

	data, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, data, 1)
	for code, got := range data {
		assert.Len(t, code, 10)
		assert.Equal(t, "a@b.com", got.Email)
		assert.Equal(t, 199.0, got.Amount)
		assert.Equal(t, "pay_1", got.PaymentID)
		assert.Equal(t, time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC), got.CreatedAt)
		assert.False(t, got.Used)
		assert.Nil(t, got.UsedAt)

		require.Len(t, mail.to, 1)
		assert.Equal(t, "a@b.com", mail.to[0])
		assert.Contains(t, mail.body[0], code)
	}
}

func TestWebhookSucceedsWhenMailFails(t *testing.T) {
	store := codes.NewMemStore()
	mail := &recordingMailer{err: context.DeadlineExceeded}
	h := NewRazorpayWebhookHandler(store, mail, testSecret)

	body := []byte(`{"payload":{"payment":{"entity":{"id":"pay_2","email":"b@c.com","amount":500}}}}`)
	rec := postWebhook(h, body, sign(testSecret, body))
	assert.Equal(t, http.StatusOK, rec.Code)

	data, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, data, 1)
	for _, got := range data {
		assert.Equal(t, 5.0, got.Amount)
	}
}
