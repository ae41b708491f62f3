package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/codemint/internal/codes"
	"github.com/codemint/internal/mailer"
)

// RazorpayWebhookHandler turns verified Razorpay payment events into
// stored redemption codes and emails them to the payer.
type RazorpayWebhookHandler struct {
	store         codes.Store
	mail          mailer.Service
	webhookSecret string
	now           func() time.Time
}

// NewRazorpayWebhookHandler creates a new Razorpay webhook handler.
func NewRazorpayWebhookHandler(store codes.Store, mail mailer.Service, webhookSecret string) *RazorpayWebhookHandler {
	return &RazorpayWebhookHandler{
		store:         store,
		mail:          mail,
		webhookSecret: webhookSecret,
		now:           time.Now,
	}
}

// webhookEnvelope mirrors the nested payload.payment.entity shape of
// Razorpay payment events. Entity stays raw so an absent path can be
// told apart from zero values.
type webhookEnvelope struct {
	Payload struct {
		Payment struct {
			Entity json.RawMessage `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// paymentEntity is the subset of the Razorpay payment object we use.
// Amount is in minor currency units (paise).
type paymentEntity struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Amount int64  `json:"amount"`
}

// HandleWebhook processes incoming Razorpay payment webhooks.
func (h *RazorpayWebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"detail": "failed to read request body",
		})
	}

	deliveryID := uuid.NewString()

	signature := c.Request().Header.Get("X-Razorpay-Signature")
	if !h.verifySignature(body, signature) {
		log.Warn().
			Str("delivery_id", deliveryID).
			Msg("Rejected webhook with invalid signature")
		return c.JSON(http.StatusBadRequest, map[string]string{
			"detail": "invalid signature",
		})
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil || len(env.Payload.Payment.Entity) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"detail": "malformed razorpay payload",
		})
	}

	var entity paymentEntity
	if err := json.Unmarshal(env.Payload.Payment.Entity, &entity); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"detail": "malformed razorpay payload",
		})
	}
	if entity.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"detail": "no email in payment payload",
		})
	}

	ctx := c.Request().Context()

	code, err := codes.MintUnique(ctx, h.store)
	if err != nil {
		log.Error().Err(err).
			Str("delivery_id", deliveryID).
			Msg("Failed to mint redemption code")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"detail": "failed to issue code",
		})
	}

	rec := codes.Record{
		Email:     entity.Email,
		Amount:    float64(entity.Amount) / 100,
		PaymentID: entity.ID,
		CreatedAt: h.now().UTC(),
	}
	if err := h.store.Put(ctx, code, rec); err != nil {
		log.Error().Err(err).
			Str("delivery_id", deliveryID).
			Str("payment_id", entity.ID).
			Msg("Failed to store redemption code")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"detail": "failed to store code",
		})
	}

	// Delivery is best effort; the provider must never see a failure
	// just because SMTP was down. Their retry would mint a second code.
	if err := h.mail.Send(ctx, confirmationSubject, entity.Email, confirmationBody(code)); err != nil {
		log.Error().Err(err).
			Str("delivery_id", deliveryID).
			Str("to", entity.Email).
			Msg("Failed to send redemption code email")
	}

	log.Info().
		Str("delivery_id", deliveryID).
		Str("payment_id", entity.ID).
		Str("to", entity.Email).
		Msg("Issued redemption code")

	return c.JSON(http.StatusOK, map[string]string{
		"status":       "success",
		"code_sent_to": entity.Email,
	})
}

// verifySignature checks the hex HMAC-SHA256 of the raw body against
// the X-Razorpay-Signature header. An unconfigured secret rejects
// everything rather than waving requests through.
func (h *RazorpayWebhookHandler) verifySignature(body []byte, signature string) bool {
	if h.webhookSecret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expectedSignature := hex.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(signature), []byte(expectedSignature)) == 1
}
