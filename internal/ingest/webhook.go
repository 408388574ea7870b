package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"callaudit/internal/config"
	"callaudit/internal/logging"
	"callaudit/internal/metrics"
	"callaudit/internal/records"
)

const (
	eventURLValidation      = "endpoint.url_validation"
	eventRecordingCompleted = "recording.completed"

	maxBodyBytes = 1 << 20
)

// Handler serves the recording webhook endpoint.
type Handler struct {
	store  *records.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewHandler builds the webhook handler.
func NewHandler(store *records.Store, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "ingest"),
	}
}

type webhookEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type validationPayload struct {
	PlainToken string `json:"plainToken"`
}

type recordingPayload struct {
	Object struct {
		CallID   string `json:"call_id"`
		ID       string `json:"id"`
		Download string `json:"download_url"`
		Duration int    `json:"duration"`
		DateTime string `json:"date_time"`
		Language string `json:"language"`
		Caller   struct {
			PhoneNumber string `json:"phone_number"`
			Name        string `json:"name"`
		} `json:"caller"`
		Callee struct {
			PhoneNumber     string `json:"phone_number"`
			Name            string `json:"name"`
			ExtensionNumber string `json:"extension_number"`
			Department      string `json:"department"`
		} `json:"callee"`
		Direction     string `json:"direction"`
		RecordingFile struct {
			DownloadURL string `json:"download_url"`
		} `json:"recording_file"`
	} `json:"object"`
}

// ServeHTTP handles POST /webhook/recording.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		metrics.WebhookRequests.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read body"})
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		metrics.WebhookRequests.WithLabelValues("invalid").Inc()
		h.logger.Warn("webhook payload is not valid JSON", logging.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	// Validation challenges are answered before any signature check; the
	// provider sends them while the endpoint secret is still being set up.
	if envelope.Event == eventURLValidation {
		h.handleValidation(w, envelope.Payload)
		return
	}

	if h.cfg.Webhook.RequireSignature {
		signature := r.Header.Get(SignatureHeader)
		timestamp := r.Header.Get(TimestampHeader)
		if !VerifySignature(h.cfg.Webhook.SecretToken, timestamp, signature, body) {
			metrics.WebhookRequests.WithLabelValues("rejected").Inc()
			h.logger.Warn("webhook signature rejected",
				logging.String("event", envelope.Event),
				logging.String(logging.FieldEventType, "webhook_rejected"),
			)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
			return
		}
	}

	switch envelope.Event {
	case eventRecordingCompleted:
		h.handleRecordingCompleted(w, r, envelope.Payload)
	default:
		metrics.WebhookRequests.WithLabelValues("ignored").Inc()
		h.logger.Debug("ignoring webhook event", logging.String("event", envelope.Event))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "event": envelope.Event})
	}
}

func (h *Handler) handleValidation(w http.ResponseWriter, payload json.RawMessage) {
	var validation validationPayload
	if err := json.Unmarshal(payload, &validation); err != nil || validation.PlainToken == "" {
		metrics.WebhookRequests.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing plainToken"})
		return
	}
	h.logger.Info("answered webhook validation challenge")
	writeJSON(w, http.StatusOK, map[string]string{
		"plainToken":     validation.PlainToken,
		"encryptedToken": ChallengeToken(h.cfg.Webhook.SecretToken, validation.PlainToken),
	})
}

func (h *Handler) handleRecordingCompleted(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	var recording recordingPayload
	if err := json.Unmarshal(payload, &recording); err != nil {
		metrics.WebhookRequests.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	obj := recording.Object

	callID := strings.TrimSpace(obj.CallID)
	if callID == "" {
		callID = strings.TrimSpace(obj.ID)
	}
	if callID == "" {
		// Deliveries without a call id still get processed; a synthetic id
		// keeps them unique while remaining traceable to ingestion time.
		callID = "ingest_" + time.Now().UTC().Format("20060102_150405") + "_" + uuid.NewString()[:8]
		h.logger.Warn("webhook delivery missing call id", logging.String(logging.FieldCallID, callID))
	}

	recordingURL := strings.TrimSpace(obj.Download)
	if recordingURL == "" {
		recordingURL = strings.TrimSpace(obj.RecordingFile.DownloadURL)
	}
	if recordingURL == "" {
		metrics.WebhookRequests.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing recording url"})
		return
	}

	agentName := strings.TrimSpace(obj.Callee.Name)
	if agentName == "" {
		agentName = strings.TrimSpace(obj.Callee.ExtensionNumber)
	}
	fromNumber := strings.TrimSpace(obj.Caller.PhoneNumber)
	if fromNumber == "" {
		fromNumber = strings.TrimSpace(obj.Caller.Name)
	}

	call := records.NewCall{
		CallID:          callID,
		RecordingURL:    recordingURL,
		FromNumber:      fromNumber,
		ToNumber:        strings.TrimSpace(obj.Callee.PhoneNumber),
		AgentName:       agentName,
		Department:      strings.TrimSpace(obj.Callee.Department),
		Direction:       strings.TrimSpace(obj.Direction),
		DurationSeconds: obj.Duration,
		Language:        strings.TrimSpace(obj.Language),
		CorrelationID:   uuid.NewString(),
	}
	if when, err := time.Parse(time.RFC3339, strings.TrimSpace(obj.DateTime)); err == nil {
		call.CallTime = &when
	}

	record, inserted, err := h.store.Insert(r.Context(), call)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		metrics.WebhookRequests.WithLabelValues("error").Inc()
		h.logger.Error("failed to insert call record",
			logging.Error(err),
			logging.String(logging.FieldCallID, callID),
			logging.String(logging.FieldEventType, "webhook_insert_failed"),
			logging.String(logging.FieldErrorHint, "check record database access"),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
		return
	}

	if !inserted {
		metrics.WebhookRequests.WithLabelValues("duplicate").Inc()
		h.logger.Info("webhook redelivery ignored",
			logging.String(logging.FieldCallID, callID),
			logging.String(logging.FieldRecordID, record.ID),
		)
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "skipped",
			"call_id": callID,
		})
		return
	}

	metrics.WebhookRequests.WithLabelValues("accepted").Inc()
	h.logger.Info("call record created",
		logging.String(logging.FieldCallID, callID),
		logging.String(logging.FieldRecordID, record.ID),
		logging.String(logging.FieldEventType, "call_ingested"),
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "accepted",
		"record_id": record.ID,
		"call_id":   callID,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
