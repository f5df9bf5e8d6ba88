package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/schoolbos/school_bot/internal/engine"
	"github.com/schoolbos/school_bot/internal/model"
)

const turnTimeout = 30 * time.Second

// Dialogue is the conversation core behind the webhook.
type Dialogue interface {
	HandleMessage(ctx context.Context, address, text string) engine.Reply
}

// Appointments resolves admin quick-reply decisions on appointment requests.
type Appointments interface {
	GetByID(ctx context.Context, id int64) (*model.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) error
}

// Sender delivers outbound messages.
type Sender interface {
	SendText(ctx context.Context, to, text, language string) error
}

// Webhook receives Cloud API callbacks: the GET verification handshake and
// POSTed inbound messages (text and button replies).
type Webhook struct {
	verifyToken  string
	dialogue     Dialogue
	appointments Appointments
	sender       Sender
	logger       *zap.Logger
}

func NewWebhook(verifyToken string, dialogue Dialogue, appointments Appointments, sender Sender, logger *zap.Logger) *Webhook {
	return &Webhook{
		verifyToken:  verifyToken,
		dialogue:     dialogue,
		appointments: appointments,
		sender:       sender,
		logger:       logger,
	}
}

// Router builds the HTTP surface.
func (w *Webhook) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/webhook", w.verify)
	r.Post("/webhook", w.receive)
	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	return r
}

// verify answers Meta's subscription handshake: echo the challenge when the
// token matches, refuse otherwise.
func (w *Webhook) verify(rw http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == w.verifyToken {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte(challenge))
		return
	}

	w.logger.Warn("Webhook verification refused", zap.String("mode", mode))
	rw.WriteHeader(http.StatusForbidden)
}

type inboundPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
	} `json:"interactive"`
	Button *struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
}

// receive acknowledges immediately and processes each message in the
// background; the Cloud API retries on slow responses, which would produce
// duplicate turns.
func (w *Webhook) receive(rw http.ResponseWriter, r *http.Request) {
	var payload inboundPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.logger.Warn("Undecodable webhook payload", zap.Error(err))
		rw.WriteHeader(http.StatusOK)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				go w.process(msg)
			}
		}
	}

	rw.WriteHeader(http.StatusOK)
}

func (w *Webhook) process(msg inboundMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	if payload := buttonPayload(msg); payload != "" {
		w.handleAction(ctx, msg.From, payload)
		return
	}

	if msg.Text == nil || strings.TrimSpace(msg.Text.Body) == "" {
		return
	}

	reply := w.dialogue.HandleMessage(ctx, msg.From, msg.Text.Body)
	if reply.Text == "" {
		return
	}
	if err := w.sender.SendText(ctx, msg.From, reply.Text, reply.Language); err != nil {
		w.logger.Error("Reply delivery failed",
			zap.String("to", msg.From),
			zap.Error(err))
	}
}

func buttonPayload(msg inboundMessage) string {
	if msg.Interactive != nil && msg.Interactive.ButtonReply != nil {
		return msg.Interactive.ButtonReply.ID
	}
	if msg.Button != nil {
		return msg.Button.Payload
	}
	return ""
}

// handleAction resolves an appointment decision button. The parent is told
// the outcome; the admin who pressed the button gets a short confirmation.
func (w *Webhook) handleAction(ctx context.Context, from, payload string) {
	id, status, err := parseAppointmentAction(payload)
	if err != nil {
		w.logger.Warn("Unrecognized button payload",
			zap.String("payload", payload),
			zap.String("from", from))
		return
	}

	appt, err := w.appointments.GetByID(ctx, id)
	if err != nil || appt == nil {
		w.logger.Error("Appointment lookup failed",
			zap.Int64("appointment_id", id),
			zap.Error(err))
		return
	}

	if err := w.appointments.UpdateStatus(ctx, id, status); err != nil {
		w.logger.Error("Appointment status update failed",
			zap.Int64("appointment_id", id),
			zap.Error(err))
		return
	}

	var parentNote, adminNote string
	if status == model.AppointmentAccepted {
		parentNote = fmt.Sprintf(
			"Good news! Your appointment request (%s, %s) has been accepted. See you then!",
			appt.Reason, appt.PreferredTime)
		adminNote = fmt.Sprintf("Appointment #%d accepted. The parent has been notified.", id)
	} else {
		parentNote = fmt.Sprintf(
			"Your appointment request (%s, %s) could not be accommodated. "+
				"Please reply *appointment* to suggest another time.",
			appt.Reason, appt.PreferredTime)
		adminNote = fmt.Sprintf("Appointment #%d rejected. The parent has been notified.", id)
	}

	if err := w.sender.SendText(ctx, appt.ContactNumber, parentNote, ""); err != nil {
		w.logger.Error("Parent notification failed",
			zap.Int64("appointment_id", id),
			zap.Error(err))
	}
	if err := w.sender.SendText(ctx, from, adminNote, ""); err != nil {
		w.logger.Error("Admin confirmation failed",
			zap.Int64("appointment_id", id),
			zap.Error(err))
	}

	w.logger.Info("Appointment resolved",
		zap.Int64("appointment_id", id),
		zap.String("status", string(status)))
}

func parseAppointmentAction(payload string) (int64, model.AppointmentStatus, error) {
	var (
		rest   string
		status model.AppointmentStatus
		found  bool
	)
	if rest, found = strings.CutPrefix(payload, "approve_appt_"); found {
		status = model.AppointmentAccepted
	} else if rest, found = strings.CutPrefix(payload, "reject_appt_"); found {
		status = model.AppointmentRejected
	} else {
		return 0, "", fmt.Errorf("unknown action payload %q", payload)
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("bad appointment id in %q: %w", payload, err)
	}
	return id, status, nil
}
