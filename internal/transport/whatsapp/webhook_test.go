package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schoolbos/school_bot/internal/engine"
	"github.com/schoolbos/school_bot/internal/model"
)

type fakeDialogue struct {
	calls chan [2]string
	reply engine.Reply
}

func (f *fakeDialogue) HandleMessage(_ context.Context, address, text string) engine.Reply {
	f.calls <- [2]string{address, text}
	return f.reply
}

type fakeAppointments struct {
	appt    *model.Appointment
	updated chan model.AppointmentStatus
}

func (f *fakeAppointments) GetByID(_ context.Context, _ int64) (*model.Appointment, error) {
	return f.appt, nil
}

func (f *fakeAppointments) UpdateStatus(_ context.Context, _ int64, status model.AppointmentStatus) error {
	f.updated <- status
	return nil
}

type sentMessage struct {
	to   string
	text string
}

type fakeSender struct {
	sent chan sentMessage
}

func (f *fakeSender) SendText(_ context.Context, to, text, _ string) error {
	f.sent <- sentMessage{to, text}
	return nil
}

func newTestWebhook() (*Webhook, *fakeDialogue, *fakeAppointments, *fakeSender) {
	dialogue := &fakeDialogue{
		calls: make(chan [2]string, 4),
		reply: engine.Reply{Text: "hello back", Language: "en"},
	}
	appts := &fakeAppointments{
		appt: &model.Appointment{
			ID:            42,
			ContactNumber: "919876543210",
			Reason:        "Discuss grades",
			PreferredTime: "15 Dec at 11 AM",
			Status:        model.AppointmentPending,
		},
		updated: make(chan model.AppointmentStatus, 4),
	}
	sender := &fakeSender{sent: make(chan sentMessage, 4)}
	w := NewWebhook("secret-token", dialogue, appts, sender, zap.NewNop())
	return w, dialogue, appts, sender
}

func recv[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async webhook processing")
		panic("unreachable")
	}
}

func TestVerifyHandshake(t *testing.T) {
	w, _, _, _ := newTestWebhook()
	srv := httptest.NewServer(w.Router())
	defer srv.Close()

	t.Run("echoes the challenge on a matching token", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/webhook?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := make([]byte, 16)
		n, _ := resp.Body.Read(body)
		assert.Equal(t, "12345", string(body[:n]))
	})

	t.Run("refuses a wrong token", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestInboundText(t *testing.T) {
	w, dialogue, _, sender := newTestWebhook()
	srv := httptest.NewServer(w.Router())
	defer srv.Close()

	payload := `{
		"entry": [{"changes": [{"value": {"messages": [
			{"from": "919876543210", "type": "text", "text": {"body": "homework"}}
		]}}]}]
	}`

	resp, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	call := recv(t, dialogue.calls)
	assert.Equal(t, "919876543210", call[0])
	assert.Equal(t, "homework", call[1])

	out := recv(t, sender.sent)
	assert.Equal(t, "919876543210", out.to)
	assert.Equal(t, "hello back", out.text)
}

func TestInboundButton(t *testing.T) {
	t.Run("approve notifies parent and admin", func(t *testing.T) {
		w, _, appts, sender := newTestWebhook()
		srv := httptest.NewServer(w.Router())
		defer srv.Close()

		payload := `{
			"entry": [{"changes": [{"value": {"messages": [
				{"from": "918888888888", "type": "interactive",
				 "interactive": {"button_reply": {"id": "approve_appt_42", "title": "Accept"}}}
			]}}]}]
		}`

		resp, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader(payload))
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, model.AppointmentAccepted, recv(t, appts.updated))

		parentMsg := recv(t, sender.sent)
		assert.Equal(t, "919876543210", parentMsg.to)
		assert.Contains(t, parentMsg.text, "accepted")

		adminMsg := recv(t, sender.sent)
		assert.Equal(t, "918888888888", adminMsg.to)
		assert.Contains(t, adminMsg.text, "#42")
	})

	t.Run("reject suggests rebooking", func(t *testing.T) {
		w, _, appts, sender := newTestWebhook()
		srv := httptest.NewServer(w.Router())
		defer srv.Close()

		payload := `{
			"entry": [{"changes": [{"value": {"messages": [
				{"from": "918888888888", "type": "button",
				 "button": {"payload": "reject_appt_42", "text": "Reject"}}
			]}}]}]
		}`

		resp, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader(payload))
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, model.AppointmentRejected, recv(t, appts.updated))
		parentMsg := recv(t, sender.sent)
		assert.Contains(t, parentMsg.text, "could not be accommodated")
	})
}

func TestParseAppointmentAction(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		id, status, err := parseAppointmentAction("approve_appt_42")
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.Equal(t, model.AppointmentAccepted, status)
	})

	t.Run("reject", func(t *testing.T) {
		id, status, err := parseAppointmentAction("reject_appt_7")
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
		assert.Equal(t, model.AppointmentRejected, status)
	})

	t.Run("garbage payloads are rejected", func(t *testing.T) {
		for _, payload := range []string{"", "approve_appt_", "approve_appt_x", "delete_appt_42"} {
			_, _, err := parseAppointmentAction(payload)
			assert.Error(t, err, "payload %q", payload)
		}
	})
}

func TestRenderTemplate(t *testing.T) {
	body := renderTemplate("ptm_form", map[string]string{
		"1": "Sunita Verma", "2": "Asha", "3": "5 A",
		"4": "Mr. Sharma", "5": "Discuss grades", "6": "15 Dec at 11 AM",
	})
	assert.Contains(t, body, "Parent: Sunita Verma")
	assert.Contains(t, body, "With: Mr. Sharma")
	assert.Contains(t, body, "Preferred time: 15 Dec at 11 AM")
}
