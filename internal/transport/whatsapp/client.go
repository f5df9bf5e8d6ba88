// Package whatsapp is the Cloud API transport: webhook intake on one side,
// the Graph send API on the other. Everything above it works with plain text
// and payload strings.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	graphBaseURL   = "https://graph.facebook.com/v20.0"
	requestTimeout = 10 * time.Second
	maxButtons     = 3 // Cloud API limit on interactive reply buttons
)

// Translator renders outbound text into the session language. A no-op
// implementation is valid for English-only deployments.
type Translator interface {
	Translate(ctx context.Context, text string) string
}

// Action is a quick-reply button attached to a message.
type Action struct {
	Label   string
	Payload string
}

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	http          *http.Client
	token         string
	phoneNumberID string
	adminPhone    string
	translator    Translator
	logger        *zap.Logger
}

func NewClient(token, phoneNumberID, adminPhone string, translator Translator, logger *zap.Logger) *Client {
	return &Client{
		http:          &http.Client{Timeout: requestTimeout},
		token:         token,
		phoneNumberID: phoneNumberID,
		adminPhone:    adminPhone,
		translator:    translator,
		logger:        logger,
	}
}

type textMessage struct {
	MessagingProduct string     `json:"messaging_product"`
	To               string     `json:"to"`
	Type             string     `json:"type"`
	Text             *textBody  `json:"text,omitempty"`
	Interactive      *interBody `json:"interactive,omitempty"`
}

type textBody struct {
	Body string `json:"body"`
}

type interBody struct {
	Type   string      `json:"type"`
	Body   textBody    `json:"body"`
	Action interAction `json:"action"`
}

type interAction struct {
	Buttons []interButton `json:"buttons"`
}

type interButton struct {
	Type  string      `json:"type"`
	Reply buttonReply `json:"reply"`
}

type buttonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SendText delivers a plain text message, translating first when the session
// language asks for it.
func (c *Client) SendText(ctx context.Context, to, text, language string) error {
	if language == "hi" {
		text = c.translator.Translate(ctx, text)
	}
	return c.post(ctx, textMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &textBody{Body: text},
	})
}

// SendButtons delivers a message with quick-reply buttons. The Cloud API caps
// buttons at three; extras are dropped with a warning.
func (c *Client) SendButtons(ctx context.Context, to, text string, actions []Action) error {
	if len(actions) == 0 {
		return c.SendText(ctx, to, text, "")
	}
	if len(actions) > maxButtons {
		c.logger.Warn("Too many buttons, truncating",
			zap.Int("requested", len(actions)),
			zap.Int("limit", maxButtons))
		actions = actions[:maxButtons]
	}

	buttons := make([]interButton, 0, len(actions))
	for _, a := range actions {
		buttons = append(buttons, interButton{
			Type:  "reply",
			Reply: buttonReply{ID: a.Payload, Title: a.Label},
		})
	}

	return c.post(ctx, textMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: &interBody{
			Type:   "button",
			Body:   textBody{Body: text},
			Action: interAction{Buttons: buttons},
		},
	})
}

// NotifyAdmin sends a templated notification to the school admin number with
// optional quick-reply actions. The variables map is rendered positionally.
func (c *Client) NotifyAdmin(ctx context.Context, template string, variables map[string]string, actions []Action) error {
	if c.adminPhone == "" {
		return fmt.Errorf("notify admin: no admin phone configured")
	}

	body := renderTemplate(template, variables)
	if len(actions) > 0 {
		return c.SendButtons(ctx, c.adminPhone, body, actions)
	}
	return c.SendText(ctx, c.adminPhone, body, "")
}

func (c *Client) post(ctx context.Context, msg textMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", graphBaseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("send message: status %d: %s", resp.StatusCode, detail)
	}

	c.logger.Debug("Message sent", zap.String("to", msg.To), zap.String("type", msg.Type))
	return nil
}

// renderTemplate formats the known admin templates from positional variables.
func renderTemplate(template string, vars map[string]string) string {
	switch template {
	case "ptm_form":
		return fmt.Sprintf(
			"New appointment request\n\n"+
				"Parent: %s\nStudent: %s\nClass: %s\nWith: %s\nReason: %s\nPreferred time: %s",
			vars["1"], vars["2"], vars["3"], vars["4"], vars["5"], vars["6"])
	case "form_submitted":
		return fmt.Sprintf("New submission\n\n%s\n%s", vars["1"], vars["2"])
	}

	body := template
	for _, v := range vars {
		body += "\n" + v
	}
	return body
}
