// Package notifx is a small outbound email layer: a provider-agnostic
// sender interface plus a client that renders named HTML templates.
package notifx

import (
	"bytes"
	"context"
	"html/template"
	"sync"
)

// Message is one outbound email.
type Message struct {
	From     string   `json:"from"`
	To       []string `json:"to"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body,omitempty"`
	HTMLBody string   `json:"html_body,omitempty"`
}

// Sender delivers one message through a concrete provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client fronts a provider with validation and template rendering.
type Client struct {
	provider Sender
	from     string

	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewClient creates a client. from is the default sender address applied
// when a message leaves it empty.
func NewClient(provider Sender, from string) *Client {
	return &Client{
		provider:  provider,
		from:      from,
		templates: make(map[string]*template.Template),
	}
}

// Send validates and delivers a message.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrRegistry.New(CodeInvalidMessage).WithDetail("reason", "no recipients")
	}
	if msg.Subject == "" {
		return ErrRegistry.New(CodeInvalidMessage).WithDetail("reason", "empty subject")
	}
	if msg.From == "" {
		msg.From = c.from
	}
	return c.provider.Send(ctx, msg)
}

// RegisterTemplate parses and stores a named HTML template.
func (c *Client) RegisterTemplate(name, body string) error {
	t, err := template.New(name).Parse(body)
	if err != nil {
		return ErrRegistry.NewWithCause(CodeTemplateParse, err).WithDetail("template", name)
	}

	c.mu.Lock()
	c.templates[name] = t
	c.mu.Unlock()
	return nil
}

// SendTemplate renders the named template into the HTML body and sends.
func (c *Client) SendTemplate(ctx context.Context, name string, data any, msg Message) error {
	c.mu.RLock()
	t, ok := c.templates[name]
	c.mu.RUnlock()

	if !ok {
		return ErrRegistry.New(CodeTemplateNotFound).WithDetail("template", name)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ErrRegistry.NewWithCause(CodeTemplateRender, err).WithDetail("template", name)
	}

	msg.HTMLBody = buf.String()
	return c.Send(ctx, msg)
}
