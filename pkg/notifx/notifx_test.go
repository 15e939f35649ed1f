package notifx_test

import (
	"context"
	"strings"
	"testing"

	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/notifx"
)

// captureSender records the last delivered message.
type captureSender struct {
	last *notifx.Message
}

func (s *captureSender) Send(_ context.Context, msg notifx.Message) error {
	s.last = &msg
	return nil
}

func TestClient_SendAppliesDefaultFrom(t *testing.T) {
	sender := &captureSender{}
	client := notifx.NewClient(sender, "noreply@academy.test")

	err := client.Send(context.Background(), notifx.Message{
		To:      []string{"ana@example.com"},
		Subject: "Hello",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if sender.last.From != "noreply@academy.test" {
		t.Errorf("from: got %s", sender.last.From)
	}

	// An explicit From is left alone.
	err = client.Send(context.Background(), notifx.Message{
		From:    "support@academy.test",
		To:      []string{"ana@example.com"},
		Subject: "Hello",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if sender.last.From != "support@academy.test" {
		t.Errorf("from: got %s", sender.last.From)
	}
}

func TestClient_SendValidation(t *testing.T) {
	client := notifx.NewClient(&captureSender{}, "noreply@academy.test")

	err := client.Send(context.Background(), notifx.Message{Subject: "no recipients"})
	if !errx.HasCode(err, notifx.CodeInvalidMessage) {
		t.Errorf("no recipients: expected NOTIFX_INVALID_MESSAGE, got %v", err)
	}

	err = client.Send(context.Background(), notifx.Message{To: []string{"a@b.c"}})
	if !errx.HasCode(err, notifx.CodeInvalidMessage) {
		t.Errorf("empty subject: expected NOTIFX_INVALID_MESSAGE, got %v", err)
	}
}

func TestClient_SendTemplate(t *testing.T) {
	sender := &captureSender{}
	client := notifx.NewClient(sender, "noreply@academy.test")

	if err := client.RegisterTemplate("welcome", "<p>Hi {{.Name}}</p>"); err != nil {
		t.Fatalf("RegisterTemplate failed: %v", err)
	}

	err := client.SendTemplate(context.Background(), "welcome",
		map[string]string{"Name": "Ana"},
		notifx.Message{To: []string{"ana@example.com"}, Subject: "Welcome"})
	if err != nil {
		t.Fatalf("SendTemplate failed: %v", err)
	}
	if !strings.Contains(sender.last.HTMLBody, "Hi Ana") {
		t.Errorf("rendered body: %q", sender.last.HTMLBody)
	}
}

func TestClient_SendTemplate_Unknown(t *testing.T) {
	client := notifx.NewClient(&captureSender{}, "noreply@academy.test")

	err := client.SendTemplate(context.Background(), "missing", nil,
		notifx.Message{To: []string{"a@b.c"}, Subject: "S"})
	if !errx.HasCode(err, notifx.CodeTemplateNotFound) {
		t.Fatalf("expected NOTIFX_TEMPLATE_NOT_FOUND, got %v", err)
	}
}

func TestClient_RegisterTemplate_ParseError(t *testing.T) {
	client := notifx.NewClient(&captureSender{}, "noreply@academy.test")

	err := client.RegisterTemplate("broken", "{{.Unclosed")
	if !errx.HasCode(err, notifx.CodeTemplateParse) {
		t.Fatalf("expected NOTIFX_TEMPLATE_PARSE, got %v", err)
	}
}

func TestClient_TemplateEscapesHTML(t *testing.T) {
	sender := &captureSender{}
	client := notifx.NewClient(sender, "noreply@academy.test")

	if err := client.RegisterTemplate("welcome", "<p>Hi {{.Name}}</p>"); err != nil {
		t.Fatalf("RegisterTemplate failed: %v", err)
	}
	err := client.SendTemplate(context.Background(), "welcome",
		map[string]string{"Name": "<script>alert(1)</script>"},
		notifx.Message{To: []string{"a@b.c"}, Subject: "S"})
	if err != nil {
		t.Fatalf("SendTemplate failed: %v", err)
	}
	if strings.Contains(sender.last.HTMLBody, "<script>") {
		t.Error("template did not escape HTML input")
	}
}
