// Package notifxconsole logs messages instead of sending them. Development
// and test environments use it so no real email leaves the machine.
package notifxconsole

import (
	"context"
	"strings"

	"github.com/Abraxas-365/academy/pkg/logx"
	"github.com/Abraxas-365/academy/pkg/notifx"
)

// ConsoleSender implements notifx.Sender by logging.
type ConsoleSender struct{}

// NewConsoleSender creates the dev sender.
func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{}
}

// Send logs the message instead of delivering it.
func (s *ConsoleSender) Send(_ context.Context, msg notifx.Message) error {
	logx.WithFields(logx.Fields{
		"from":    msg.From,
		"to":      strings.Join(msg.To, ", "),
		"subject": msg.Subject,
	}).Info("notifx/console: email sent (dev mode)")

	if msg.TextBody != "" {
		logx.Debugf("notifx/console: text body:\n%s", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		logx.Debugf("notifx/console: html body:\n%s", msg.HTMLBody)
	}
	return nil
}
