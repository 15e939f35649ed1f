// Package notification queues and delivers account lifecycle emails. The
// HTTP path only enqueues; rendering and delivery happen on the jobx
// workers so a slow or failing provider never blocks a request.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abraxas-365/academy/pkg/iam/user"
	"github.com/Abraxas-365/academy/pkg/jobx"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/Abraxas-365/academy/pkg/notifx"
)

// Task types routed through the queue.
const (
	TaskWelcomeEmail       = "email:welcome"
	TaskInstructorApproved = "email:instructor_approved"
)

type emailPayload struct {
	To              string `json:"to"`
	Name            string `json:"name"`
	PendingApproval bool   `json:"pending_approval,omitempty"`
}

// Service enqueues lifecycle emails. It satisfies both the registration
// notifier of the auth handlers and the enqueuer of the user service.
type Service struct {
	runner *jobx.Runner
}

// NewService creates the enqueuing side.
func NewService(runner *jobx.Runner) *Service {
	return &Service{runner: runner}
}

// UserRegistered queues the welcome email for a fresh account.
func (s *Service) UserRegistered(ctx context.Context, u *user.User) error {
	_, err := s.runner.Enqueue(ctx, TaskWelcomeEmail, emailPayload{
		To:              u.Email,
		Name:            u.Name,
		PendingApproval: u.Role == kernel.RoleInstructor && !u.IsApproved,
	})
	return err
}

// EnqueueWelcome queues the welcome email.
func (s *Service) EnqueueWelcome(ctx context.Context, u *user.User) error {
	return s.UserRegistered(ctx, u)
}

// EnqueueInstructorApproved queues the approval email.
func (s *Service) EnqueueInstructorApproved(ctx context.Context, u *user.User) error {
	_, err := s.runner.Enqueue(ctx, TaskInstructorApproved, emailPayload{
		To:   u.Email,
		Name: u.Name,
	})
	return err
}

// Mailer is the worker side: it renders templates and sends through the
// notifx client.
type Mailer struct {
	client   *notifx.Client
	fromName string
	from     string
}

// NewMailer registers the email templates on the client.
func NewMailer(client *notifx.Client, from, fromName string) (*Mailer, error) {
	if err := client.RegisterTemplate(templateWelcome, welcomeTemplate); err != nil {
		return nil, err
	}
	if err := client.RegisterTemplate(templateInstructorApproved, instructorApprovedTemplate); err != nil {
		return nil, err
	}
	return &Mailer{client: client, from: from, fromName: fromName}, nil
}

// sender formats the From header with the display name when one is set.
func (m *Mailer) sender() string {
	if m.fromName == "" {
		return m.from
	}
	return fmt.Sprintf("%s <%s>", m.fromName, m.from)
}

// RegisterHandlers binds the mailer to the queue's task types.
func (m *Mailer) RegisterHandlers(runner *jobx.Runner) {
	runner.Register(TaskWelcomeEmail, m.handleWelcome)
	runner.Register(TaskInstructorApproved, m.handleInstructorApproved)
}

func (m *Mailer) handleWelcome(ctx context.Context, task *jobx.Task) error {
	var p emailPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return err
	}
	return m.client.SendTemplate(ctx, templateWelcome, p, notifx.Message{
		From:    m.sender(),
		To:      []string{p.To},
		Subject: "Welcome to Academy",
	})
}

func (m *Mailer) handleInstructorApproved(ctx context.Context, task *jobx.Task) error {
	var p emailPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return err
	}
	return m.client.SendTemplate(ctx, templateInstructorApproved, p, notifx.Message{
		From:    m.sender(),
		To:      []string{p.To},
		Subject: "Your instructor account is approved",
	})
}
