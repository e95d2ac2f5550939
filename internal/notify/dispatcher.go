package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rollcall/internal/creds"
	"rollcall/internal/queue"
)

// MessageTypeAbsence tags queued absence jobs.
const MessageTypeAbsence = "absence"

var (
	smsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_sms_sent_total",
		Help: "Absence notifications accepted by the SMS gateway.",
	})
	smsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_sms_failed_total",
		Help: "Absence notifications that failed to send.",
	})
)

// Job describes one absence notification.
type Job struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
}

// NewAbsenceMessage wraps a job for the queue.
func NewAbsenceMessage(job Job) (queue.Message, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return queue.Message{}, err
	}
	return queue.Message{Type: MessageTypeAbsence, Body: body}, nil
}

// CredentialSource yields the gateway credentials for each send.
type CredentialSource interface {
	Load(ctx context.Context) (creds.Credentials, error)
}

// Sender submits a single absence SMS.
type Sender interface {
	Send(ctx context.Context, cr creds.Credentials, phone, name string) error
}

// Dispatcher drains queued absence jobs and sends one SMS per job.
// Attendance is already committed by the time a job exists, so a failed
// send never touches stored records.
type Dispatcher struct {
	creds  CredentialSource
	sender Sender
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cs CredentialSource, sender Sender) *Dispatcher {
	return &Dispatcher{creds: cs, sender: sender}
}

// Run consumes messages until the channel closes or ctx is cancelled.
// Failures are logged per job; one failure never stops the rest.
func (d *Dispatcher) Run(ctx context.Context, messages <-chan queue.Message) {
	for msg := range messages {
		if msg.Type != MessageTypeAbsence {
			continue
		}
		var job Job
		if err := json.Unmarshal(msg.Body, &job); err != nil {
			log.Printf("bad absence job payload: %v", err)
			continue
		}
		if err := d.Dispatch(ctx, job); err != nil {
			log.Printf("sms for %s failed: %v", job.Name, err)
			continue
		}
		log.Printf("sms sent for %s", job.Name)
	}
}

// Dispatch sends a single job, loading credentials fresh for each send.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) error {
	cr, err := d.creds.Load(ctx)
	if err != nil {
		smsFailed.Inc()
		return fmt.Errorf("credentials unavailable: %w", err)
	}
	if err := d.sender.Send(ctx, cr, job.Phone, job.Name); err != nil {
		smsFailed.Inc()
		return err
	}
	smsSent.Inc()
	return nil
}
