// Package notify delivers the finalized job report to external channels.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/severin-lang/rotabak/pkg/buildinfo"
	"github.com/severin-lang/rotabak/pkg/report"
	"github.com/severin-lang/rotabak/pkg/rlog"
)

// SMTPNotifier mails the report summary. It deliberately keeps the transport
// thin: the report is the payload, formatting stays in pkg/report.
type SMTPNotifier struct {
	host string
	port int
	from string
	to   []string

	// send is swappable for tests.
	send func(addr string, from string, to []string, msg []byte) error
}

var _ report.Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier creates a mail notifier for the given SMTP endpoint.
func NewSMTPNotifier(host string, port int, from string, to []string) *SMTPNotifier {
	return &SMTPNotifier{
		host: host,
		port: port,
		from: from,
		to:   to,
		send: func(addr string, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// Send mails the report. The caller treats a returned error as a logged
// warning, never as a run failure.
func (n *SMTPNotifier) Send(ctx context.Context, result *report.JobResult) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	subject := fmt.Sprintf("%s: %s backup on %s finished with %s",
		buildinfo.Name, result.Tier, result.SetName, result.Overall)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(n.to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(result.Summary())

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	if err := n.send(addr, n.from, n.to, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send via %s failed: %w", addr, err)
	}
	return nil
}

// LogNotifier writes the report summary to the log instead of an external
// channel. Used when notification is disabled or unconfigured.
type LogNotifier struct{}

var _ report.Notifier = (*LogNotifier)(nil)

// Send logs the summary line by line.
func (LogNotifier) Send(_ context.Context, result *report.JobResult) error {
	for _, line := range strings.Split(strings.TrimRight(result.Summary(), "\n"), "\n") {
		rlog.Info(line)
	}
	return nil
}
