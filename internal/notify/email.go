package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"os/exec"
	"strings"

	"github.com/aristath/briefd/internal/capability"
)

// EmailNotifier delivers by mail, either through an SMTP server or by piping
// to a local sendmail binary.
type EmailNotifier struct {
	to            []string
	from          string
	subjectPrefix string
	method        string

	// smtp settings
	host     string
	port     int
	username string
	password string

	// resolved at construction for the sendmail method
	sendmailPath string
}

// NewEmail creates the email notifier. Params: to (required, string or
// list), from, subject_prefix, method ("smtp" or "sendmail"), and for smtp:
// host (required), port, username, password.
func NewEmail(params map[string]any) (*EmailNotifier, error) {
	to := capability.StringsParam(params, "to")
	if len(to) == 0 {
		if s := capability.StringParam(params, "to", ""); s != "" {
			to = []string{s}
		}
	}
	if len(to) == 0 {
		return nil, &capability.ConfigError{Field: "to", Reason: "required"}
	}

	n := &EmailNotifier{
		to:            to,
		from:          capability.StringParam(params, "from", "briefd@localhost"),
		subjectPrefix: capability.StringParam(params, "subject_prefix", ""),
		method:        capability.StringParam(params, "method", "smtp"),
	}

	switch n.method {
	case "smtp":
		host, err := capability.RequireString(params, "host")
		if err != nil {
			return nil, err
		}
		n.host = host
		n.port = capability.IntParam(params, "port", 587)
		n.username = capability.StringParam(params, "username", "")
		n.password = capability.StringParam(params, "password", "")
	case "sendmail":
		path, err := exec.LookPath("sendmail")
		if err != nil {
			return nil, &capability.DependencyError{
				Kind: capability.KindNotifier,
				Name: "email",
				Hint: "install a sendmail-compatible MTA or use method: smtp",
				Err:  err,
			}
		}
		n.sendmailPath = path
	default:
		return nil, &capability.ConfigError{Field: "method", Reason: "must be smtp or sendmail"}
	}

	return n, nil
}

// Name identifies the notifier in logs and errors.
func (n *EmailNotifier) Name() string { return "email" }

// Send builds an RFC 5322 message and hands it to the configured transport.
func (n *EmailNotifier) Send(ctx context.Context, message, title string) (bool, error) {
	msg := n.buildMessage(message, title)

	if n.method == "sendmail" {
		cmd := exec.CommandContext(ctx, n.sendmailPath, "-t")
		cmd.Stdin = bytes.NewReader(msg)
		if out, err := cmd.CombinedOutput(); err != nil {
			return false, fmt.Errorf("sendmail failed: %v: %s", err, strings.TrimSpace(string(out)))
		}
		return true, nil
	}

	// net/smtp has no context support; the client timeout is the dial
	// timeout of the default transport.
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}
	if err := smtp.SendMail(addr, auth, n.from, n.to, msg); err != nil {
		return false, capability.MarkTransient(fmt.Errorf("smtp send error: %w", err))
	}
	return true, nil
}

// buildMessage assembles the headers and body.
func (n *EmailNotifier) buildMessage(message, title string) []byte {
	subject := title
	if subject == "" {
		subject = "Notification"
	}
	if n.subjectPrefix != "" {
		subject = n.subjectPrefix + " " + subject
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(message)
	b.WriteString("\r\n")
	return []byte(b.String())
}
