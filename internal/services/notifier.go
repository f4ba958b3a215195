package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wefixit/wefixit-backend/internal/config"
	"github.com/wefixit/wefixit-backend/internal/metrics"
	"github.com/wefixit/wefixit-backend/internal/models"
)

// ErrMailDisabled is returned when no SMTP settings are configured.
var ErrMailDisabled = errors.New("email is not configured")

const (
	notifyContact = "contact"
	notifyQuote   = "quote"
	notifyReply   = "quote_reply"
)

// Notifier sends plain-text emails about submissions and quote replies.
type Notifier struct {
	cfg     config.MailConfig
	logger  *logrus.Logger
	metrics *metrics.Metrics
	dialer  *net.Dialer
	now     func() time.Time
}

func NewNotifier(cfg config.MailConfig, logger *logrus.Logger, m *metrics.Metrics) *Notifier {
	if !cfg.Enabled() {
		logger.Warn("SMTP not configured, email notifications disabled")
	}
	return &Notifier{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		dialer:  &net.Dialer{Timeout: 10 * time.Second},
		now:     time.Now,
	}
}

// NotifyContact tells the operator about a new contact submission.
func (n *Notifier) NotifyContact(ctx context.Context, c *models.Contact) error {
	subject := fmt.Sprintf("📧 New Contact Form Submission from %s", c.FullName())

	var b strings.Builder
	b.WriteString("You received a new contact form submission:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", c.FullName())
	fmt.Fprintf(&b, "Email: %s\n", c.Email)
	fmt.Fprintf(&b, "Company: %s\n", c.Company)
	fmt.Fprintf(&b, "Subject: %s\n\n", c.Subject)
	fmt.Fprintf(&b, "Message:\n%s\n\n", c.Message)
	fmt.Fprintf(&b, "Submitted at: %s\n", c.CreatedAt.Format(time.RFC3339))

	return n.send(ctx, notifyContact, n.cfg.To, subject, b.String())
}

// NotifyQuote tells the operator about a new quote request.
func (n *Notifier) NotifyQuote(ctx context.Context, q *models.Quote) error {
	subject := fmt.Sprintf("📩 New Quote Request from %s", q.Name)

	var b strings.Builder
	b.WriteString("You received a new quote request:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", q.Name)
	fmt.Fprintf(&b, "Email: %s\n", q.Email)
	fmt.Fprintf(&b, "Phone: %s\n", q.Phone)
	fmt.Fprintf(&b, "Company: %s\n\n", q.Company)
	fmt.Fprintf(&b, "Service: %s\n", q.ServiceType)
	fmt.Fprintf(&b, "Project Title: %s\n", q.ProjectTitle)
	fmt.Fprintf(&b, "Description: %s\n\n", q.Description)
	fmt.Fprintf(&b, "Features: %s\n", strings.Join(q.Features, ", "))
	fmt.Fprintf(&b, "Timeline: %s\n", q.Timeline)
	fmt.Fprintf(&b, "Budget: %s\n\n", q.Budget)
	fmt.Fprintf(&b, "Has Existing Website: %s\n", q.HasExistingWebsite)
	fmt.Fprintf(&b, "Preferred Style: %s\n", q.PreferredStyle)
	fmt.Fprintf(&b, "Target Audience: %s\n", q.TargetAudience)
	fmt.Fprintf(&b, "Additional Notes: %s\n\n", q.AdditionalNotes)
	fmt.Fprintf(&b, "Submitted at: %s\n", q.CreatedAt.Format(time.RFC3339))

	return n.send(ctx, notifyQuote, n.cfg.To, subject, b.String())
}

// SendQuoteReply emails an admin reply to the requester.
func (n *Notifier) SendQuoteReply(ctx context.Context, q *models.Quote, content string) error {
	subject := fmt.Sprintf("💬 Reply to your Quote Request - %s", q.ProjectTitle)
	body := fmt.Sprintf("Hi %s,\n\n%s\n\n---\n%s Team\n", q.Name, content, n.cfg.FromName)

	return n.send(ctx, notifyReply, q.Email, subject, body)
}

func (n *Notifier) send(ctx context.Context, kind, to, subject, body string) error {
	if !n.cfg.Enabled() {
		n.logger.WithField("kind", kind).Debug("Skipping email, SMTP not configured")
		return ErrMailDisabled
	}

	msg, err := composeMessage(n.cfg, to, subject, body, n.now())
	if err != nil {
		return err
	}

	err = n.deliver(ctx, to, msg)
	n.metrics.Notification(kind, err)
	if err != nil {
		return fmt.Errorf("send %s email: %w", kind, err)
	}
	n.logger.WithFields(logrus.Fields{"kind": kind, "to": to}).Info("Email sent")
	return nil
}

func (n *Notifier) deliver(ctx context.Context, to string, msg []byte) error {
	conn, err := n.dialer.DialContext(ctx, "tcp", n.cfg.Addr())
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	tlsConfig := &tls.Config{ServerName: n.cfg.Host, MinVersion: tls.VersionTLS12}

	var c *smtp.Client
	switch {
	case n.cfg.ImplicitTLS:
		c = smtp.NewClient(tls.Client(conn, tlsConfig))
	case n.cfg.StartTLS:
		c, err = smtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			conn.Close()
			return fmt.Errorf("starttls: %w", err)
		}
	default:
		c = smtp.NewClient(conn)
	}
	defer c.Close()

	if n.cfg.Username != "" && n.cfg.Password != "" {
		if err := c.Auth(sasl.NewPlainClient("", n.cfg.Username, n.cfg.Password)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.SendMail(n.cfg.Username, []string{to}, bytes.NewReader(msg)); err != nil {
		return err
	}
	return c.Quit()
}

// composeMessage renders a single-part text/plain message.
func composeMessage(cfg config.MailConfig, to, subject, body string, now time.Time) ([]byte, error) {
	from := mail.Address{Name: cfg.FromName, Address: cfg.Username}
	domain := "localhost"
	if _, d, ok := strings.Cut(cfg.Username, "@"); ok && d != "" {
		domain = d
	}

	var buf bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }
	header("From", from.String())
	header("To", (&mail.Address{Address: to}).String())
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domain))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(strings.ReplaceAll(body, "\n", "\r\n"))); err != nil {
		return nil, fmt.Errorf("encode email body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("encode email body: %w", err)
	}
	return buf.Bytes(), nil
}
