package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wefixit/wefixit-backend/internal/config"
	"github.com/wefixit/wefixit-backend/internal/logging"
	"github.com/wefixit/wefixit-backend/internal/metrics"
	"github.com/wefixit/wefixit-backend/internal/models"
)

type capturedMail struct {
	from string
	to   []string
	data []byte
}

type captureBackend struct {
	mu       sync.Mutex
	username string
	password string
	messages []capturedMail
}

func (b *captureBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &captureSession{backend: b}, nil
}

func (b *captureBackend) received() []capturedMail {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]capturedMail(nil), b.messages...)
}

type captureSession struct {
	backend *captureBackend
	authed  bool
	msg     capturedMail
}

func (s *captureSession) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *captureSession) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if username != s.backend.username || password != s.backend.password {
			return errors.New("invalid credentials")
		}
		s.authed = true
		return nil
	}), nil
}

func (s *captureSession) Mail(from string, _ *smtp.MailOptions) error {
	if !s.authed {
		return smtp.ErrAuthRequired
	}
	s.msg.from = from
	return nil
}

func (s *captureSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.msg.to = append(s.msg.to, to)
	return nil
}

func (s *captureSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.msg.data = data

	s.backend.mu.Lock()
	s.backend.messages = append(s.backend.messages, s.msg)
	s.backend.mu.Unlock()
	return nil
}

func (s *captureSession) Reset()        { s.msg = capturedMail{} }
func (s *captureSession) Logout() error { return nil }

func startSMTPServer(t *testing.T) (*captureBackend, config.MailConfig) {
	t.Helper()

	backend := &captureBackend{username: "site@wefixit.test", password: "app-password"}
	srv := smtp.NewServer(backend)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })

	return backend, config.MailConfig{
		Host:     "127.0.0.1",
		Port:     ln.Addr().(*net.TCPAddr).Port,
		Username: backend.username,
		Password: backend.password,
		FromName: "WeFixIt",
		To:       "ops@wefixit.test",
	}
}

func decodeMessage(t *testing.T, raw []byte) (subject, body string, header mail.Header) {
	t.Helper()
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err = new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)

	data, err := io.ReadAll(quotedprintable.NewReader(msg.Body))
	require.NoError(t, err)
	return subject, strings.ReplaceAll(string(data), "\r\n", "\n"), msg.Header
}

func TestNotifierSendsContactNotification(t *testing.T) {
	backend, cfg := startSMTPServer(t)
	m := metrics.New(prometheus.NewRegistry())
	n := NewNotifier(cfg, logging.Discard(), m)

	contact := &models.Contact{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Subject:   "New site",
		Message:   "Can you help?",
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, n.NotifyContact(context.Background(), contact))

	msgs := backend.received()
	require.Len(t, msgs, 1)
	assert.Equal(t, "site@wefixit.test", msgs[0].from)
	assert.Equal(t, []string{"ops@wefixit.test"}, msgs[0].to)

	subject, body, header := decodeMessage(t, msgs[0].data)
	assert.Equal(t, "📧 New Contact Form Submission from Ada Lovelace", subject)
	assert.Contains(t, body, "Name: Ada Lovelace")
	assert.Contains(t, body, "Message:\nCan you help?")
	assert.Contains(t, body, "Submitted at: 2024-03-01T10:00:00Z")
	assert.Equal(t, `"WeFixIt" <site@wefixit.test>`, header.Get("From"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("contact", "sent")))
}

func TestNotifierSendsQuoteReplyToRequester(t *testing.T) {
	backend, cfg := startSMTPServer(t)
	n := NewNotifier(cfg, logging.Discard(), nil)

	quote := &models.Quote{Name: "Bob", Email: "bob@example.com", ProjectTitle: "Shop"}
	require.NoError(t, n.SendQuoteReply(context.Background(), quote, "Thanks!"))

	msgs := backend.received()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"bob@example.com"}, msgs[0].to)

	subject, body, _ := decodeMessage(t, msgs[0].data)
	assert.Equal(t, "💬 Reply to your Quote Request - Shop", subject)
	assert.Contains(t, body, "Hi Bob,")
	assert.Contains(t, body, "Thanks!")
	assert.Contains(t, body, "WeFixIt Team")
}

func TestNotifierRejectsBadCredentials(t *testing.T) {
	_, cfg := startSMTPServer(t)
	cfg.Password = "wrong"
	m := metrics.New(prometheus.NewRegistry())
	n := NewNotifier(cfg, logging.Discard(), m)

	err := n.NotifyQuote(context.Background(), &models.Quote{Name: "Bob"})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("quote", "failed")))
}

func TestNotifierDisabled(t *testing.T) {
	n := NewNotifier(config.MailConfig{}, logging.Discard(), nil)

	err := n.SendQuoteReply(context.Background(), &models.Quote{Email: "bob@example.com"}, "hi")
	assert.ErrorIs(t, err, ErrMailDisabled)
}

func TestNotifierUnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	n := NewNotifier(config.MailConfig{
		Host:     "127.0.0.1",
		Port:     port,
		Username: "site@wefixit.test",
		To:       "ops@wefixit.test",
	}, logging.Discard(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, n.NotifyContact(ctx, &models.Contact{FirstName: "Ada"}))
}
