package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/config"
)

// Mail is a single outbound HTML message.
type Mail struct {
	To      *mail.Address
	Subject string
	HTML    string
}

// Mailer delivers mail.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// NewMailer returns an SMTP mailer when mail is enabled, otherwise a LogMailer.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if !cfg.Enabled {
		return &LogMailer{logger: logger}
	}
	return NewSMTPMailer(cfg)
}

// LogMailer records mail in the log instead of sending it.
type LogMailer struct {
	logger *zap.Logger
}

func (l *LogMailer) Send(_ context.Context, m Mail) error {
	if m.To == nil {
		return fmt.Errorf("no recipient specified")
	}
	l.logger.Info("mail delivery disabled, message logged",
		zap.String("to", m.To.Address),
		zap.String("subject", m.Subject))
	return nil
}

// SMTPMailer composes MIME messages and delivers them over SMTP.
type SMTPMailer struct {
	cfg  config.MailConfig
	from *mail.Address
	now  func() time.Time
}

// NewSMTPMailer builds a mailer for cfg.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:  cfg,
		from: &mail.Address{Name: "Support Portal", Address: cfg.From},
		now:  time.Now,
	}
}

// Compose renders m as an RFC 5322 message.
func (s *SMTPMailer) Compose(m Mail) ([]byte, error) {
	if m.To == nil || m.To.Address == "" {
		return nil, fmt.Errorf("no recipient specified")
	}

	var h mail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*mail.Address{s.from})
	h.SetAddressList("To", []*mail.Address{m.To})
	h.SetSubject(m.Subject)
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message writer: %w", err)
	}
	if _, err := io.WriteString(w, m.HTML); err != nil {
		return nil, fmt.Errorf("write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close message writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Send delivers m. The context bounds the whole SMTP session.
func (s *SMTPMailer) Send(ctx context.Context, m Mail) error {
	raw, err := s.Compose(m)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- s.deliver(m.To.Address, raw) }()

	select {
	case <-ctx.Done():
		return fmt.Errorf("send mail: %w", ctx.Err())
	case err := <-done:
		return err
	}
}

func (s *SMTPMailer) deliver(to string, raw []byte) error {
	client, err := s.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if s.cfg.SMTPUser != "" && s.cfg.SMTPPass != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp authentication failed: %w", err)
		}
	}
	if err := client.Mail(s.from.Address); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", to, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data transfer: %w", err)
	}
	return client.Quit()
}

func (s *SMTPMailer) dial() (*smtp.Client, error) {
	addr := s.cfg.SMTPHost + ":" + strconv.Itoa(s.cfg.SMTPPort)
	tlsConfig := &tls.Config{
		ServerName:         s.cfg.SMTPHost,
		InsecureSkipVerify: s.cfg.SkipVerify,
	}

	if s.cfg.TLSMode == "smtps" {
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect via SMTPS: %w", err)
		}
		client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create SMTP client: %w", err)
		}
		return client, nil
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if s.cfg.TLSMode == "starttls" {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	return client, nil
}
