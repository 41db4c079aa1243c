// Package email sends notification mail over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/config"
)

var ErrNotConfigured = errors.New("smtp server is not configured")

type Message struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
	HTML    bool
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	cfg      config.SMTPConfig
	logger   *zap.Logger
	sendMail sendFunc
	now      func() time.Time
}

func NewSender(cfg config.SMTPConfig, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.FromName == "" {
		cfg.FromName = "ERP System"
	}
	return &Sender{cfg: cfg, logger: logger.Named("email"), sendMail: smtp.SendMail, now: time.Now}
}

func (s *Sender) configured() bool {
	return s.cfg.Server != "" && s.cfg.FromEmail != ""
}

// Send delivers m to every To, Cc and Bcc recipient. It reports false with
// ErrNotConfigured when no server is set.
func (s *Sender) Send(ctx context.Context, m Message) (bool, error) {
	if !s.configured() {
		s.logger.Warn("email not sent, smtp is not configured", zap.String("subject", m.Subject))
		return false, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	rcpts := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	for _, list := range [][]string{m.To, m.Cc, m.Bcc} {
		for _, addr := range list {
			if addr = strings.TrimSpace(addr); addr != "" {
				rcpts = append(rcpts, addr)
			}
		}
	}
	if len(rcpts) == 0 {
		return false, errors.New("email has no recipients")
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Server)
	}

	addr := net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.Port))
	if err := s.sendMail(addr, auth, s.cfg.FromEmail, rcpts, s.render(m)); err != nil {
		return false, fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent", zap.Strings("to", m.To), zap.String("subject", m.Subject))
	return true, nil
}

// SendEmail is the single-recipient form used by jobs. Failures are logged.
func (s *Sender) SendEmail(ctx context.Context, to, subject, body string, isHTML bool) bool {
	return s.SendEmailMulti(ctx, []string{to}, subject, body, isHTML)
}

func (s *Sender) SendEmailMulti(ctx context.Context, to []string, subject, body string, isHTML bool) bool {
	ok, err := s.Send(ctx, Message{To: to, Subject: subject, Body: body, HTML: isHTML})
	if err != nil && !errors.Is(err, ErrNotConfigured) {
		s.logger.Error("failed to send email", zap.Strings("to", to), zap.String("subject", subject), zap.Error(err))
	}
	return ok
}

// render builds the RFC 5322 message. Bcc never appears in the headers.
func (s *Sender) render(m Message) []byte {
	from := mail.Address{Name: s.cfg.FromName, Address: s.cfg.FromEmail}

	contentType := "text/plain"
	if m.HTML {
		contentType = "text/html"
	}

	var b strings.Builder
	b.WriteString("From: " + from.String() + "\r\n")
	b.WriteString("To: " + strings.Join(m.To, ", ") + "\r\n")
	if len(m.Cc) > 0 {
		b.WriteString("Cc: " + strings.Join(m.Cc, ", ") + "\r\n")
	}
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", m.Subject) + "\r\n")
	b.WriteString("Date: " + s.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: " + contentType + "; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.Body)
	return []byte(b.String())
}
