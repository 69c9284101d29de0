package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/pkg/circuitbreaker"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

// SendFunc hands a composed message to the mail server
type SendFunc func(ctx context.Context, msg *mail.Msg) error

// MailService delivers plain text email through SMTP
type MailService struct {
	cfg     config.SMTPConfig
	send    SendFunc
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewMailService creates a new mail service. An empty SMTP host disables delivery.
func NewMailService(cfg config.SMTPConfig, logger *zap.Logger) *MailService {
	s := &MailService{
		cfg: cfg,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:        "smtp",
			MaxFailures: 5,
			Cooldown:    time.Minute,
			Probes:      1,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				logger.Info("smtp circuit breaker state changed",
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		logger: logger,
	}
	s.send = s.dialAndSend
	return s
}

// Enabled reports whether an SMTP host is configured
func (s *MailService) Enabled() bool {
	return s.cfg.Host != ""
}

// Send delivers msg. Without an SMTP host the message is logged and dropped.
func (s *MailService) Send(ctx context.Context, msg *domain.EmailMessage) error {
	if !s.Enabled() {
		s.logger.Debug("smtp disabled, dropping email", zap.String("subject", msg.Subject))
		return nil
	}

	m, err := s.compose(msg)
	if err != nil {
		return err
	}
	return s.breaker.Execute(ctx, func() error {
		return s.send(ctx, m)
	})
}

// compose builds the MIME message. Subjects are RFC 2047 encoded.
func (s *MailService) compose(msg *domain.EmailMessage) (*mail.Msg, error) {
	if msg.To == "" {
		return nil, apperrors.Validation("email has no recipient")
	}

	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", s.cfg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("invalid recipient address %q", msg.To))
	}
	m.Subject(sanitizeHeader(msg.Subject))
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

func (s *MailService) dialAndSend(ctx context.Context, m *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client for %s: %w", s.cfg.Addr(), err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", s.cfg.Addr(), err)
	}
	return nil
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
