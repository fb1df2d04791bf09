// Package mail はSMTPでメールを送る。
package mail

import (
	"campusmarket/internal/config"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Sender interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return errors.Wrapf(err, "send mail to %s", to)
	}
	return nil
}

// SMTP_HOST未設定のとき。ログに残すだけ
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	zap.L().Info("mail disabled, message dropped", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// New は設定に応じて送信先を選ぶ
func New(cfg config.MailConfig) Sender {
	if !cfg.Enabled() {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}
