package service

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Mail is a plain text message
type Mail struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(m *Mail) error
}

// SMTPMailer delivers mails through the configured SMTP server
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer() *SMTPMailer {
	from := viper.GetString("mail.sender_address")
	if from == "" {
		from = viper.GetString("mail.username")
	}

	return &SMTPMailer{
		dialer: gomail.NewDialer(
			viper.GetString("mail.host"),
			viper.GetInt("mail.port"),
			viper.GetString("mail.username"),
			viper.GetString("mail.password"),
		),
		from: from,
	}
}

func (s *SMTPMailer) Send(m *Mail) error {
	if m.To == "" || m.To == s.from {
		return errors.New("invalid email address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail, %w", err)
	}

	return nil
}

// BaseURL is the externally visible address of the app, built from
// host.domain and host.ssl.enabled
func BaseURL() string {
	scheme := "http"
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, viper.GetString("host.domain"))
}

// ResetMail builds the message that carries a password reset link
func ResetMail(to, token string) *Mail {
	link := fmt.Sprintf("%s/reset_password/%s", BaseURL(), token)

	return &Mail{
		To:      to,
		Subject: "Password Reset Request",
		Body: fmt.Sprintf("To reset your password, visit the following link:\n%s\n\n"+
			"This link will expire in 30 minutes and can only be used once.\n\n"+
			"If you did not make this request then simply ignore this email and no changes will be made.\n", link),
	}
}
