package service

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestResetMailLink(t *testing.T) {
	viper.Set("host.domain", "blog.example.com")
	viper.Set("host.ssl.enabled", true)
	t.Cleanup(viper.Reset)

	m := ResetMail("jo@example.com", "tok.en.value")

	assert.Equal(t, "jo@example.com", m.To)
	assert.Equal(t, "Password Reset Request", m.Subject)
	assert.Contains(t, m.Body, "https://blog.example.com/reset_password/tok.en.value\n")
	assert.Contains(t, m.Body, "simply ignore this email")
}

func TestBaseURLPlain(t *testing.T) {
	viper.Set("host.domain", "localhost:8080")
	t.Cleanup(viper.Reset)

	assert.Equal(t, "http://localhost:8080", BaseURL())
}

func TestSMTPMailerRejectsEmptyRecipient(t *testing.T) {
	viper.Set("mail.sender_address", "noreply@example.com")
	t.Cleanup(viper.Reset)

	err := NewSMTPMailer().Send(&Mail{Subject: "x"})
	assert.Error(t, err)
}
