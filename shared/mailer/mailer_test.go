package mailer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	err := Config{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_HOST")
	assert.Contains(t, err.Error(), "SMTP_PORT")
	assert.Contains(t, err.Error(), "SMTP_FROM")

	assert.NoError(t, Config{Host: "smtp.local", Port: 25, From: "noreply@x.com"}.Validate())
}

func TestNewMailer_InvalidConfig(t *testing.T) {
	_, err := NewMailer(Config{Host: "smtp.local"})
	assert.Error(t, err)
}

func TestMailer_SendWithoutRecipients(t *testing.T) {
	m, err := NewMailer(Config{Host: "smtp.local", Port: 25, From: "noreply@x.com"})
	require.NoError(t, err)

	assert.Error(t, m.Send(Email{Subject: "hi"}))
}

func TestMailer_NewMessage(t *testing.T) {
	m, err := NewMailer(Config{Host: "smtp.local", Port: 25, From: "noreply@x.com"})
	require.NoError(t, err)

	msg := m.newMessage(Email{
		To:       []string{"a@x.com"},
		Subject:  "Verify your account",
		HTMLBody: "<p>123456</p>",
		Body:     "123456",
	})

	assert.Equal(t, []string{"noreply@x.com"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"a@x.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Verify your account"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/html")
	assert.Contains(t, buf.String(), "text/plain")
}
