package email

import (
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog"
)

// Mailer defines the outbound mail operations the application needs.
type Mailer interface {
	SendVerificationCode(toEmail, code string) error
	SendPasswordResetCode(toEmail, code string) error
}

// SMTPConfig holds configuration for the SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

// SMTPMailer implements Mailer over plain SMTP.
type SMTPMailer struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(config SMTPConfig, logger zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{config: config, logger: logger}
}

// SendVerificationCode mails a registration verification code.
func (s *SMTPMailer) SendVerificationCode(toEmail, code string) error {
	subject := "Your Speexify verification code"
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Welcome to Speexify!</h2>
				<p>Your verification code is: <strong>%s</strong></p>
				<p>This code will expire in 10 minutes.</p>
				<p>If you did not request an account, please ignore this email.</p>
				<p>Best regards,<br>The Speexify Team</p>
			</div>
		</body>
		</html>
	`, code)
	return s.send(toEmail, subject, body, code)
}

// SendPasswordResetCode mails a password reset code.
func (s *SMTPMailer) SendPasswordResetCode(toEmail, code string) error {
	subject := "Your Speexify password reset code"
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Password reset requested</h2>
				<p>Your password reset code is: <strong>%s</strong></p>
				<p>This code will expire in 10 minutes.</p>
				<p>If you did not request a reset, you can safely ignore this email.</p>
				<p>Best regards,<br>The Speexify Team</p>
			</div>
		</body>
		</html>
	`, code)
	return s.send(toEmail, subject, body, code)
}

func (s *SMTPMailer) send(toEmail, subject, htmlBody, code string) error {
	// Without SMTP credentials, log the code instead of sending (development
	// setups).
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("code", code).
			Msg("SMTP credentials not configured - email not sent. Use the code above for testing.")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail),
		"To":           toEmail,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	message := ""
	for key, value := range headers {
		message += fmt.Sprintf("%s: %s\r\n", key, value)
	}
	message += "\r\n" + htmlBody

	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)
	err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, []string{toEmail}, []byte(message))
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
