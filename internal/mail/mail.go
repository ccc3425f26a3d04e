package mail

import (
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/uptask/uptask-server/internal/config"
)

// Mailer delivers account emails through the configured SMTP relay.
type Mailer struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
}

func NewMailer(conf *config.Config) *Mailer {
	return &Mailer{
		dialer:      gomail.NewDialer(conf.SMTP_HOST, conf.SMTP_PORT, conf.SMTP_USER, conf.SMTP_PASS),
		from:        conf.SMTP_FROM,
		frontendURL: conf.FRONTEND_URL,
	}
}

// SendConfirmation emails the 6-digit confirmation code to a new account.
func (m *Mailer) SendConfirmation(name, email, code string) error {
	return m.send(email, "Uptask - Confirm your account", ConfirmationBody(name, code, m.frontendURL))
}

// SendPasswordReset emails the password reset code.
func (m *Mailer) SendPasswordReset(name, email, code string) error {
	return m.send(email, "Uptask - Reset your password", PasswordResetBody(name, code, m.frontendURL))
}

func (m *Mailer) send(to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Message sent", slog.String("to", to), slog.String("subject", subject))
	return nil
}

func ConfirmationBody(name, code, frontendURL string) string {
	return fmt.Sprintf(`<p>Hello %s, you have created your account, thankyou for that, please confirm your account using this verification code: </p>
        <p>Please click on the next link:</p>
        <a href="%s/auth/confirm-account"> Confirm account</a>
        <p>And enter the following code <b>%s</b></p>
        <p>This token expires in 10 minutes</p>
      `, name, frontendURL, code)
}

func PasswordResetBody(name, code, frontendURL string) string {
	return fmt.Sprintf(`<p>Hello %s, you have requested a token to reset your password: </p>
        <p>Please click on the next link:</p>
        <a href="%s/auth/new-password"> Reset password</a>
        <p>Enter the following code <b>%s</b></p>
        <p>This token expires in 10 minutes</p>
      `, name, frontendURL, code)
}
