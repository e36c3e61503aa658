package utils

import (
	"fmt"
	"html"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"coursehub/config"
	"coursehub/logger"
	"coursehub/models"
)

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(toEmail, toName, subject, htmlBody string) error
}

type sendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

// logMailer is used when no SendGrid key is configured.
type logMailer struct {
	log *logger.Logger
}

// NewMailer returns a SendGrid mailer, or one that only logs when SENDGRID_API_KEY is empty.
func NewMailer(cfg *config.Config, log *logger.Logger) Mailer {
	if cfg.SendgridAPIKey == "" {
		log.Warn("SENDGRID_API_KEY is empty, emails will only be logged")
		return &logMailer{log: log}
	}
	return &sendgridMailer{
		client: sendgrid.NewSendClient(cfg.SendgridAPIKey),
		from:   mail.NewEmail(cfg.EmailSenderName, cfg.EmailSender),
	}
}

func (m *sendgridMailer) Send(toEmail, toName, subject, htmlBody string) error {
	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail(toName, toEmail), "", htmlBody)
	res, err := m.client.Send(msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func (m *logMailer) Send(toEmail, _, subject, _ string) error {
	m.log.Info("email not sent, mailer disabled", "to", toEmail, "subject", subject)
	return nil
}

// HTML wrapper shared by all notifications
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1B3A57; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1B3A57; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #3A7BD5; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>COURSEHUB</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				You are receiving this email because you have an account on CourseHub.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// EnrollmentEmail renders the confirmation sent after a course is paid for.
func EnrollmentEmail(name, courseTitle string, amount int64) (subject, body string) {
	subject = "Enrollment Confirmed: " + courseTitle
	content := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You are now enrolled in <strong>%s</strong>.</p>
		<div class="info-box">
			<strong>Amount paid:</strong> %d
		</div>
		<p>You have also been added to the course study group.</p>
	`, html.EscapeString(name), html.EscapeString(courseTitle), amount)
	return subject, getEmailTemplate("Enrollment Successful", content)
}

// SendEnrollmentEmail sends the confirmation on its own goroutine.
func SendEnrollmentEmail(m Mailer, log *logger.Logger, user models.User, course models.Course, amount int64) {
	if m == nil {
		return
	}
	subject, body := EnrollmentEmail(user.Name, course.Title, amount)
	go func() {
		if err := m.Send(user.Email, user.Name, subject, body); err != nil {
			log.Error("sending enrollment email", "user_id", user.ID, "course_id", course.ID, "error", err)
		}
	}()
}
