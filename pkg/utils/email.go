package utils

import (
	"errors"
	"fmt"
	"html"
	"log"
	"net/smtp"
	"strings"
)

// EmailSettings holds the SMTP account outgoing mail is sent from.
type EmailSettings struct {
	From     string
	Password string
	Host     string
	Port     string
	BaseURL  string
}

var (
	emailFrom     string
	emailPassword string
	smtpHost      string
	smtpPort      string
	companyName   = "Tourbook"
	baseURL       string
)

// ConfigureEmail sets the SMTP account. Until it is called with a complete
// account every send fails with ErrEmailNotConfigured.
func ConfigureEmail(s EmailSettings) {
	emailFrom = s.From
	emailPassword = s.Password
	smtpHost = s.Host
	smtpPort = s.Port
	baseURL = s.BaseURL
}

// EmailConfigured reports whether an SMTP account is set.
func EmailConfigured() bool {
	return emailFrom != "" && emailPassword != "" && smtpHost != "" && smtpPort != ""
}

var ErrEmailNotConfigured = errors.New("email configuration not set")

// Common header template for all emails
const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<h2 style="color: #6C3FC5; margin: 0;">Tourbook</h2>
		</div>
`

// Common footer template for all emails
const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>Sent on behalf of the artist through Tourbook.</p>
		</div>
	</div>
</body>
</html>
`

var sendMail = smtp.SendMail

func sendEmail(to []string, subject, body string) error {
	if !EmailConfigured() {
		return ErrEmailNotConfigured
	}

	// Headers
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", companyName, emailFrom)
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"
	headers["X-Mailer"] = "Tourbook-Mailer"

	// Build message
	message := ""
	for key, value := range headers {
		message += fmt.Sprintf("%s: %s\r\n", key, value)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", emailFrom, emailPassword, smtpHost)

	err := sendMail(smtpHost+":"+smtpPort, auth, emailFrom, to, []byte(message))
	if err != nil {
		log.Printf("Failed to send email: %v", err)
		return err
	}

	log.Printf("Successfully sent email to recipients: %v", to)
	return nil
}

// htmlParagraphs escapes plain text and turns blank-line separated blocks
// into paragraphs.
func htmlParagraphs(text string) string {
	var b strings.Builder
	for _, block := range strings.Split(strings.TrimSpace(text), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		escaped := strings.ReplaceAll(html.EscapeString(block), "\n", "<br>")
		b.WriteString("<p>" + escaped + "</p>\n")
	}
	return b.String()
}

// SendVenueEmail sends a drafted plain-text message to a venue contact.
func SendVenueEmail(to, subject, message string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("venue email address is empty")
	}
	body := emailHeader + `
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
` + htmlParagraphs(message) + `
				</div>` + emailFooter
	return sendEmail([]string{to}, subject, body)
}

// SendStageAdvancedEmail tells the booking owner a booking moved forward.
func SendStageAdvancedEmail(ownerEmail, venueName, stageLabel, nextStep string) error {
	subject := fmt.Sprintf("%s moved to %s - Tourbook", venueName, stageLabel)
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Booking Updated</h1>
					<p>Hello,</p>
					<p>Your booking at <strong>%s</strong> is now at the <strong>%s</strong> stage.</p>
					<p>Next step: %s.</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/bookings" style="background-color: #6C3FC5; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">Open Bookings</a>
					</div>
					<p>Best regards,<br>The Tourbook Team</p>
				</div>`+emailFooter,
		html.EscapeString(venueName), html.EscapeString(stageLabel), html.EscapeString(nextStep), baseURL)
	return sendEmail([]string{ownerEmail}, subject, body)
}
