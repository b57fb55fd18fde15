package utils

import (
	"fmt"
	"html"
	"strings"

	"farm-store/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends transactional email
type Mailer interface {
	SendEmail(toEmail, subject, htmlContent string) error
}

// NewMailer returns the Mailer for cfg.EmailProvider, or a NopMailer when
// email is disabled.
func NewMailer(cfg *Config) (Mailer, error) {
	switch cfg.EmailProvider {
	case "":
		return NopMailer{}, nil
	case "postmark":
		return NewPostmarkMailer(cfg.PostmarkToken, cfg.EmailSender), nil
	case "sendgrid":
		return NewSendgridMailer(cfg.SendgridKey, cfg.EmailSender), nil
	}
	return nil, fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
}

// NopMailer drops every email
type NopMailer struct{}

// SendEmail does nothing
func (NopMailer) SendEmail(string, string, string) error { return nil }

// PostmarkMailer handles sending emails using Postmark
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

// NewPostmarkMailer creates a Postmark backed Mailer
func NewPostmarkMailer(serverToken, from string) *PostmarkMailer {
	return &PostmarkMailer{client: postmark.NewClient(serverToken, ""), from: from}
}

// SendEmail sends htmlContent to toEmail
func (pm *PostmarkMailer) SendEmail(toEmail, subject, htmlContent string) error {
	_, err := pm.client.SendEmail(postmark.Email{
		From:     pm.from,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendgridMailer handles sending emails using SendGrid
type SendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendgridMailer creates a SendGrid backed Mailer
func NewSendgridMailer(apiKey, from string) *SendgridMailer {
	return &SendgridMailer{client: sendgrid.NewSendClient(apiKey), from: mail.NewEmail("Farm Store", from)}
}

// SendEmail sends htmlContent to toEmail
func (sm *SendgridMailer) SendEmail(toEmail, subject, htmlContent string) error {
	message := mail.NewSingleEmail(sm.from, subject, mail.NewEmail("", toEmail), htmlContent, htmlContent)
	resp, err := sm.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("failed to send email: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// NewOrderNotification renders the email the farm receives for a new order
func NewOrderNotification(sub *models.OrderSubmission) (subject, htmlContent string) {
	c := sub.Customer
	subject = fmt.Sprintf("New order from %s %s", c.FirstName, c.LastName)

	var b strings.Builder
	fmt.Fprintf(&b, "<strong>Order %s</strong><br><br>", html.EscapeString(sub.OrderID))
	fmt.Fprintf(&b, "Customer: %s %s<br>Phone: %s<br>",
		html.EscapeString(c.FirstName), html.EscapeString(c.LastName), html.EscapeString(c.Phone))
	if c.Location != "" {
		fmt.Fprintf(&b, "Location: %s<br>", html.EscapeString(c.Location))
	}
	b.WriteString("<br><ul>")
	for _, line := range sub.Lines {
		fmt.Fprintf(&b, "<li>%d x %s @ KSH %s</li>", line.Quantity, html.EscapeString(line.ProductName), line.UnitPrice.StringFixed(2))
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "Total: <strong>KSH %s</strong>", sub.Total.StringFixed(2))

	return subject, b.String()
}
