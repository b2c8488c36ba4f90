// Package managers handles the sending of account emails using the Mailgun
// service and the Hermes package for email formatting.
package managers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/matcornic/hermes/v2"
	log "github.com/sirupsen/logrus"
)

// MailMgr outlines the contract for email management. It includes methods for
// sending verification and password reset emails.
type MailMgr interface {
	SendVerificationMail(email, token string) error
	SendPasswordResetMail(email, token string) error
}

// MailManager is a concrete implementation of the MailMgr interface.
// It uses the Mailgun service for sending emails and the Hermes package for
// formatting emails.
type MailManager struct {
	Hermes    *hermes.Hermes
	Mailgun   *mailgun.MailgunImpl
	ServerURL string
}

var from = "Contacts Server <no-reply@mail.contacts-server.dev>"
var environment string

// SendVerificationMail sends a mail with a link that verifies the recipient's
// email address. Outside production the mail is skipped.
func (mm *MailManager) SendVerificationMail(email, token string) error {
	if environment != "production" {
		log.Info("Skipping verification mail in development mode")
		return nil
	}

	verifyLink := fmt.Sprintf("%s/api/users/verify?token=%s", mm.ServerURL, token)
	mailBody := hermes.Email{
		Body: hermes.Body{
			Greeting: "Hello",
			Intros: []string{
				"Welcome to Contacts Server! We're very excited to have you on board.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "To verify your email address, please click the button below. The link expires after 30 minutes.",
					Button: hermes.Button{
						Text: "Verify your email",
						Link: verifyLink,
					},
				},
			},
			Outros: []string{
				"If you did not create an account, no further action is required.",
			},
		},
	}

	return mm.send(email, "Verify your email address", mailBody)
}

// SendPasswordResetMail sends a mail carrying a password reset token.
// Outside production the mail is skipped.
func (mm *MailManager) SendPasswordResetMail(email, token string) error {
	if environment != "production" {
		log.Info("Skipping password reset mail in development mode")
		return nil
	}

	mailBody := hermes.Email{
		Body: hermes.Body{
			Greeting: "Hello",
			Intros: []string{
				"You have received this email because a password reset request for your account was received.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "Use the following code to reset your password. It expires after one hour:",
					InviteCode:   token,
				},
			},
			Outros: []string{
				"If you did not request a password reset, no further action is required.",
			},
		},
	}

	return mm.send(email, "Reset your password", mailBody)
}

func (mm *MailManager) send(email, subject string, mailBody hermes.Email) error {
	emailBody, err := mm.Hermes.GenerateHTML(mailBody)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(5*time.Second))
	defer cancel()

	message := mm.Mailgun.NewMessage(from, subject, "", email)
	message.SetHtml(emailBody)
	_, _, err = mm.Mailgun.Send(ctx, message)
	if err != nil {
		log.Warning("Error sending mail: " + err.Error())
		return err
	}
	log.Debug("Mail sent to ", email)

	return nil
}

// NewMailManager initializes a new MailManager with configured Mailgun and
// Hermes settings. It checks the runtime environment to determine whether
// emails should actually be sent.
func NewMailManager() MailMgr {
	log.Info("Initializing mail manager")
	environment = os.Getenv("ENVIRONMENT")

	if environment != "production" {
		log.Println("Running in development mode, email will not be sent to users")
	}

	apiKey := os.Getenv("MAILGUN_API_KEY")
	mailDomain := os.Getenv("MAIL_DOMAIN")
	if mailDomain == "" {
		mailDomain = "mail.contacts-server.dev"
	}
	mailgunInstance := mailgun.NewMailgun(mailDomain, apiKey)

	serverURL := os.Getenv("SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}

	mm := &MailManager{
		Hermes: &hermes.Hermes{
			Theme:         new(hermes.Default),
			TextDirection: hermes.TDLeftToRight,
			Product: hermes.Product{
				Name:      "Contacts Server",
				Link:      serverURL,
				Copyright: "© Contacts Server",
			},
		},
		Mailgun:   mailgunInstance,
		ServerURL: serverURL,
	}
	log.Info("Initialized mail manager")
	return mm
}
