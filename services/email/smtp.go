package email

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

type SMTPConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	SupportEmail string
}

// SMTPService sends transactional mail over STARTTLS.
type SMTPService struct {
	config SMTPConfig
}

func NewSMTPService(config SMTPConfig) *SMTPService {
	return &SMTPService{config: config}
}

func (s *SMTPService) SendEmail(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %v", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: s.config.Host}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %v", err)
		}
	}

	if s.config.Username != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %v", err)
		}
	}

	if err := client.Mail(s.config.From); err != nil {
		return fmt.Errorf("failed to set sender: %v", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %v", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open message body: %v", err)
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if _, err := writer.Write([]byte(msg.String())); err != nil {
		return fmt.Errorf("failed to write message body: %v", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message body: %v", err)
	}

	if err := client.Quit(); err != nil {
		log.Printf("Warning: SMTP quit returned error: %v", err)
	}

	return nil
}

func (s *SMTPService) SendWelcomeEmail(to, name, membershipID, plan string) error {
	subject := "Welcome to MediMitra"
	body := buildWelcomeEmail(name, membershipID, plan)
	return s.SendEmail(to, subject, body)
}

func (s *SMTPService) SendSupportEscalation(reason, paymentID, orderID, customerEmail string) error {
	if s.config.SupportEmail == "" {
		return fmt.Errorf("support email not configured")
	}
	subject := fmt.Sprintf("Payment escalation: %s", reason)
	body := buildSupportEscalation(reason, paymentID, orderID, customerEmail)
	return s.SendEmail(s.config.SupportEmail, subject, body)
}
