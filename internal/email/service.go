// Package email sends account and purchase mail over SMTP.
package email

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("email not configured")

// Config holds SMTP configuration
type Config struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"fromName"`
}

// Attachment is a file sent alongside the HTML body.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service provides email sending
type Service struct {
	config Config
	server string
	auth   smtp.Auth
	send   sendFunc
}

func NewService(config Config) *Service {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

func (s *Service) fromHeader() string {
	if s.config.FromName == "" {
		return s.config.From
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.config.FromName), s.config.From)
}

// SendHTMLEmail sends an HTML body with a plain-text fallback and optional
// attachments.
func (s *Service) SendHTMLEmail(to []string, subject, htmlBody string, attachments ...Attachment) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	msg := buildMessage(s.fromHeader(), to, subject, htmlBody, attachments)
	if err := s.send(s.server, s.auth, s.config.From, to, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

const (
	mixedBoundary = "willvault-mixed"
	altBoundary   = "willvault-alt"
)

func buildMessage(from string, to []string, subject, htmlBody string, attachments []Attachment) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=\"%s\"\r\n\r\n", mixedBoundary)

	fmt.Fprintf(&msg, "--%s\r\n", mixedBoundary)
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", altBoundary)
	fmt.Fprintf(&msg, "--%s\r\n", altBoundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, "Please view this email in an HTML-capable email client.\r\n\r\n")
	fmt.Fprintf(&msg, "--%s\r\n", altBoundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, "%s\r\n\r\n", htmlBody)
	fmt.Fprintf(&msg, "--%s--\r\n", altBoundary)

	for _, a := range attachments {
		fmt.Fprintf(&msg, "--%s\r\n", mixedBoundary)
		fmt.Fprintf(&msg, "Content-Type: %s\r\n", a.ContentType)
		fmt.Fprintf(&msg, "Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&msg, "Content-Disposition: attachment; filename=\"%s\"\r\n\r\n", a.Name)
		encoded := base64.StdEncoding.EncodeToString(a.Data)
		for len(encoded) > 76 {
			fmt.Fprintf(&msg, "%s\r\n", encoded[:76])
			encoded = encoded[76:]
		}
		fmt.Fprintf(&msg, "%s\r\n", encoded)
	}
	fmt.Fprintf(&msg, "--%s--\r\n", mixedBoundary)
	return msg.Bytes()
}

type ReceiptData struct {
	AppName      string
	Name         string
	PlanTitle    string
	Price        string
	DocumentID   string
	Jurisdiction string
	PaidAt       time.Time
}

// SendReceipt mails the purchase confirmation, attaching the will PDF when
// one is given.
func (s *Service) SendReceipt(to string, data ReceiptData, pdf []byte) error {
	if data.AppName == "" {
		data.AppName = "WillVault"
	}
	html, err := renderTemplate(receiptTemplate, data)
	if err != nil {
		return fmt.Errorf("render receipt template: %w", err)
	}
	var attachments []Attachment
	if len(pdf) > 0 {
		attachments = append(attachments, Attachment{Name: "digital-asset-will.pdf", ContentType: "application/pdf", Data: pdf})
	}
	return s.SendHTMLEmail([]string{to}, "Your "+data.AppName+" digital asset will", html, attachments...)
}

var templates = map[string]*template.Template{}

func renderTemplate(name string, data any) (string, error) {
	t, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const receiptTemplate = "receipt"

func init() {
	templates[receiptTemplate] = template.Must(template.New(receiptTemplate).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.AppName}} receipt</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #1f4e79; padding-bottom: 10px; margin-bottom: 20px; }
        .summary td { padding: 4px 12px 4px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.AppName}}</h1>
    </div>

    <h2>Thank you{{if .Name}}, {{.Name}}{{end}}!</h2>

    <p>Your digital asset will is complete. A PDF copy is attached when available.</p>

    <table class="summary">
        <tr><td>Plan</td><td>{{.PlanTitle}}</td></tr>
        <tr><td>Amount</td><td>${{.Price}}</td></tr>
        {{if .Jurisdiction}}<tr><td>Jurisdiction</td><td>{{.Jurisdiction}}</td></tr>{{end}}
        {{if .DocumentID}}<tr><td>Reference</td><td>{{.DocumentID}}</td></tr>{{end}}
        {{if not .PaidAt.IsZero}}<tr><td>Date</td><td>{{.PaidAt.Format "January 2, 2006"}}</td></tr>{{end}}
    </table>

    <p>To be legally effective your will must be signed and witnessed as your state requires.</p>

    <div class="footer">
        <p>This document is not legal advice. Consult an attorney licensed in your state for guidance.</p>
    </div>
</body>
</html>`))
}
