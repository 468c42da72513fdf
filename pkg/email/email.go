package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"vindoc-backend/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

var digestTemplate = template.Must(template.ParseFS(templateFS, "templates/expiry_alert.html"))

// Message is a single HTML mail to one recipient.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type EmailService struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
	timeout      time.Duration
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{
		smtpHost:     cfg.Host,
		smtpPort:     cfg.Port,
		smtpUsername: cfg.Username,
		smtpPassword: cfg.Password,
		fromEmail:    cfg.From,
		fromName:     cfg.FromName,
		timeout:      cfg.Timeout,
	}
}

func (s *EmailService) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("missing recipient")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.sendEmail(ctx, msg.To, s.buildEmailMessage(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) buildEmailMessage(msg Message) []byte {
	from := fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.fromName), s.fromEmail)

	headers := map[string]string{
		"From":         from,
		"To":           msg.To,
		"Subject":      mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date":         time.Now().Format(time.RFC1123Z),
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, headers[k])
	}
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)

	return []byte(b.String())
}

func (s *EmailService) sendEmail(ctx context.Context, to string, message []byte) error {
	addr := net.JoinHostPort(s.smtpHost, s.smtpPort)

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.smtpHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open SMTP session: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.smtpHost}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if s.smtpUsername != "" {
		auth := smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := client.Mail(s.fromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	return client.Quit()
}

// DigestItem is one reminder line in the consolidated mail.
type DigestItem struct {
	VehicleNumber string
	VehicleName   string
	Label         string
	Status        string
	DueText       string
	Urgency       string
	EstimatedCost string
	Tip           string
	Detail        string
}

type DigestData struct {
	RecipientName string
	AppURL        string
	Items         []DigestItem
	Year          int
}

// RenderExpiryDigest renders the consolidated reminder mail for one recipient.
func RenderExpiryDigest(to string, data DigestData) (Message, error) {
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}

	var body bytes.Buffer
	if err := digestTemplate.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("failed to execute email template: %w", err)
	}

	return Message{
		To:      to,
		Subject: digestSubject(data.Items),
		HTML:    body.String(),
	}, nil
}

func digestSubject(items []DigestItem) string {
	urgent := 0
	for _, item := range items {
		if item.Urgency == "critical" || item.Urgency == "high" {
			urgent++
		}
	}

	noun := "reminder"
	if len(items) != 1 {
		noun = "reminders"
	}
	if urgent > 0 {
		return fmt.Sprintf("Action needed: %d vehicle %s (%d urgent) - VinDoc", len(items), noun, urgent)
	}
	return fmt.Sprintf("%d upcoming vehicle %s - VinDoc", len(items), noun)
}
