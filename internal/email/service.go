package email

import (
	"fmt"
	"net/smtp"
)

// Sender delivers one HTML message
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender sends mail through an unauthenticated SMTP relay
type SMTPSender struct {
	host string
	port string
	from string
}

func NewSMTPSender(host, port, from string) *SMTPSender {
	return &SMTPSender{
		host: host,
		port: port,
		from: from,
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}

// Service renders and sends customer emails
type Service struct {
	sender Sender
}

func NewService(sender Sender) *Service {
	return &Service{sender: sender}
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to string, c OrderConfirmation) error {
	body, err := BuildOrderConfirmationBody(c)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Order confirmed: #%s", c.ShortID())
	return s.sender.Send(to, subject, body)
}
