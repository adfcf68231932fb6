package mailsender

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (m *Mailer) SendCode(to, code, ttl string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.Username)
	msg.SetHeader("Subject", "Your verification code")

	msg.SetBody("text/plain", fmt.Sprintf("Your code is: %s. It expires in %s.", code, ttl))

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return dialer.DialAndSend(msg)
}
