package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Net-Geometry/otms-tidal-sub000/config"
)

// Sender SMTP 邮件发送器（通知出箱的投递通道之一）
type Sender struct {
	cfg *config.MailConfig
}

// NewSender 创建 SMTP 发送器
func NewSender(cfg *config.MailConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Send 发送一封纯文本邮件
func (s *Sender) Send(to, subject, body string) error {
	if s.cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP 未配置")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	}

	var msg strings.Builder
	msg.WriteString("From: " + s.cfg.From + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}
