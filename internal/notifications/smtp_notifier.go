package notifications

import (
	"bytes"
	"context"
	"html/template"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPNotifier struct {
	from   string
	dialer sender
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

var verificationTmpl = template.Must(template.New("verify").Parse(
	`<p>Hi {{.Name}},</p>
<p>Confirm your email address to finish setting up your account:</p>
<p><a href="{{.Link}}">Verify email</a></p>
<p>The link expires in 24 hours.</p>`))

func (n *SMTPNotifier) SendVerificationEmail(ctx context.Context, in VerificationEmail) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := verificationTmpl.Execute(&body, in); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", in.Email)
	m.SetHeader("Subject", "Verify your email")
	m.SetBody("text/html", body.String())
	m.AddAlternative("text/plain", "Verify your email: "+in.Link)

	return n.dialer.DialAndSend(m)
}
