package otp

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"

	"github.com/socialx-api/internal/infrastructure/mail"
)

const subjectPrefix = "SocialX Web - Your Verification Code is "

var textBody = template.Must(template.New("otp.txt").Parse(`Hi {{.Name}},

Welcome to SocialX Web!

Your verification code is:

    {{.Code}}

This code will expire in 10 minutes.

If you didn't request this code, please ignore this email.

Best regards,
SocialX Web Team
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("otp.html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;background-color:#f4f4f4;">
  <table width="100%" cellpadding="0" cellspacing="0" style="background-color:#f4f4f4;padding:20px;">
    <tr><td align="center">
      <table width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:10px;overflow:hidden;">
        <tr><td style="background:linear-gradient(135deg,#667eea 0%,#764ba2 100%);padding:40px 20px;text-align:center;">
          <h1 style="color:#ffffff;margin:0;font-size:32px;">SocialX Web</h1>
          <p style="color:#ffffff;margin:10px 0 0 0;font-size:14px;">Connect. Share. Inspire.</p>
        </td></tr>
        <tr><td style="padding:40px 30px;">
          <h2 style="color:#333333;margin:0 0 20px 0;font-size:24px;">Email Verification</h2>
          <p style="color:#666666;font-size:16px;">Hi <strong>{{.Name}}</strong>,</p>
          <p style="color:#666666;font-size:16px;">Welcome to SocialX Web! Please use the verification code below:</p>
          <div style="background:linear-gradient(135deg,#667eea 0%,#764ba2 100%);border-radius:10px;padding:30px;text-align:center;">
            <p style="color:#ffffff;font-size:14px;margin:0 0 10px 0;letter-spacing:2px;">YOUR VERIFICATION CODE</p>
            <h1 style="color:#ffffff;font-size:48px;letter-spacing:10px;margin:0;">{{.Code}}</h1>
          </div>
          <p style="color:#999999;font-size:14px;">This code will expire in <strong>10 minutes</strong>.</p>
          <p style="color:#999999;font-size:14px;">For your security, never share this code with anyone.</p>
        </td></tr>
        <tr><td style="background-color:#f9f9f9;padding:30px;text-align:center;border-top:1px solid #eeeeee;">
          <p style="color:#999999;font-size:12px;">If you didn't request this code, please ignore this email or contact our support team.</p>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>
`))

type emailData struct {
	Name string
	Code string
}

func verificationMessage(to, name, code string) (mail.Message, error) {
	if name == "" {
		name = "there"
	}
	data := emailData{Name: name, Code: code}

	var text, html bytes.Buffer
	if err := textBody.Execute(&text, data); err != nil {
		return mail.Message{}, err
	}
	if err := htmlBody.Execute(&html, data); err != nil {
		return mail.Message{}, err
	}
	return mail.Message{
		To:      to,
		Subject: subjectPrefix + code,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
