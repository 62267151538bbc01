package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderCaseEmail generates branded HTML for a case email. The subject is shown in the
// header banner, body is plain text that gets escaped with newlines turned into <br>, and
// a button is rendered when actionURL is set.
func RenderCaseEmail(subject, body, actionURL, actionText string) string {
	escaped := html.EscapeString(body)
	htmlBody := strings.ReplaceAll(escaped, "\n", "<br>")
	safeSubject := html.EscapeString(subject)

	button := ""
	if actionURL != "" {
		if actionText == "" {
			actionText = "Open"
		}
		button = fmt.Sprintf(`<p class="action"><a class="button" href="%s">%s</a></p>`,
			html.EscapeString(actionURL), html.EscapeString(actionText))
	}

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f3f4f6; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background-color: #14532d; padding: 32px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; font-weight: 700; }
    .content { padding: 32px 30px; color: #111827; line-height: 1.6; font-size: 15px; }
    .action { text-align: center; margin-top: 28px; }
    .button { background-color: #15803d; color: #fff; padding: 12px 24px; border-radius: 6px; text-decoration: none; font-weight: 600; }
    .footer { padding: 24px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
      %s
    </div>
    <div class="footer">
      <p>This message was sent by the violation case registry. Please do not reply.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody, button)
}

// PlainText is the text/plain alternative of a case email
func PlainText(body, actionURL string) string {
	if actionURL == "" {
		return body
	}
	return body + "\n\n" + actionURL
}
