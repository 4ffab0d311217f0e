// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/dalemusser/hackhub/internal/domain/models"
)

// TemplateData holds the values interpolated into the stock email
// templates.
type TemplateData struct {
	SiteName string
	BaseURL  string
}

// Build returns the stock email for a queue kind. The second return is
// false when the kind has no template.
func Build(kind models.EmailKind, data TemplateData) (Email, bool) {
	switch kind {
	case models.EmailAcceptance:
		return BuildAcceptanceEmail(data), true
	case models.EmailRejection:
		return BuildRejectionEmail(data), true
	case models.EmailWaitlist:
		return BuildWaitlistEmail(data), true
	case models.EmailVerification:
		return BuildVerificationEmail(data), true
	case models.EmailReminder:
		return BuildReminderEmail(data), true
	case models.EmailLagger:
		return BuildLaggerEmail(data), true
	}
	return Email{}, false
}

// BuildAcceptanceEmail tells an admitted applicant their status is up.
func BuildAcceptanceEmail(data TemplateData) Email {
	return buildNoticeEmail(data,
		fmt.Sprintf("Your %s application decision is in", data.SiteName),
		"Your application status has been updated",
		[]string{
			"There is news about your application. Sign in to see your decision and, if admitted, confirm your spot before the deadline on your status page.",
		},
		"View My Status")
}

// BuildRejectionEmail tells an applicant a decision has been posted.
// The decision itself lives behind the sign-in, not in the email.
func BuildRejectionEmail(data TemplateData) Email {
	return buildNoticeEmail(data,
		fmt.Sprintf("Your %s application decision is in", data.SiteName),
		"Your application status has been updated",
		[]string{
			"A decision has been posted on your application. Sign in to view it.",
		},
		"View My Status")
}

// BuildWaitlistEmail tells an applicant they are on the waitlist.
func BuildWaitlistEmail(data TemplateData) Email {
	return buildNoticeEmail(data,
		fmt.Sprintf("Your %s application status", data.SiteName),
		"You're on the waitlist",
		[]string{
			"All spots are currently taken, so your application has been placed on the waitlist. We'll let you know as soon as a spot opens up.",
		},
		"View My Status")
}

// BuildVerificationEmail asks a new registrant to verify their address.
func BuildVerificationEmail(data TemplateData) Email {
	return buildNoticeEmail(data,
		fmt.Sprintf("Verify your %s email address", data.SiteName),
		"Verify your email",
		[]string{
			"Thanks for registering. Click the button below to verify your email address and unlock your application.",
		},
		"Verify Email")
}

// BuildReminderEmail nudges applicants who have not finished applying.
func BuildReminderEmail(data TemplateData) Email {
	return buildNoticeEmail(data,
		fmt.Sprintf("Don't forget your %s application", data.SiteName),
		"Your application is waiting",
		[]string{
			"You started an application but haven't submitted it yet. Submissions close soon, so finish up while there's still time.",
		},
		"Finish My Application")
}

// BuildLaggerEmail chases people with an unfinished step: an
// unsubmitted application, an unconfirmed admission, or a missing
// waiver.
func BuildLaggerEmail(data TemplateData) Email {
	return buildNoticeEmail(data,
		fmt.Sprintf("Action needed on your %s account", data.SiteName),
		"You have an unfinished step",
		[]string{
			"Something on your account still needs attention. It might be an unsubmitted application, an admission you haven't confirmed, or a waiver we're missing. Sign in to sort it out.",
		},
		"Go To My Account")
}

// BuildVerificationCodeEmail carries a registrant's one-time code and
// magic link. Unlike the stock queue emails, it is personalized and
// sent directly rather than queued.
func BuildVerificationCodeEmail(data TemplateData, code, verifyURL string) Email {
	return buildLinkEmail(data,
		fmt.Sprintf("Verify your %s email address", data.SiteName),
		"Verify your email",
		[]string{
			fmt.Sprintf("Your verification code is %s. Enter it on the verification page, or click the button below to verify in one step.", code),
			"The code and link expire shortly, so use them soon.",
		},
		"Verify Email", verifyURL)
}

func buildNoticeEmail(data TemplateData, subject, heading string, paragraphs []string, buttonText string) Email {
	return buildLinkEmail(data, subject, heading, paragraphs, buttonText, data.BaseURL)
}

func buildLinkEmail(data TemplateData, subject, heading string, paragraphs []string, buttonText, buttonURL string) Email {
	return Email{
		Subject:  subject,
		TextBody: buildLinkText(data, paragraphs, buttonURL),
		HTMLBody: buildLinkHTML(data, heading, paragraphs, buttonText, buttonURL),
	}
}

func buildLinkText(data TemplateData, paragraphs []string, buttonURL string) string {
	var buf bytes.Buffer
	buf.WriteString(strings.Join(paragraphs, "\n\n"))
	buf.WriteString("\n\n")
	buf.WriteString(buttonURL + "\n\n")
	buf.WriteString(fmt.Sprintf("- The %s Team\n", data.SiteName))
	return buf.String()
}

func buildLinkHTML(data TemplateData, heading string, paragraphs []string, buttonText, buttonURL string) string {
	tmpl := template.Must(template.New("notice").Parse(noticeHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, struct {
		SiteName   string
		ButtonURL  string
		Heading    string
		Paragraphs []string
		ButtonText string
	}{data.SiteName, buttonURL, heading, paragraphs, buttonText})
	return buf.String()
}

const noticeHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Heading}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <h2 style="margin: 0 0 24px; font-size: 20px; font-weight: 600; color: #1f2937;">{{.Heading}}</h2>
{{range .Paragraphs}}
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">{{.}}</p>
{{end}}
              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.ButtonURL}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      {{.ButtonText}}
                    </a>
                  </td>
                </tr>
              </table>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                You are receiving this because you have an account on {{.SiteName}}.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
