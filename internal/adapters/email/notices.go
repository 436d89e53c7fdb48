package email

import (
	"fmt"
	"html/template"
	"strings"
)

var noticeTemplate = template.Must(template.New("notice").Parse(
	`<p>Hello {{.Name}},</p>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}<p>If you did not make this change, contact the clinic administrator immediately.</p>
<p>The Medibook team</p>`))

type noticeData struct {
	Name       string
	Paragraphs []string
}

func renderNotice(name string, paragraphs ...string) string {
	var b strings.Builder
	if err := noticeTemplate.Execute(&b, noticeData{Name: name, Paragraphs: paragraphs}); err != nil {
		return template.HTMLEscapeString(strings.Join(paragraphs, "\n"))
	}
	return b.String()
}

// EmailChangedNotice tells both the old and the new address that the login email changed.
func EmailChangedNotice(name, oldEmail, newEmail string) SendRequest {
	return SendRequest{
		To:      []string{oldEmail, newEmail},
		Subject: "Your Medibook login email was changed",
		HTML: renderNotice(name,
			fmt.Sprintf("The login email for your doctor account was changed from %s to %s.", oldEmail, newEmail)),
	}
}

// PasswordChangedNotice confirms a password change to the account owner.
func PasswordChangedNotice(name, to string) SendRequest {
	return SendRequest{
		To:      []string{to},
		Subject: "Your Medibook password was changed",
		HTML:    renderNotice(name, "The password for your doctor account was just changed."),
	}
}

// AccountDeletedNotice confirms that a doctor account and its profile were removed.
func AccountDeletedNotice(name, to string) SendRequest {
	return SendRequest{
		To:      []string{to},
		Subject: "Your Medibook account was deleted",
		HTML: renderNotice(name,
			"Your doctor account and practice profile have been permanently deleted.",
			"Patients can no longer book appointments with you through Medibook."),
	}
}
