package email

import (
	"fmt"
	"strings"
	"text/template"
)

// ActivationSubject is the subject line of account confirmation mail.
const ActivationSubject = "Mail confirmation message"

var activationBody = template.Must(template.New("activation").Parse(`Hi {{.Username}},

Please click on the link below to confirm your registration:

{{.Link}}
`))

// ActivationLink builds the confirmation URL for uid and token.
func ActivationLink(siteURL, uid, token string) string {
	return fmt.Sprintf("%s/activation/%s/%s/", strings.TrimRight(siteURL, "/"), uid, token)
}

// NewActivationMessage composes the confirmation mail sent after signup.
func NewActivationMessage(siteURL, username, address, uid, token string) (Message, error) {
	var body strings.Builder
	err := activationBody.Execute(&body, struct {
		Username string
		Link     string
	}{
		Username: username,
		Link:     ActivationLink(siteURL, uid, token),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render activation mail: %w", err)
	}

	return Message{
		To:      []string{address},
		Subject: ActivationSubject,
		Body:    body.String(),
	}, nil
}

// ParseActivationLink extracts uid and token from a message body containing
// an activation link. ok is false when no link is present.
func ParseActivationLink(body string) (uid, token string, ok bool) {
	start := strings.Index(body, "http")
	if start < 0 {
		return "", "", false
	}
	link := strings.Fields(body[start:])[0]
	parts := strings.Split(strings.TrimRight(link, "/"), "/")
	if len(parts) < 3 || parts[len(parts)-3] != "activation" {
		return "", "", false
	}
	return parts[len(parts)-2], parts[len(parts)-1], true
}
