package email

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/ErlanBelekov/auth-server/internal/domain"
)

const recoverySubject = "Reset your password"

// RecoveryMailer renders and sends password-recovery messages. The link
// opens the front end's reset page, which collects the new password and
// posts it to /user/new_password.
type RecoveryMailer struct {
	sender   Sender
	linkBase string
}

func NewRecoveryMailer(sender Sender, linkBase string) *RecoveryMailer {
	return &RecoveryMailer{sender: sender, linkBase: strings.TrimRight(linkBase, "/")}
}

func (m *RecoveryMailer) SendRecoveryEmail(ctx context.Context, user *domain.User, t *domain.RecoveryToken) error {
	q := url.Values{}
	q.Set("email", user.Email)
	q.Set("token", t.Token)
	link := m.linkBase + "/reset-password?" + q.Encode()

	name := user.Fullname
	if name == "" {
		name = user.Email
	}
	htmlBody := fmt.Sprintf(
		`<p>Hi %s,</p>`+
			`<p>Use the token below to choose a new password:</p>`+
			`<p><code>%s</code></p>`+
			`<p><a href="%s">Reset password</a></p>`+
			`<p>If you did not ask for this, ignore this message.</p>`,
		html.EscapeString(name), html.EscapeString(t.Token), html.EscapeString(link),
	)
	text := fmt.Sprintf(
		"Hi %s,\n\nUse this token to choose a new password:\n\n%s\n\nor open %s\n\n"+
			"If you did not ask for this, ignore this message.\n",
		name, t.Token, link,
	)

	msg := Message{To: user.Email, Subject: recoverySubject, HTML: htmlBody, Text: text}
	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send recovery email: %w", err)
	}
	return nil
}
