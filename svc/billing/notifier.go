package billing

import (
	"context"
	"fmt"

	"github.com/chatloom/chatloom/pkg/billing"
	"github.com/chatloom/chatloom/pkg/email"
)

// EmailNotifier delivers subscription lifecycle emails through the
// configured sender.
type EmailNotifier struct {
	sender  email.EmailSender
	catalog *billing.Catalog
	baseURL string
}

// NewEmailNotifier creates a notifier over the given sender.
func NewEmailNotifier(sender email.EmailSender, catalog *billing.Catalog, baseURL string) *EmailNotifier {
	if sender == nil {
		panic("billing: email sender is required")
	}
	return &EmailNotifier{sender: sender, catalog: catalog, baseURL: baseURL}
}

func (n *EmailNotifier) NotifySubscriptionChange(ctx context.Context, to string, kind billing.NotificationKind, user *billing.User) error {
	planName := "your plan"
	if n.catalog != nil {
		if plan, ok := n.catalog.Plan(user.PriceID); ok {
			planName = plan.Name
		}
	}

	var params email.SendEmailParams
	switch kind {
	case billing.NotificationSubscriptionActivated:
		params = email.SendEmailParams{
			SendTo:  to,
			Subject: fmt.Sprintf("Your %s subscription is active", planName),
			BodyHTML: fmt.Sprintf(
				`<p>Your subscription to %s is now active and %d credits have been added to your account.</p>`+
					`<p><a href="%s/chat">Start chatting</a></p>`,
				planName, user.CreditsAvailable, n.baseURL),
			Tag: string(kind),
		}
	case billing.NotificationSubscriptionCanceled:
		params = email.SendEmailParams{
			SendTo:  to,
			Subject: "Your subscription has been canceled",
			BodyHTML: fmt.Sprintf(
				`<p>Your subscription has ended and remaining credits were removed.</p>`+
					`<p>You can resubscribe any time from the <a href="%s/pricing">pricing page</a>.</p>`,
				n.baseURL),
			Tag: string(kind),
		}
	default:
		return nil
	}

	return n.sender.SendEmail(ctx, params)
}
