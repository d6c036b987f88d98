package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Notifier renders and sends the application's notification mails. It
// satisfies core.Notifier; services call it best-effort and log failures
// without failing the triggering operation.
type Notifier struct {
	mailer *Mailer
	logger *zap.Logger
}

// NewNotifier creates a Notifier on top of a Mailer.
func NewNotifier(mailer *Mailer, logger *zap.Logger) *Notifier {
	return &Notifier{mailer: mailer, logger: logger}
}

func (n *Notifier) SendUserApproved(ctx context.Context, to, displayName, estateName string) error {
	return n.mailer.Send(ctx, to, "Your Musa account has been approved", approvalBody(displayName, estateName))
}

func (n *Notifier) SendUserRejected(ctx context.Context, to, displayName, reason string) error {
	return n.mailer.Send(ctx, to, "Your Musa registration was not approved", rejectionBody(displayName, reason))
}

func (n *Notifier) SendHouseholdInvitation(ctx context.Context, to, householdName, link string) error {
	return n.mailer.Send(ctx, to, "You've been invited to a household on Musa", invitationBody(householdName, link))
}

func (n *Notifier) SendDeviceApproval(ctx context.Context, to, link, userAgent string) error {
	return n.mailer.Send(ctx, to, "Approve your new device on Musa", deviceApprovalBody(link, userAgent))
}
