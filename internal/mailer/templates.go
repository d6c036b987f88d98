package mailer

import (
	"fmt"
	"html"
)

// Email templates for the notification side channel. Kept as plain string
// building rather than html/template files: each mail is a short paragraph
// with one or two interpolated values, all escaped here.

func approvalBody(displayName, estateName string) string {
	return fmt.Sprintf(`<html><body>
<p>Hello %s,</p>
<p>Your Musa account has been approved. You now have access to <b>%s</b>.</p>
<p>You can sign in and start using the app right away.</p>
</body></html>`, html.EscapeString(displayName), html.EscapeString(estateName))
}

func rejectionBody(displayName, reason string) string {
	return fmt.Sprintf(`<html><body>
<p>Hello %s,</p>
<p>Unfortunately your Musa registration was not approved.</p>
<p>Reason: %s</p>
<p>If you believe this is a mistake, please contact your estate administrator.</p>
</body></html>`, html.EscapeString(displayName), html.EscapeString(reason))
}

func invitationBody(householdName, link string) string {
	return fmt.Sprintf(`<html><body>
<p>You have been invited to join the household <b>%s</b> on Musa.</p>
<p><a href="%s">Open Musa to accept or decline the invitation.</a></p>
<p>This invitation expires in 7 days.</p>
</body></html>`, html.EscapeString(householdName), link)
}

func deviceApprovalBody(link, userAgent string) string {
	return fmt.Sprintf(`<html><body>
<p>A sign-in from a new device was detected on your Musa account.</p>
<p>Device: %s</p>
<p>If this was you, approve the device within 30 minutes:</p>
<p><a href="%s">Approve this device</a></p>
<p>If this was not you, ignore this email and the request will expire.</p>
</body></html>`, html.EscapeString(userAgent), link)
}
