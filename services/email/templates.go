package email

import (
	"fmt"
	"html"
	"time"
)

func buildWelcomeEmail(name, membershipID, plan string) string {
	safeName := html.EscapeString(name)
	if safeName == "" {
		safeName = "Member"
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
	<div style="background-color: #0b5e55; color: #ffffff; padding: 24px; text-align: center;">
		<h1 style="margin: 0;">MediMitra</h1>
	</div>
	<div style="padding: 24px;">
		<h2>Welcome, %s!</h2>
		<p>Your payment was received and your membership is now active.</p>
		<table style="border-collapse: collapse; width: 100%%;">
			<tr>
				<td style="padding: 8px; border-bottom: 1px solid #eee;"><strong>Membership ID</strong></td>
				<td style="padding: 8px; border-bottom: 1px solid #eee;">%s</td>
			</tr>
			<tr>
				<td style="padding: 8px; border-bottom: 1px solid #eee;"><strong>Plan</strong></td>
				<td style="padding: 8px; border-bottom: 1px solid #eee;">%s</td>
			</tr>
		</table>
		<p>Keep your membership ID handy when booking consultations.</p>
		<p>If you did not sign up for MediMitra, please contact our support team.</p>
	</div>
	<div style="padding: 16px; text-align: center; color: #999; font-size: 12px;">
		&copy; %d MediMitra. All rights reserved.
	</div>
</body>
</html>`, safeName, html.EscapeString(membershipID), html.EscapeString(plan), time.Now().Year())
}

func buildSupportEscalation(reason, paymentID, orderID, customerEmail string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Payment escalation</h2>
	<p>A payment needs manual review.</p>
	<table style="border-collapse: collapse;">
		<tr><td style="padding: 4px 12px 4px 0;"><strong>Reason</strong></td><td>%s</td></tr>
		<tr><td style="padding: 4px 12px 4px 0;"><strong>Payment ID</strong></td><td>%s</td></tr>
		<tr><td style="padding: 4px 12px 4px 0;"><strong>Order ID</strong></td><td>%s</td></tr>
		<tr><td style="padding: 4px 12px 4px 0;"><strong>Customer</strong></td><td>%s</td></tr>
		<tr><td style="padding: 4px 12px 4px 0;"><strong>Reported at</strong></td><td>%s</td></tr>
	</table>
</body>
</html>`,
		html.EscapeString(reason),
		html.EscapeString(paymentID),
		html.EscapeString(orderID),
		html.EscapeString(customerEmail),
		time.Now().UTC().Format(time.RFC3339))
}
