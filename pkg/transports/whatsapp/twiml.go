package whatsapp

import "strings"

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// messagingResponse wraps a reply in Twilio's TwiML messaging envelope.
func messagingResponse(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><Response><Message>` +
		xmlEscaper.Replace(body) +
		`</Message></Response>`
}
