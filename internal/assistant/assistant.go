// Package assistant answers common questions about booking and updates with
// a keyword responder.
package assistant

import (
	"regexp"
	"strings"
)

// Fallback is the reply when no rule matches.
const Fallback = "I am designed to assist with Aadhaar booking and update services."

type rule struct {
	topic   string
	pattern *regexp.Regexp
	reply   string
}

// Rules are checked in order and the first match wins. Patterns match
// anywhere in the lower-cased input.
var rules = []rule{
	{
		topic:   "booking",
		pattern: regexp.MustCompile(`book|slot|schedule|appointment|बुक|స్లాట్|स्लॉट`),
		reply:   "To book a slot, select your update type, pick a date and choose a recommended center and time. After booking, you receive a reference code for QR check-in and an email confirmation.",
	},
	{
		topic:   "recommendation",
		pattern: regexp.MustCompile(`recommend|ai slot|best time|smart pick|best center`),
		reply:   "We rank every open slot by how free it is and prefer morning and early afternoon times, so the recommended slot usually has the shortest wait.",
	},
	{
		topic:   "milestone",
		pattern: regexp.MustCompile(`age|5|15|50|child|kid|milestone|birthday|alert|risk|upcoming|urgent|priority`),
		reply:   "Biometric updates are mandatory around your 15th and 50th birthdays. We remind you from 90 days before the birthday and mark those bookings as Age Milestone.",
	},
	{
		topic:   "qr",
		pattern: regexp.MustCompile(`qr|code|whatsapp|share|message`),
		reply:   "Once a slot is booked, you receive a unique reference code for quick QR check-in at the center. You can share the booking details with anyone.",
	},
	{
		topic:   "documents",
		pattern: regexp.MustCompile(`document|proof|required|certificate|id proof|address proof|doc`),
		reply:   "Required documents depend on the update type: Address (Utility bill, Rent agreement), Name/DOB (Passport, Birth Certificate, PAN). Biometric updates usually only require your current Aadhaar.",
	},
	{
		topic:   "verification",
		pattern: regexp.MustCompile(`verify|verification|stage|vro|mro|flow|approve|reject|process`),
		reply:   "Updates follow a multi-stage workflow: Started at the Aadhaar Center, verified by the VRO (Village Revenue Officer), and approved or rejected by the MRO (Mandal Revenue Officer).",
	},
	{
		topic:   "tracking",
		pattern: regexp.MustCompile(`track|status|update request|check|स्थिति|ట్రాక్|ट्रैक`),
		reply:   "You can track the real-time stage of your booking or update request (Center -> VRO -> MRO) from the \"My Bookings\" or Profile dashboard.",
	},
	{
		topic:   "admin",
		pattern: regexp.MustCompile(`admin|demo|tool|test|simulate`),
		reply:   "Stage changes are made by center staff and revenue officers. Citizens can follow each step but cannot change it.",
	},
	{
		topic:   "cancel",
		pattern: regexp.MustCompile(`reschedule|cancel|change time|postpone|delete booking`),
		reply:   "You can cancel an upcoming booking from your dashboard and then book a new slot. Completed visits cannot be cancelled.",
	},
	{
		topic:   "update",
		pattern: regexp.MustCompile(`biometric|face|scan|fingerprint|iris|photo|auth|update|change|address|name|मोबाइल|अपडेट|అప్‌డేట్`),
		reply:   "You can update your demographics (Name, Address) or Biometrics (Fingerprints, Iris, Face scan). Mobile, email and address changes can be requested online with a face check; biometric updates need a center appointment.",
	},
	{
		topic:   "greeting",
		pattern: regexp.MustCompile(`hello|hi|hey|help|how|namaste|नमस्ते|హలో|सहायता|సహాయం`),
		reply:   "I can help with slot booking, tracking multi-stage verifications, age-based alerts, QR check-in, and required documents. How can I assist?",
	},
}

// Answer is a reply and the topic that produced it.
type Answer struct {
	Topic string `json:"topic"`
	Text  string `json:"text"`
}

// AnswerFor returns the first matching rule's reply, or the fallback.
func AnswerFor(input string) Answer {
	lower := strings.ToLower(strings.TrimSpace(input))
	if lower != "" {
		for _, r := range rules {
			if r.pattern.MatchString(lower) {
				return Answer{Topic: r.topic, Text: r.reply}
			}
		}
	}
	return Answer{Topic: "fallback", Text: Fallback}
}

// Reply returns the assistant's answer text for input.
func Reply(input string) string {
	return AnswerFor(input).Text
}
