package content

import "strings"

// DefaultLanguage is the fallback for any unrecognized language code.
const DefaultLanguage = "en"

// ExitAck is intentionally not localized: it closes the session whatever
// language the user was speaking.
const ExitAck = "Conversation ended. You can send a new message to start again."

// EmptyNotice is returned when a webhook carries no usable text.
const EmptyNotice = "Sorry, I received an empty message. Please try again or type your question."

const mapURLTemplate = "https://www.google.com/maps/search/?api=1&query="

var welcome = map[string]string{
	"en": "Hello! I'm your AI Health Assistant. Please ask your health-related question.",
	"hi": "नमस्ते! मैं आपका AI स्वास्थ्य सहायक हूँ। कृपया अपने स्वास्थ्य संबंधी सवाल पूछें।",
	"mr": "नमस्कार! मी तुमचा आरोग्य सहाय्यक आहे. कृपया तुमचा आरोग्य संबंधित प्रश्न विचारा.",
	"bn": "হ্যালো! আমি আপনার এআই স্বাস্থ্য সহকারী। আপনার স্বাস্থ্য সংক্রান্ত প্রশ্ন জিজ্ঞাসা করুন।",
}

var emergency = map[string]string{
	"en": "⚠️ **EMERGENCY!** This may be a life-threatening situation. Please call an ambulance immediately: **108** or go to the nearest health center.",
	"hi": "⚠️ **तुरंत मदद!** यह एक आपातकालीन स्थिति हो सकती है। कृपया बिना देर किए एम्बुलेंस को कॉल करें: **108** या नजदीकी स्वास्थ्य केंद्र पर जाएं।",
	"mr": "⚠️ **त्वरित मदत!** ही गंभीर समस्या असू शकते. कृपया त्वरित ॲम्बुलन्सला कॉल करा: **108** किंवा जवळच्या आरोग्य केंद्रात जा.",
	"bn": "⚠️ **জরুরী!** এটি একটি জীবন-হুমকির পরিস্থিতি হতে পারে। অবিলম্বে অ্যাম্বুলেন্সকে কল করুন: **108** অথবা নিকটস্থ স্বাস্থ্যকেন্দ্রে যান।",
}

var fallback = map[string]string{
	"en": "Sorry, I couldn't process that right now. Please try again later.",
	"hi": "माफ़ कीजिए, मैं अभी जवाब नहीं दे पा रहा हूँ। कृपया बाद में प्रयास करें।",
	"mr": "माफ करा, मी सध्या उत्तर देऊ शकत नाही. कृपया नंतर प्रयत्न करा.",
	"bn": "দুঃখিত, আমি এখন উত্তর দিতে পারছি না। পরে আবার চেষ্টা করুন।",
}

var mapQuery = map[string]string{
	"en": "health center near me",
	"hi": "नजदीकी स्वास्थ्य केंद्र",
	"mr": "जवळचे आरोग्य केंद्र",
	"bn": "নিকটস্থ স্বাস্থ্যকেন্দ্র",
}

func lookup(table map[string]string, lang string) string {
	if s, ok := table[lang]; ok {
		return s
	}
	return table[DefaultLanguage]
}

// Welcome returns the localized greeting for a first text message.
func Welcome(lang string) string { return lookup(welcome, lang) }

// Emergency returns the localized 108 handoff message.
func Emergency(lang string) string { return lookup(emergency, lang) }

// Fallback returns the safe localized message for any model failure.
func Fallback(lang string) string { return lookup(fallback, lang) }

// MapQuery returns the localized nearby-care search phrase.
func MapQuery(lang string) string { return lookup(mapQuery, lang) }

// MapLink composes the Google Maps search URL for nearby health centers,
// with spaces encoded as '+'.
func MapLink(lang string) string {
	return mapURLTemplate + strings.ReplaceAll(MapQuery(lang), " ", "+")
}

// WelcomePrefix formats the welcome banner prepended to a first reply.
func WelcomePrefix(lang string) string {
	return "*" + Welcome(lang) + "*\n\n---\n"
}

// ReferralBlock formats the map-link footer appended to every model reply.
func ReferralBlock(lang string) string {
	return "\n\n---\n🗺️ **नजदीकी स्वास्थ्य केंद्र / Nearby Health Center:** [नक्शा / Map Link](" + MapLink(lang) + ")"
}
