package analytics

import (
	"strings"

	"github.com/mssola/useragent"
)

// Agent substrings by category, matched case-insensitively.
var botSignatures = []struct {
	category string
	needles  []string
}{
	{"crawler", []string{"bot", "spider", "crawl", "bingpreview/", "applebot", "wappalyzer", "whatweb/", "zgrab/", "netcraft"}},
	{"preview", []string{"facebookexternalhit", "facebot", "whatsapp", "slackbot", "telegrambot", "twitterbot", "linkedinbot", "discordbot", "preview"}},
	{"client", []string{"curl/", "wget/", "go-http-client/", "python-requests/", "python-urllib/", "okhttp/", "java/", "libwww-perl/", "httpie/"}},
	{"headless", []string{"headlesschrome/", "phantomjs", "slimerjs", "chrome-lighthouse", "wkhtmltopdf"}},
}

// BotCategory names the kind of automated agent raw looks like, or returns
// "" for what appears to be a real browser.
func BotCategory(raw string) string {
	lower := strings.ToLower(raw)
	for _, group := range botSignatures {
		for _, needle := range group.needles {
			if strings.Contains(lower, needle) {
				return group.category
			}
		}
	}
	if useragent.New(raw).Bot() {
		return "crawler"
	}
	return ""
}

// IsBot reports whether the agent is a crawler, link unfurler, HTTP client
// library or headless renderer.
func IsBot(raw string) bool {
	return BotCategory(raw) != ""
}
