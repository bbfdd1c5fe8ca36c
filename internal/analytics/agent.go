package analytics

import (
	"strings"

	"github.com/mssola/useragent"
)

// AgentInfo is what the enrichment step needs from a User-Agent.
type AgentInfo struct {
	Browser string
	OS      string
	// Device is the device family: "iPhone", "iPad", "iPod", "Android",
	// "Spider", "Mobile", or empty for desktops and unknown agents.
	Device string
}

const other = "Other"

// ParseAgent extracts browser, OS and device family from a raw User-Agent.
func ParseAgent(raw string) AgentInfo {
	ua := useragent.New(raw)
	browser, _ := ua.Browser()

	info := AgentInfo{
		Browser: browser,
		OS:      ua.OS(),
		Device:  deviceFamily(ua, raw),
	}
	if info.Browser == "" {
		info.Browser = other
	}
	if info.OS == "" {
		info.OS = other
	}
	return info
}

func deviceFamily(ua *useragent.UserAgent, raw string) string {
	switch p := ua.Platform(); p {
	case "iPhone", "iPad", "iPod":
		return p
	}
	if strings.HasPrefix(ua.OS(), "Android") {
		return "Android"
	}
	if IsBot(raw) {
		return "Spider"
	}
	if ua.Mobile() {
		return "Mobile"
	}
	return ""
}

// DeviceType collapses a device family into the reported device type.
func DeviceType(family string) string {
	switch family {
	case "iPhone", "iPad", "Android":
		return "Mobile"
	case "":
		return "Desktop"
	default:
		return family
	}
}
