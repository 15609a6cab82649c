package utils

import (
	"fmt"
	"strings"

	ua "github.com/mssola/user_agent"
)

// DescribeUserAgent condenses a User-Agent string into the short
// "device / os / browser" form stored on payment audit rows.
func DescribeUserAgent(userAgent string) string {
	if userAgent == "" || userAgent == "Unknown" {
		return "unknown"
	}

	parser := ua.New(userAgent)

	deviceType := "desktop"
	if parser.Bot() {
		deviceType = "bot"
	} else if parser.Mobile() {
		deviceType = "mobile"
	}

	osInfo := parser.OSInfo()
	os := osInfo.Name
	if osInfo.Version != "" {
		os += " " + osInfo.Version
	}
	if os == "" {
		os = "Unknown"
	}

	browser, version := parser.Browser()
	if browser == "" {
		browser = "Unknown"
	}
	if version != "" {
		browser += " " + version
	}

	return fmt.Sprintf("%s / %s / %s", deviceType, os, browser)
}

// IsMobileDevice reports whether the user agent is a mobile client
func IsMobileDevice(userAgent string) bool {
	return ua.New(userAgent).Mobile()
}

// IsBot reports whether the user agent looks like a crawler
func IsBot(userAgent string) bool {
	if strings.TrimSpace(userAgent) == "" {
		return false
	}
	return ua.New(userAgent).Bot()
}
