package session

import (
	"strings"

	"github.com/mileusna/useragent"
	"github.com/tech-arch1tect/authcore/services/refreshtoken"
)

// NewDeviceInfo describes the client behind a request from its user agent
// and address. The issue timestamp is filled in by the token store.
func NewDeviceInfo(userAgent, ipAddress string) refreshtoken.DeviceInfo {
	device := refreshtoken.DeviceInfo{
		UserAgent:  userAgent,
		IPAddress:  strings.TrimSpace(ipAddress),
		Browser:    "Unknown Browser",
		OS:         "Unknown OS",
		DeviceType: "Unknown",
	}
	if userAgent == "" {
		return device
	}

	ua := useragent.Parse(userAgent)

	switch {
	case ua.Bot:
		device.DeviceType = "Bot"
	case ua.Tablet:
		device.DeviceType = "Tablet"
	case ua.Mobile:
		device.DeviceType = "Mobile"
	default:
		device.DeviceType = "Desktop"
	}

	if ua.Name != "" {
		device.Browser = strings.TrimSpace(ua.Name + " " + ua.Version)
	}
	if ua.OS != "" {
		device.OS = strings.TrimSpace(ua.OS + " " + ua.OSVersion)
	}

	return device
}
