package models

import "time"

// Unknown fills geo fields the lookup could not resolve.
const Unknown = "Unknown"

// Direct is the referrer recorded when the request carried none.
const Direct = "Direct"

type ClickEvent struct {
	IPAddress  string    `json:"ipAddress"`
	Country    string    `json:"country"`
	Region     string    `json:"region"`
	City       string    `json:"city"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	DeviceType string    `json:"deviceType"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	Referrer   string    `json:"referrer"`
	Timestamp  time.Time `json:"timestamp"`
}

// Location is a browser-reported geolocation sample.
type Location struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Accuracy *float64 `json:"accuracy,omitempty"`
	Source   string   `json:"source,omitempty"`
}

type LocationEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Location  Location  `json:"location"`
}
