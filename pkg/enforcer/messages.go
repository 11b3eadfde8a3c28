package enforcer

import "errors"

// Message types exchanged with pages.
const (
	MessageGetSiteStatus = "get-site-status"
	MessageSiteStatus    = "site-status"
)

// ErrUnknownMessage is returned for inbound messages of an unsupported type.
var ErrUnknownMessage = errors.New("unknown message type")

// Message is an inbound one-shot request from a page.
type Message struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// StatusPayload answers a status query. Host and Limit are null when unknown.
type StatusPayload struct {
	Host  *string `json:"host"`
	Count int     `json:"count"`
	Limit *int    `json:"limit"`
}

// NoLimit is the {host: null, count: 0, limit: null} sentinel.
func NoLimit() StatusPayload {
	return StatusPayload{}
}

func unlimited(host string) StatusPayload {
	return StatusPayload{Host: &host}
}

func limited(host string, count, limit int) StatusPayload {
	return StatusPayload{Host: &host, Count: count, Limit: &limit}
}

// SiteStatus is pushed to every tab of a limited host.
type SiteStatus struct {
	Type  string `json:"type"`
	Host  string `json:"host"`
	Count int    `json:"count"`
	Limit int    `json:"limit"`
}
