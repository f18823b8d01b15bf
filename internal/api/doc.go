// Package api exposes decks and study sessions over HTTP. Handlers decode
// and validate JSON requests, call the services, and map service errors to
// status codes with safe, non-leaking messages.
package api
