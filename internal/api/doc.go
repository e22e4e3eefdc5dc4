// Package api exposes study sessions over HTTP. It translates requests into
// session transitions, renders every state through the presenter, and maps
// domain errors to status codes in one place so internal error text never
// reaches a client.
package api
