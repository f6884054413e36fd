// Package domain defines the transient request/response shapes shared by the
// dispatch, menu, report, and notification layers.
package domain

import "strings"

// Command is a parsed bot command with its parameters. Names are normalized to
// lower case; the lifetime of a Command is a single dispatch cycle.
type Command struct {
	Name   string
	Params map[string]string
}

// NewCommand builds a Command with a normalized name and a non-nil params map.
func NewCommand(name string, params map[string]string) Command {
	if params == nil {
		params = map[string]string{}
	}

	return Command{
		Name:   strings.ToLower(strings.TrimSpace(name)),
		Params: params,
	}
}

// Param returns the named parameter or the fallback when absent or blank.
func (c Command) Param(key, fallback string) string {
	value := strings.TrimSpace(c.Params[key])
	if value == "" {
		return fallback
	}
	return value
}

// Button is a single inline-keyboard button. CallbackData values double as
// command strings and feed back into the parser on the next update.
type Button struct {
	Text         string
	CallbackData string
}

// Response is the uniform handler result: a message, an optional inline
// keyboard, and an error indicator. It is returned synchronously to the
// webhook layer and never persisted.
type Response struct {
	Success  bool
	Message  string
	Keyboard [][]Button
	Error    string
}

// TextResponse builds a successful keyboard-less response.
func TextResponse(message string) Response {
	return Response{Success: true, Message: message}
}

// KeyboardResponse builds a successful response carrying an inline keyboard.
func KeyboardResponse(message string, keyboard [][]Button) Response {
	return Response{Success: true, Message: message, Keyboard: keyboard}
}

// ErrorResponse builds a failed response with a user-facing message and an
// internal error description that must never reach chat.
func ErrorResponse(message, internal string) Response {
	return Response{Success: false, Message: message, Error: internal}
}
