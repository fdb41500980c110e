// Package wire defines the text frame format spoken between the relay and its
// clients. Every frame is a single websocket text message of the form
// COMMAND::ARG1::ARG2::...::ARGn. There is no escaping; argument values must
// not contain the delimiter.
package wire

import "strings"

// Delimiter separates the command name and arguments within a frame.
const Delimiter = "::"

// Commands accepted from clients.
const (
	CmdStartSession = "start-session"
	CmdJoinSession  = "join-session"
	CmdProposeMove  = "propose-move"
	CmdListActive   = "list-active"
	CmdSessionOver  = "session-over"
	CmdObserve      = "observe-session"
	CmdChat         = "chat"
)

// Replies sent to clients.
const (
	ReplyError        = "error"
	ReplyRole         = "role"
	ReplyStarted      = "session-started"
	ReplyOpponentMove = "opponent_move"
	ReplyStream       = "stream"
	ReplyActive       = "active"
	ReplyNoActive     = "no-active-sessions"
	ReplySnapshot     = "session-snapshot"
	ReplyChat         = "chat"
)

// Error messages for the failures that are reported to clients. Everything
// else fails silently and is only visible in the server logs.
const (
	ErrSessionExists   = "session already exists"
	ErrSessionFull     = "session full"
	ErrSessionNotFound = "session not found"
	ErrInvalidMove     = "invalid move or session code"
)

// Message is one decoded frame.
type Message struct {
	Command string
	Args    []string
}

// Decode splits a frame into its command name and arguments. Splitting on the
// delimiter cannot fail; unknown command names and missing arguments are the
// dispatcher's problem.
func Decode(frame []byte) Message {
	parts := strings.Split(string(frame), Delimiter)
	return Message{Command: parts[0], Args: parts[1:]}
}

// Encode builds a frame from a command name and its arguments.
func Encode(command string, args ...string) []byte {
	if len(args) == 0 {
		return []byte(command)
	}
	return []byte(command + Delimiter + strings.Join(args, Delimiter))
}
