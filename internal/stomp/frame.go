// Package stomp implements the subset of STOMP 1.2 framing used by the
// support-chat gateway: client frames (CONNECT, SUBSCRIBE, UNSUBSCRIBE,
// SEND, DISCONNECT) and server frames (CONNECTED, MESSAGE, RECEIPT, ERROR).
package stomp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Command is a STOMP frame command.
type Command string

const (
	CmdConnect     Command = "CONNECT"
	CmdStomp       Command = "STOMP"
	CmdConnected   Command = "CONNECTED"
	CmdSend        Command = "SEND"
	CmdSubscribe   Command = "SUBSCRIBE"
	CmdUnsubscribe Command = "UNSUBSCRIBE"
	CmdDisconnect  Command = "DISCONNECT"
	CmdMessage     Command = "MESSAGE"
	CmdReceipt     Command = "RECEIPT"
	CmdError       Command = "ERROR"
)

// Standard header names.
const (
	HdrAcceptVersion = "accept-version"
	HdrVersion       = "version"
	HdrSession       = "session"
	HdrHeartBeat     = "heart-beat"
	HdrDestination   = "destination"
	HdrID            = "id"
	HdrSubscription  = "subscription"
	HdrMessageID     = "message-id"
	HdrReceipt       = "receipt"
	HdrReceiptID     = "receipt-id"
	HdrContentType   = "content-type"
	HdrContentLength = "content-length"
	HdrMessage       = "message"
	HdrAuthorization = "Authorization"
)

var (
	ErrMalformedFrame    = errors.New("malformed stomp frame")
	ErrUnknownCommand    = errors.New("unknown stomp command")
	ErrEmptyFrame        = errors.New("empty stomp frame")
	ErrMissingTerminator = errors.New("stomp frame body missing NUL terminator")
)

var validCommands = map[Command]bool{
	CmdConnect: true, CmdStomp: true, CmdConnected: true,
	CmdSend: true, CmdSubscribe: true, CmdUnsubscribe: true,
	CmdDisconnect: true, CmdMessage: true, CmdReceipt: true, CmdError: true,
}

// Frame is a single STOMP frame. Headers keep the first occurrence of each
// name, as the protocol requires.
type Frame struct {
	Command Command
	Headers map[string]string
	Body    []byte
}

// NewFrame builds a frame from a command and alternating header name/value
// pairs.
func NewFrame(cmd Command, headers ...string) *Frame {
	f := &Frame{Command: cmd, Headers: make(map[string]string, len(headers)/2)}
	for i := 0; i+1 < len(headers); i += 2 {
		f.Headers[headers[i]] = headers[i+1]
	}
	return f
}

// Header returns the value of the named header, or "" when absent.
func (f *Frame) Header(name string) string {
	return f.Headers[name]
}

// IsConnect reports whether this frame opens a STOMP session.
func (f *Frame) IsConnect() bool {
	return f.Command == CmdConnect || f.Command == CmdStomp
}

// Parse decodes one frame from raw bytes. Leading EOLs (heartbeats) are
// skipped. Returns ErrEmptyFrame when the input contains only heartbeat
// newlines.
func Parse(data []byte) (*Frame, error) {
	for len(data) > 0 && (data[0] == '\n' || data[0] == '\r') {
		data = data[1:]
	}
	if len(data) == 0 {
		return nil, ErrEmptyFrame
	}

	head, body, ok := bytes.Cut(data, []byte("\n\n"))
	if !ok {
		// Tolerate CRLF framing from some transports.
		head, body, ok = bytes.Cut(data, []byte("\r\n\r\n"))
		if !ok {
			return nil, ErrMalformedFrame
		}
	}

	lines := strings.Split(string(head), "\n")
	cmd := Command(strings.TrimRight(lines[0], "\r"))
	if !validCommands[cmd] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	f := &Frame{Command: cmd, Headers: make(map[string]string, len(lines)-1)}
	escaped := cmd != CmdConnect && cmd != CmdConnected
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("%w: header %q", ErrMalformedFrame, line)
		}
		if escaped {
			name = unescapeHeader(name)
			value = unescapeHeader(value)
		}
		// First occurrence wins.
		if _, dup := f.Headers[name]; !dup {
			f.Headers[name] = value
		}
	}

	if cl := f.Headers[HdrContentLength]; cl != "" {
		n, err := strconv.Atoi(cl)
		if err != nil || n < 0 || n > len(body) {
			return nil, fmt.Errorf("%w: bad content-length %q", ErrMalformedFrame, cl)
		}
		f.Body = body[:n]
		return f, nil
	}

	end := bytes.IndexByte(body, 0)
	if end < 0 {
		return nil, ErrMissingTerminator
	}
	f.Body = body[:end]
	return f, nil
}

// Marshal encodes the frame to wire form, NUL terminated. A content-length
// header is added whenever a body is present.
func (f *Frame) Marshal() []byte {
	var buf bytes.Buffer
	buf.WriteString(string(f.Command))
	buf.WriteByte('\n')

	escaped := f.Command != CmdConnect && f.Command != CmdConnected
	for name, value := range f.Headers {
		if name == HdrContentLength {
			continue
		}
		if escaped {
			name = escapeHeader(name)
			value = escapeHeader(value)
		}
		buf.WriteString(name)
		buf.WriteByte(':')
		buf.WriteString(value)
		buf.WriteByte('\n')
	}
	if len(f.Body) > 0 {
		buf.WriteString(HdrContentLength)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(len(f.Body)))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.Write(f.Body)
	buf.WriteByte(0)
	return buf.Bytes()
}

var headerEscaper = strings.NewReplacer(`\`, `\\`, "\r", `\r`, "\n", `\n`, ":", `\c`)

func escapeHeader(s string) string {
	return headerEscaper.Replace(s)
}

func unescapeHeader(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'c':
			b.WriteByte(':')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
