package ctaphid

// Cmd identifies a CTAPHID command. The wire representation is the low 7
// bits of the command byte in an initialization frame (bit 7 is the
// initialization-frame marker, not part of the command itself).
type Cmd uint8

// CTAPHID command set (FIDO Alliance CTAP2, Section 8.1.9).
const (
	CmdMsg      Cmd = 0x03
	CmdCBOR     Cmd = 0x10
	CmdInit     Cmd = 0x06
	CmdPing     Cmd = 0x01
	CmdCancel   Cmd = 0x11
	CmdError    Cmd = 0x3F
	CmdKeepAlive Cmd = 0x3B
	CmdWink     Cmd = 0x08

	// CmdUnknown is the zero command value. ParseCmd returns it (with
	// false) for a command byte whose low 7 bits are zero; like every
	// unrecognized value it maps to invalid_cmd at dispatch.
	CmdUnknown Cmd = 0x00
)

// String returns the human-readable name of the command.
func (c Cmd) String() string {
	switch c {
	case CmdMsg:
		return "MSG"
	case CmdCBOR:
		return "CBOR"
	case CmdInit:
		return "INIT"
	case CmdPing:
		return "PING"
	case CmdCancel:
		return "CANCEL"
	case CmdError:
		return "ERROR"
	case CmdKeepAlive:
		return "KEEPALIVE"
	case CmdWink:
		return "WINK"
	default:
		return "UNKNOWN"
	}
}

// knownCommands is the set of commands this engine dispatches locally or
// forwards to the authenticator core. Anything else maps to invalid_cmd.
var knownCommands = map[Cmd]bool{
	CmdMsg:    true,
	CmdCBOR:   true,
	CmdInit:   true,
	CmdPing:   true,
	CmdCancel: true,
}

// ParseCmd interprets the low 7 bits of a frame's command byte. The
// returned bool is false when the value is not one this engine recognizes
// for dispatch (the caller should respond with invalid_cmd).
func ParseCmd(b byte) (Cmd, bool) {
	c := Cmd(b & 0x7F)
	return c, knownCommands[c]
}
