package ctaphid

import "encoding/binary"

// Frame layout sizes (spec.md §4.2 "Frame layout").
const (
	// MinInitFrameLen is the minimum length of an initialization frame:
	// cid[4] | cmd[1] | bcnt_hi[1] | bcnt_lo[1].
	MinInitFrameLen = 7

	// MinContFrameLen is the minimum length of a continuation frame:
	// cid[4] | seq[1].
	MinContFrameLen = 5

	// MaxPayload is the largest request body the reassembly buffer can
	// hold: 64-byte frames, 7-byte init header, 5-byte continuation
	// headers, 1+128 frames (spec.md §3, "buffer: ... capacity 7609
	// bytes").
	MaxPayload = 7609
)

// initHeader is a parsed initialization-frame header.
type initHeader struct {
	cid       Cid
	cmd       Cmd
	cmdByte   byte // low 7 bits, before ParseCmd's validity check
	bcntTotal uint16
	payload   []byte
}

// parseInitFrame parses frame as an initialization frame. The caller must
// have already verified len(frame) >= MinInitFrameLen and that bit 7 of
// byte 4 is set.
func parseInitFrame(frame []byte) initHeader {
	return initHeader{
		cid:       Cid(binary.BigEndian.Uint32(frame[0:4])),
		cmdByte:   frame[4] & 0x7F,
		bcntTotal: binary.BigEndian.Uint16(frame[5:7]),
		payload:   frame[7:],
	}
}

// contHeader is a parsed continuation-frame header.
type contHeader struct {
	cid     Cid
	seq     uint8
	payload []byte
}

// parseContFrame parses frame as a continuation frame. The caller must
// have already verified len(frame) >= MinContFrameLen and that bit 7 of
// byte 4 is clear.
func parseContFrame(frame []byte) contHeader {
	return contHeader{
		cid:     Cid(binary.BigEndian.Uint32(frame[0:4])),
		seq:     frame[4] & 0x7F,
		payload: frame[5:],
	}
}

// isInitFrame reports whether byte 4 (the command/seq byte) has its
// init-frame marker (bit 7) set. Both frame kinds have this byte at the
// same offset, directly after the 4-byte Cid.
func isInitFrame(frame []byte) bool {
	return len(frame) > 4 && frame[4]&0x80 != 0
}

// readCidLoose reads the first 4 bytes as a Cid if present, for use when
// building an error reply from an otherwise-malformed frame (spec.md §4.2:
// "emit error other on broadcast cid if the source cid is unreadable,
// else on the source cid").
func readCidLoose(frame []byte) (Cid, bool) {
	if len(frame) < 4 {
		return 0, false
	}
	return Cid(binary.BigEndian.Uint32(frame[0:4])), true
}
