package ctaphid

import "encoding/binary"

// FrameIterator lazily fragments a (cid, cmd, payload) reply into outbound
// frames sized to the transport's frame size (spec.md §4.2 "Response
// fragmentation"). The engine does not pad outbound frames; the final
// frame may be short, and the transport adapter decides whether and how
// to pad it before writing to the wire.
type FrameIterator struct {
	cid       Cid
	cmd       Cmd
	payload   []byte
	frameSize int

	offset int
	seq    uint8
	first  bool
	done   bool
}

// newFrameIterator builds an iterator over payload, addressed to cid/cmd,
// fragmented to frameSize-byte frames.
func newFrameIterator(cid Cid, cmd Cmd, payload []byte, frameSize int) *FrameIterator {
	return &FrameIterator{
		cid:       cid,
		cmd:       cmd,
		payload:   payload,
		frameSize: frameSize,
		first:     true,
	}
}

// Next returns the next outbound frame, or (nil, false) once the payload
// has been fully fragmented.
func (it *FrameIterator) Next() ([]byte, bool) {
	if it.done {
		return nil, false
	}

	if it.first {
		it.first = false
		return it.firstFrame(), true
	}

	return it.contFrame(), true
}

func (it *FrameIterator) firstFrame() []byte {
	headerLen := MinInitFrameLen
	capacity := it.frameSize - headerLen
	chunk, last := it.take(capacity)

	frame := make([]byte, headerLen+len(chunk))
	binary.BigEndian.PutUint32(frame[0:4], uint32(it.cid))
	frame[4] = byte(it.cmd) | 0x80
	binary.BigEndian.PutUint16(frame[5:7], uint16(len(it.payload)))
	copy(frame[headerLen:], chunk)

	if last {
		it.done = true
	}
	return frame
}

func (it *FrameIterator) contFrame() []byte {
	headerLen := MinContFrameLen
	capacity := it.frameSize - headerLen
	chunk, last := it.take(capacity)

	frame := make([]byte, headerLen+len(chunk))
	binary.BigEndian.PutUint32(frame[0:4], uint32(it.cid))
	frame[4] = it.seq & 0x7F
	copy(frame[headerLen:], chunk)

	it.seq++
	if last {
		it.done = true
	}
	return frame
}

// take returns up to n bytes starting at the iterator's offset, advancing
// it, and reports whether this was the last chunk of the payload.
func (it *FrameIterator) take(n int) (chunk []byte, last bool) {
	remaining := len(it.payload) - it.offset
	if n > remaining {
		n = remaining
	}
	chunk = it.payload[it.offset : it.offset+n]
	it.offset += n
	return chunk, it.offset >= len(it.payload)
}
