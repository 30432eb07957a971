package ctaphid

import (
	"encoding/binary"
	"log/slog"
	"sync"
)

// transactionTimeout is the maximum time a transaction may remain
// Collecting before the engine silently discards it (spec.md §4.2
// "Timeout sweep", §5 "Cancellation").
const transactionTimeout = 250 // milliseconds

// Capabilities are the CTAPHID capability flags advertised in INIT
// responses. spec.md §9: "Capability flags are hard-coded in the
// source... treat these as configuration, not magic constants; expose
// them at engine construction."
type Capabilities struct {
	Wink bool
	CBOR bool
	NMsg bool
}

// flagsByte packs the capability flags as InitResponse expects:
// (nmsg<<3) | (cbor<<2) | (wink<<0).
func (c Capabilities) flagsByte() byte {
	var b byte
	if c.NMsg {
		b |= 1 << 3
	}
	if c.CBOR {
		b |= 1 << 2
	}
	if c.Wink {
		b |= 1 << 0
	}
	return b
}

// deviceVersion is the fixed INIT response device-version triple
// (spec.md §8, scenario 1: "device CA FE 01").
const (
	deviceMajor = 0xCA
	deviceMinor = 0xFE
	deviceBuild = 0x01
	protocolVersion = 0x02
)

// txnState is the engine's single in-flight transaction.
type txnState struct {
	active    bool
	cid       Cid
	cmd       Cmd
	begin     int64
	bcntTotal uint16
	bcnt      uint16
	seq       int16 // -1 means "no continuation seen yet"
	buf       [MaxPayload]byte
}

func (t *txnState) reset() {
	*t = txnState{seq: -1}
}

// Engine is the CTAPHID transaction reassembly and dispatch state machine
// (spec.md §4.2). It holds the logical-channel table and the in-flight
// transaction buffer. Handle, State and Teardown take an internal mutex,
// so concurrent calls are serialized; the order in which frames reach
// Handle is still the caller's, exactly as the HID transport model
// itself serializes frame arrival.
type Engine struct {
	mu sync.Mutex

	clock         Clock
	authenticator Authenticator
	caps          Capabilities
	frameSize     int
	logger        *slog.Logger
	metrics       MetricsReporter

	channels *channelTable
	txn      txnState
	down     bool
}

// Option configures optional Engine parameters.
type Option func(*Engine)

// WithLogger attaches a structured logger. If unset, a discarding logger
// is used.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics attaches a MetricsReporter. If unset, a no-op reporter is
// used.
func WithMetrics(m MetricsReporter) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// New constructs an Engine with injected dependencies, per spec.md §4.2
// "new(clock, rng, authenticator) -> Engine". frameSize is the transport's
// fixed frame size (typically 64) and drives response fragmentation.
func New(clock Clock, rng RNG, authenticator Authenticator, frameSize int, caps Capabilities, opts ...Option) *Engine {
	e := &Engine{
		clock:         clock,
		authenticator: authenticator,
		caps:          caps,
		frameSize:     frameSize,
		logger:        slog.New(slog.DiscardHandler),
		metrics:       noopMetrics{},
		channels:      newChannelTable(rng),
	}
	e.txn.seq = -1
	e.channels.evicted = func(cid Cid) {
		e.metrics.ChannelEvicted()
		e.logger.Debug("channel evicted", slog.String("cid", cid.String()))
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Teardown releases the channel table. After Teardown, Handle always
// returns nil (spec.md §4.2 "teardown()": "releases the channel table").
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.channels.reset()
	e.down = true
}

// ChannelCount reports the number of live channel table entries, for
// introspection.
func (e *Engine) ChannelCount() int {
	return e.channels.len()
}

// Channels returns a snapshot of the channel table, oldest first.
func (e *Engine) Channels() []Cid {
	return e.channels.snapshot()
}

// TxnSnapshot describes the engine's current transaction state, for
// introspection (internal/server's /v1/state endpoint).
type TxnSnapshot struct {
	Active       bool
	Cid          Cid
	Cmd          Cmd
	ElapsedMilli int64
}

// State returns a snapshot of the current transaction, if any. When
// Active is false the remaining fields are zero.
func (e *Engine) State() TxnSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.txn.active {
		return TxnSnapshot{}
	}

	return TxnSnapshot{
		Active:       true,
		Cid:          e.txn.cid,
		Cmd:          e.txn.cmd,
		ElapsedMilli: e.clock.NowMillis() - e.txn.begin,
	}
}

// Handle processes one raw frame and returns a FrameIterator over outbound
// frames when a reply is ready, or nil while more input is expected
// (spec.md §4.2 "handle(frame) -> FrameIterator | None").
func (e *Engine) Handle(frame []byte) *FrameIterator {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.down {
		return nil
	}

	e.sweepTimeout()

	if e.txn.active {
		return e.handleCollecting(frame)
	}
	return e.handleIdle(frame)
}

func (e *Engine) sweepTimeout() {
	if !e.txn.active {
		return
	}
	if e.clock.NowMillis()-e.txn.begin > transactionTimeout {
		e.logger.Debug("transaction timed out", slog.String("cid", e.txn.cid.String()))
		e.txn.reset()
	}
}

func (e *Engine) handleIdle(frame []byte) *FrameIterator {
	if len(frame) < MinInitFrameLen {
		cid, ok := readCidLoose(frame)
		if !ok {
			cid = BroadcastCid
		}
		return e.errorReply(cid, ErrOther)
	}

	if !isInitFrame(frame) {
		cid, _ := readCidLoose(frame)
		return e.errorReply(cid, ErrInvalidCmd)
	}

	hdr := parseInitFrame(frame)

	if !hdr.cid.IsBroadcast() && !e.channels.contains(hdr.cid) {
		return e.errorReply(hdr.cid, ErrInvalidChannel)
	}

	cmd, _ := ParseCmd(hdr.cmdByte)

	e.txn.reset()
	e.txn.active = true
	e.txn.cid = hdr.cid
	e.txn.cmd = cmd
	e.txn.begin = e.clock.NowMillis()
	e.txn.bcntTotal = hdr.bcntTotal
	if int(e.txn.bcntTotal) > MaxPayload {
		e.txn.bcntTotal = MaxPayload
	}

	n := copy(e.txn.buf[:e.txn.bcntTotal], hdr.payload)
	e.txn.bcnt = uint16(n)

	if e.txn.bcnt >= e.txn.bcntTotal {
		return e.completeTransaction()
	}
	return nil
}

func (e *Engine) handleCollecting(frame []byte) *FrameIterator {
	if len(frame) < MinContFrameLen {
		it := e.errorReply(e.txn.cid, ErrOther)
		e.txn.reset()
		return it
	}

	cont := parseContFrame(frame)

	if cont.cid != e.txn.cid {
		return e.errorReply(cont.cid, ErrChannelBusy)
	}

	if isInitFrame(frame) {
		it := e.errorReply(e.txn.cid, ErrInvalidCmd)
		e.txn.reset()
		return it
	}

	wantSeq := uint8(0)
	if e.txn.seq >= 0 {
		wantSeq = uint8(e.txn.seq) + 1
	}
	if cont.seq != wantSeq {
		it := e.errorReply(e.txn.cid, ErrInvalidSeq)
		e.txn.reset()
		return it
	}
	e.txn.seq = int16(cont.seq)

	remaining := int(e.txn.bcntTotal) - int(e.txn.bcnt)
	n := copy(e.txn.buf[e.txn.bcnt:e.txn.bcntTotal], cont.payload)
	if n > remaining {
		n = remaining
	}
	e.txn.bcnt += uint16(n)

	if e.txn.bcnt >= e.txn.bcntTotal {
		return e.completeTransaction()
	}
	return nil
}

// completeTransaction dispatches the fully reassembled transaction and
// resets to Idle regardless of dispatch outcome (spec.md §4.2
// "Completion").
func (e *Engine) completeTransaction() *FrameIterator {
	cid := e.txn.cid
	cmd := e.txn.cmd
	body := append([]byte(nil), e.txn.buf[:e.txn.bcnt]...)
	e.txn.reset()

	// Channel-validity recheck at completion (spec.md §4.2 "Dispatch").
	if cmd == CmdInit {
		if !cid.IsBroadcast() && !e.channels.contains(cid) {
			return e.errorReply(cid, ErrInvalidChannel)
		}
	} else if !e.channels.contains(cid) {
		return e.errorReply(cid, ErrInvalidChannel)
	}

	e.metrics.TransactionCompleted(cmd.String())

	switch cmd {
	case CmdInit:
		return e.dispatchInit(cid, body)
	case CmdPing:
		return newFrameIterator(cid, CmdPing, body, e.frameSize)
	case CmdMsg:
		return e.dispatchMsg(cid, body)
	case CmdCBOR:
		return e.dispatchCBOR(cid, body)
	case CmdCancel:
		return nil
	default:
		return e.errorReply(cid, ErrInvalidCmd)
	}
}

// initResponseLen is the fixed InitResponse wire size (spec.md §6):
// nonce[8] | new_cid[4] | version[1] | major[1] | minor[1] | build[1] |
// capabilities[1].
const initResponseLen = 17

func (e *Engine) dispatchInit(cid Cid, body []byte) *FrameIterator {
	if cid.IsBroadcast() {
		newCid, err := e.channels.allocate()
		if err != nil {
			// Same effect as Teardown, inlined because Handle already
			// holds e.mu.
			e.channels.reset()
			e.down = true
			return nil
		}

		resp := make([]byte, initResponseLen)
		copy(resp[0:8], body) // nonce, zero-padded if body is shorter than 8 bytes
		binary.BigEndian.PutUint32(resp[8:12], uint32(newCid))
		resp[12] = protocolVersion
		resp[13] = deviceMajor
		resp[14] = deviceMinor
		resp[15] = deviceBuild
		resp[16] = e.caps.flagsByte()

		return newFrameIterator(BroadcastCid, CmdInit, resp, e.frameSize)
	}

	// Rebinding on an already-allocated channel: reply with just the cid.
	resp := make([]byte, 4)
	binary.BigEndian.PutUint32(resp, uint32(cid))
	return newFrameIterator(cid, CmdInit, resp, e.frameSize)
}

// dispatchMsg implements the documented minimal U2F passthrough (spec.md
// §4.2 "msg", §9 Open Question: preserved, not extended).
func (e *Engine) dispatchMsg(cid Cid, body []byte) *FrameIterator {
	if len(body) >= 2 && body[1] == 0x03 {
		return newFrameIterator(cid, CmdMsg, []byte("CTAP2/U2F_V2\x90\x00"), e.frameSize)
	}
	return newFrameIterator(cid, CmdMsg, []byte{0x69, 0x86}, e.frameSize)
}

func (e *Engine) dispatchCBOR(cid Cid, body []byte) *FrameIterator {
	resp, status, ok := e.authenticator.Handle(body)
	if !ok {
		return newFrameIterator(cid, CmdCBOR, []byte{status}, e.frameSize)
	}
	return newFrameIterator(cid, CmdCBOR, resp, e.frameSize)
}

func (e *Engine) errorReply(cid Cid, kind ErrorKind) *FrameIterator {
	e.metrics.ErrorOccurred(kind.String())
	e.logger.Debug("ctaphid error",
		slog.String("cid", cid.String()),
		slog.String("kind", kind.String()),
	)
	return newFrameIterator(cid, CmdError, []byte{kind.WireByte()}, e.frameSize)
}
