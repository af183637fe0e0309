package probe

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
)

// Server List Ping, the status protocol spoken by Java edition servers:
// a varint-framed handshake (next state = status), an empty status request,
// and a JSON status response.

const (
	handshakeNextStateStatus = 1

	// statusProtocolVersion is the conventional "I only want status" version.
	statusProtocolVersion = -1

	// maxStatusFrame caps the response frame. Status JSON can carry a base64
	// favicon, so this is generous but still bounded.
	maxStatusFrame = 1 << 20
)

type javaStatus struct {
	Players struct {
		Online int `json:"online"`
		Max    int `json:"max"`
	} `json:"players"`
}

func pingJava(ctx context.Context, host string, port int) (Status, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return Status{}, err
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	var hs bytes.Buffer
	writeVarInt(&hs, 0x00) // handshake packet id
	writeVarInt(&hs, statusProtocolVersion)
	writeVarString(&hs, host)
	_ = binary.Write(&hs, binary.BigEndian, uint16(port))
	writeVarInt(&hs, handshakeNextStateStatus)

	if err := writeFrame(conn, hs.Bytes()); err != nil {
		return Status{}, err
	}
	// Status request: empty packet 0x00.
	if err := writeFrame(conn, []byte{0x00}); err != nil {
		return Status{}, err
	}

	payload, err := readFrame(conn, maxStatusFrame)
	if err != nil {
		return Status{}, err
	}

	r := bytes.NewReader(payload)
	id, err := readVarInt(r)
	if err != nil {
		return Status{}, err
	}
	if id != 0x00 {
		return Status{}, fmt.Errorf("%w: unexpected packet id %#x", ErrProtocol, id)
	}
	n, err := readVarInt(r)
	if err != nil {
		return Status{}, err
	}
	if n < 0 || int(n) > r.Len() {
		return Status{}, fmt.Errorf("%w: bad status length %d", ErrProtocol, n)
	}

	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return Status{}, err
	}
	var st javaStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return Status{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return Status{Online: st.Players.Online, Max: st.Players.Max}, nil
}

// ---- varint framing ----

// writeFrame sends one length-prefixed packet.
func writeFrame(w io.Writer, payload []byte) error {
	var b bytes.Buffer
	writeVarInt(&b, int32(len(payload)))
	b.Write(payload)
	_, err := w.Write(b.Bytes())
	return err
}

// readFrame reads one length-prefixed packet, bounded by maxLen.
func readFrame(r io.Reader, maxLen int32) ([]byte, error) {
	n, err := readVarInt(byteReader{r})
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > maxLen {
		return nil, fmt.Errorf("%w: frame length %d", ErrProtocol, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func writeVarInt(b *bytes.Buffer, v int32) {
	u := uint32(v)
	for {
		if u&^0x7f == 0 {
			b.WriteByte(byte(u))
			return
		}
		b.WriteByte(byte(u&0x7f | 0x80))
		u >>= 7
	}
}

func writeVarString(b *bytes.Buffer, s string) {
	writeVarInt(b, int32(len(s)))
	b.WriteString(s)
}

func readVarInt(r io.ByteReader) (int32, error) {
	var u uint32
	for i := 0; i < 5; i++ {
		c, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		u |= uint32(c&0x7f) << (7 * i)
		if c&0x80 == 0 {
			return int32(u), nil
		}
	}
	return 0, fmt.Errorf("%w: varint too long", ErrProtocol)
}

// byteReader adapts an io.Reader for single-byte varint reads off a socket.
type byteReader struct{ r io.Reader }

func (b byteReader) ReadByte() (byte, error) {
	var p [1]byte
	if _, err := io.ReadFull(b.r, p[:]); err != nil {
		return 0, err
	}
	return p[0], nil
}
