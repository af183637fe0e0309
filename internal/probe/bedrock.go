package probe

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"time"
)

// RakNet unconnected ping, the status protocol spoken by Bedrock edition
// servers: a single UDP datagram and a pong carrying a semicolon-separated
// MOTD string.

const (
	rakUnconnectedPing = 0x01
	rakUnconnectedPong = 0x1c
)

// rakMagic is RakNet's fixed offline-message marker.
var rakMagic = [16]byte{
	0x00, 0xff, 0xff, 0x00, 0xfe, 0xfe, 0xfe, 0xfe,
	0xfd, 0xfd, 0xfd, 0xfd, 0x12, 0x34, 0x56, 0x78,
}

func pingBedrock(ctx context.Context, host string, port int) (Status, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return Status{}, err
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	// ping: id + send time + magic + client guid
	req := make([]byte, 0, 33)
	req = append(req, rakUnconnectedPing)
	req = binary.BigEndian.AppendUint64(req, uint64(time.Now().UnixMilli()))
	req = append(req, rakMagic[:]...)
	req = binary.BigEndian.AppendUint64(req, rand.Uint64())
	if _, err := conn.Write(req); err != nil {
		return Status{}, err
	}

	buf := make([]byte, 2048)
	n, err := conn.Read(buf)
	if err != nil {
		return Status{}, err
	}
	return parsePong(buf[:n])
}

// parsePong decodes an unconnected pong:
// id + send time + server guid + magic + uint16-prefixed MOTD string.
func parsePong(pkt []byte) (Status, error) {
	// 1 id + 8 time + 8 guid + 16 magic + 2 strlen
	const header = 1 + 8 + 8 + 16 + 2
	if len(pkt) < header || pkt[0] != rakUnconnectedPong {
		return Status{}, fmt.Errorf("%w: not an unconnected pong", ErrProtocol)
	}
	strLen := int(binary.BigEndian.Uint16(pkt[33:35]))
	if header+strLen > len(pkt) {
		strLen = len(pkt) - header
	}
	return parseMOTD(string(pkt[header : header+strLen]))
}

// parseMOTD splits "MCPE;name;protocol;version;online;max;..." and pulls the
// player counts out of fields 4 and 5.
func parseMOTD(motd string) (Status, error) {
	parts := strings.Split(motd, ";")
	if len(parts) < 6 {
		return Status{}, fmt.Errorf("%w: short MOTD %q", ErrProtocol, motd)
	}
	online, err := strconv.Atoi(strings.TrimSpace(parts[4]))
	if err != nil {
		return Status{}, fmt.Errorf("%w: player count %q", ErrProtocol, parts[4])
	}
	max, err := strconv.Atoi(strings.TrimSpace(parts[5]))
	if err != nil {
		return Status{}, fmt.Errorf("%w: max players %q", ErrProtocol, parts[5])
	}
	return Status{Online: online, Max: max}, nil
}
