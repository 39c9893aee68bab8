package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"golang.org/x/net/ipv4"

	"tinygo.org/x/mpix/pipeline"
)

// mcastSink fans a finished stream out over a UDP multicast group: the
// "broadcast this camera to the LAN" scenario a headless node uses
// instead of a point-to-point connection per viewer. x/net/ipv4 is used
// (rather than a bare net.UDPConn) so the multicast TTL is explicit; the
// outgoing interface is not set and is left to the routing table.
type mcastSink struct {
	conn  *net.UDPConn
	pconn *ipv4.PacketConn
	addr  *net.UDPAddr
	buf   []byte
}

func (s *mcastSink) Write(p []byte) error {
	s.buf = append(s.buf, p...)
	return nil
}

func (s *mcastSink) flush() error {
	defer s.conn.Close()
	const maxDatagram = 1400 // keep well under typical LAN MTU
	for off := 0; off < len(s.buf); off += maxDatagram {
		end := off + maxDatagram
		if end > len(s.buf) {
			end = len(s.buf)
		}
		if _, err := s.pconn.WriteTo(s.buf[off:end], nil, s.addr); err != nil {
			return err
		}
	}
	return nil
}

// addMcastSink parses `<group>:<port> [ttl]` and attaches a callback
// stage that buffers the whole stream, then datagram-splits it at
// flush time.
func addMcastSink(img *pipeline.Image, args []string) (flush func() error, err error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("expected <group:port> [ttl]")
	}
	host, portStr, ok := strings.Cut(args[0], ":")
	if !ok {
		return nil, fmt.Errorf("expected <group:port>, got %q", args[0])
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("bad port %q: %w", portStr, err)
	}
	ttl := 1
	if len(args) >= 2 {
		ttl, err = strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("bad ttl %q: %w", args[1], err)
		}
	}

	addr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
	if addr.IP == nil {
		return nil, fmt.Errorf("bad multicast group %q", host)
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, err
	}
	pconn := ipv4.NewPacketConn(conn)
	if err := pconn.SetMulticastTTL(ttl); err != nil {
		conn.Close()
		return nil, err
	}

	if err := img.Add(pipeline.KindCallback, nil); err != nil {
		conn.Close()
		return nil, err
	}
	sink := &mcastSink{conn: conn, pconn: pconn, addr: addr}
	if err := img.SetSink(sink); err != nil {
		conn.Close()
		return nil, err
	}
	return sink.flush, nil
}
