// Package ddp implements per-controller Distributed Display Protocol (DDP)
// senders: each owns a UDP socket to one controller and applies the
// pad/trim/drop discipline needed to fit an incoming (offset, data) slice
// to that controller's fixed channel count.
package ddp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"net"
	"sort"

	"github.com/plextuner/ledshowd/internal/demux"
)

// Controller describes one DDP output endpoint: its address, its starting
// channel (0-based, already normalized from the 1-based outputs.json
// convention), and the number of channels it expects per frame.
type Controller struct {
	IP           net.IP
	StartChannel int
	ChannelCount int
}

// ErrOverlappingControllers is returned by NewControllerSet when two
// controllers' channel ranges overlap after sorting.
var ErrOverlappingControllers = errors.New("ddp: overlapping controller channel ranges")

// NewControllerSet sorts controllers by StartChannel and validates that
// their ranges are non-overlapping and strictly increasing, per spec.md
// §3's "Controller map" invariant.
func NewControllerSet(controllers []Controller) ([]Controller, error) {
	out := make([]Controller, len(controllers))
	copy(out, controllers)
	sort.Slice(out, func(i, j int) bool { return out[i].StartChannel < out[j].StartChannel })

	for i := 1; i < len(out); i++ {
		prevEnd := out[i-1].StartChannel + out[i-1].ChannelCount
		if out[i].StartChannel < prevEnd {
			return nil, ErrOverlappingControllers
		}
	}
	return out, nil
}

const (
	basePort = 4048

	ddpFlagVer1 = 0x40
	ddpFlagPush = 0x01
	ddpHeaderSize = 10
)

// Sender owns a UDP connection to one controller and writes DDP packets
// built from Frames it receives on Run's channel.
type Sender struct {
	controller Controller
	conn       *net.UDPConn
	seq        byte
}

// NewSender dials controller.IP:4048 from a local socket bound to
// 0.0.0.0:<4048+index>, mirroring the per-controller port spread spec.md
// §4.3 calls for.
func NewSender(controller Controller, index int) (*Sender, error) {
	localPort := basePort + index
	laddr := &net.UDPAddr{IP: net.IPv4zero, Port: localPort}
	raddr := &net.UDPAddr{IP: controller.IP, Port: basePort}

	conn, err := net.DialUDP("udp4", laddr, raddr)
	if err != nil {
		return nil, fmt.Errorf("ddp: dial %s: %w", controller.IP, err)
	}
	return &Sender{controller: controller, conn: conn}, nil
}

// Close releases the sender's UDP socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}

// Send applies the pad/trim/drop decision table from spec.md §4.3 and, if
// the frame survives, writes it as a DDP packet.
func (s *Sender) Send(f demux.FrameSlice) error {
	clen := s.controller.ChannelCount
	end := f.Offset + len(f.Data)

	var payload []byte
	switch {
	case end == clen && f.Offset == 0:
		payload = f.Data
	case end == clen && f.Offset > 0:
		payload = make([]byte, clen)
		copy(payload[f.Offset:], f.Data)
	case end < clen:
		payload = make([]byte, clen)
		copy(payload[f.Offset:], f.Data)
	default: // end > clen
		log.Printf("ddp: controller %s: too much data (offset=%d len=%d channels=%d), dropping", s.controller.IP, f.Offset, len(f.Data), clen)
		return nil
	}

	return s.write(payload)
}

func (s *Sender) write(payload []byte) error {
	pkt := make([]byte, ddpHeaderSize+len(payload))
	pkt[0] = ddpFlagVer1 | ddpFlagPush
	pkt[1] = s.seq
	pkt[2] = 0x01 // data type: RGB, 8 bits/channel
	pkt[3] = 0x01 // destination ID: default output device
	binary.BigEndian.PutUint32(pkt[4:8], 0)
	binary.BigEndian.PutUint16(pkt[8:10], uint16(len(payload)))
	copy(pkt[ddpHeaderSize:], payload)

	s.seq++
	if _, err := s.conn.Write(pkt); err != nil {
		return fmt.Errorf("ddp: write to %s: %w", s.controller.IP, err)
	}
	return nil
}

// Run reads Frames from in until it is closed or ctx-like cancellation is
// signaled by closing in, applying Send to each.
func (s *Sender) Run(in <-chan demux.FrameSlice) {
	log.Printf("ddp: started sender for controller %s", s.controller.IP)
	for f := range in {
		if err := s.Send(f); err != nil {
			log.Printf("ddp: %v", err)
		}
	}
	log.Printf("ddp: stopped sender for controller %s", s.controller.IP)
}
