package discovery

import (
	"context"
	"log"
	"net"
	"syscall"
	"time"

	xnetipv4 "golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

const (
	// MulticastAddr is the PDDF/Ping discovery multicast group.
	MulticastAddr = "239.70.80.80"
	// Port is the UDP port both the multicast group and unicast replies use.
	Port = 32320
)

// Identity is the fixed set of fields a Responder advertises in its Ping
// replies.
type Identity struct {
	Hostname     string
	Version      string
	HardwareName string
	HardwareType HardwareType
}

// Responder answers Discovery probes on the PDDF multicast group, one
// listener per non-loopback IPv4 interface address.
type Responder struct {
	id Identity
}

// NewResponder builds a Responder advertising id in its replies.
func NewResponder(id Identity) *Responder {
	return &Responder{id: id}
}

// Listen enumerates non-loopback IPv4 addresses on the host and runs one
// responder task per address until ctx is canceled. A fatal error on any
// one socket calls cancel, tearing down the rest.
func (r *Responder) Listen(ctx context.Context, cancel context.CancelFunc) {
	addrs, err := localIPv4Addrs()
	if err != nil || len(addrs) == 0 {
		log.Printf("discovery: no network interfaces found: %v", err)
		cancel()
		return
	}

	done := make(chan struct{}, len(addrs))
	for _, ip := range addrs {
		ip := ip
		go func() {
			defer func() { done <- struct{}{} }()
			if err := r.listenOn(ctx, ip); err != nil && ctx.Err() == nil {
				log.Printf("discovery: listener on %s failed: %v", ip, err)
				cancel()
			}
		}()
	}
	for range addrs {
		<-done
	}
}

func localIPv4Addrs() ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var out []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			var ip net.IP
			switch v := a.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip4 := ip.To4(); ip4 != nil {
				out = append(out, ip4)
			}
		}
	}
	return out, nil
}

var listenConfig = net.ListenConfig{
	Control: func(_, _ string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		})
		if err != nil {
			return err
		}
		return sockErr
	},
}

func (r *Responder) listenOn(ctx context.Context, bindIP net.IP) error {
	pc, err := listenConfig.ListenPacket(ctx, "udp4", "0.0.0.0:32320")
	if err != nil {
		return err
	}
	defer pc.Close()

	conn := xnetipv4.NewPacketConn(pc)
	group := net.UDPAddr{IP: net.ParseIP(MulticastAddr)}
	if err := conn.JoinGroup(nil, &group); err != nil {
		return err
	}
	if err := conn.SetMulticastLoopback(true); err != nil {
		return err
	}

	log.Printf("discovery: listening on %s from multicast %s:%d", bindIP, MulticastAddr, Port)

	buf := make([]byte, 2048)
	udpConn := pc.(*net.UDPConn)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		udpConn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, from, err := conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return err
		}

		pkt, err := Decode(buf[:n])
		if err != nil {
			continue
		}
		if pkt.PacketType != PacketPing || pkt.Ping == nil || pkt.Ping.SubType != PingSubTypeDiscovery {
			continue
		}

		log.Printf("discovery: discover received from %s on %s", from, bindIP)

		reply := r.reply(bindIP)
		if _, err := pc.WriteTo(reply.Encode(), from); err != nil {
			log.Printf("discovery: reply to %s failed: %v", from, err)
		}
	}
}

func (r *Responder) reply(bindIP net.IP) *Ping {
	return &Ping{
		PingVersion:   2,
		SubType:       PingSubTypePing,
		HardwareType:  r.id.HardwareType,
		MajorVersion:  1,
		MinorVersion:  0,
		OperatingMode: ModePlayer,
		IPAddress:     bindIP,
		Hostname:      r.id.Hostname,
		Version:       r.id.Version,
		Hardware:      r.id.HardwareName,
		Channels:      "",
	}
}
