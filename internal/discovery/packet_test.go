package discovery

import (
	"net"
	"testing"
)

func TestPingEncodeDecode_V2(t *testing.T) {
	p := &Ping{
		DataLen:       200,
		PingVersion:   2,
		SubType:       PingSubTypePing,
		HardwareType:  HardwareFpp,
		MajorVersion:  1,
		MinorVersion:  0,
		OperatingMode: ModePlayer,
		IPAddress:     net.IPv4(192, 168, 1, 50),
		Hostname:      "showhost",
		Version:       "1.0.0",
		Hardware:      "Generic",
		Channels:      "",
	}

	encoded := p.Encode()
	if len(encoded) != 207 {
		t.Fatalf("encoded length = %d, want 207", len(encoded))
	}
	if encoded[0] != 0x46 || encoded[1] != 0x50 || encoded[2] != 0x50 || encoded[3] != 0x44 {
		t.Fatalf("magic bytes = % x, want 46 50 50 44", encoded[:4])
	}

	pkt, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if pkt.PacketType != PacketPing {
		t.Fatalf("PacketType = %v, want PacketPing", pkt.PacketType)
	}
	got := pkt.Ping
	if got == nil {
		t.Fatal("Ping body is nil")
	}
	if got.SubType != PingSubTypePing {
		t.Errorf("SubType = %v, want PingSubTypePing", got.SubType)
	}
	if got.HardwareType != HardwareFpp {
		t.Errorf("HardwareType = %v, want HardwareFpp", got.HardwareType)
	}
	if got.OperatingMode.Has(ModePlayer) != true {
		t.Errorf("OperatingMode does not have player bit set")
	}
	if !got.IPAddress.Equal(p.IPAddress) {
		t.Errorf("IPAddress = %v, want %v", got.IPAddress, p.IPAddress)
	}
	if got.Hostname != p.Hostname {
		t.Errorf("Hostname = %q, want %q", got.Hostname, p.Hostname)
	}
	if got.Version != p.Version {
		t.Errorf("Version = %q, want %q", got.Version, p.Version)
	}
	if got.Hardware != p.Hardware {
		t.Errorf("Hardware = %q, want %q", got.Hardware, p.Hardware)
	}
}

func TestPingEncodeDecode_V3Channels(t *testing.T) {
	p := &Ping{
		PingVersion:   3,
		SubType:       PingSubTypePing,
		HardwareType:  HardwareWled,
		OperatingMode: ModePlayer,
		IPAddress:     net.IPv4(10, 0, 0, 1),
		Hostname:      "h",
		Version:       "v",
		Hardware:      "hw",
		Channels:      "1:512",
	}
	encoded := p.Encode()
	// magic(4) + type(1) + data_len(2) + ping_version(1) + sub_type(1) +
	// hardware_type(1) + major(2) + minor(2) + mode(1) + ip(4) + hostname(65)
	// + version(41) + hardware(41) + channels(121) = 287
	if len(encoded) != 287 {
		t.Fatalf("encoded length = %d, want 287", len(encoded))
	}

	pkt, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if pkt.Ping.Channels != "1:512" {
		t.Errorf("Channels = %q, want %q", pkt.Ping.Channels, "1:512")
	}
}

func TestDecode_BadMagic(t *testing.T) {
	_, err := Decode([]byte{0, 0, 0, 0, 4})
	if err != ErrBadMagic {
		t.Fatalf("err = %v, want ErrBadMagic", err)
	}
}

func TestDecode_NonPingPacket(t *testing.T) {
	buf := []byte{0x46, 0x50, 0x50, 0x44, byte(PacketBlanking)}
	pkt, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if pkt.PacketType != PacketBlanking {
		t.Errorf("PacketType = %v, want PacketBlanking", pkt.PacketType)
	}
	if pkt.Ping != nil {
		t.Errorf("Ping = %+v, want nil", pkt.Ping)
	}
}

func TestHardwareType_UnknownCode(t *testing.T) {
	h := hardwareFromByte(0x99)
	if h != HardwareUnknown {
		t.Errorf("hardwareFromByte(0x99) = %v, want HardwareUnknown", h)
	}
	if h.String() != "unknown" {
		t.Errorf("String() = %q, want %q", h.String(), "unknown")
	}
}

func TestHardwareType_KnownCode(t *testing.T) {
	if HardwarePi4.String() != "Pi 4" {
		t.Errorf("HardwarePi4.String() = %q, want %q", HardwarePi4.String(), "Pi 4")
	}
}
