// Package discovery implements the PDDF/Ping UDP multicast discovery
// protocol: a magic-prefixed packet envelope carrying a fixed-layout Ping
// body, and a per-interface multicast responder that answers Discovery
// probes with a Ping reply.
package discovery

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

// Magic is the big-endian packet envelope signature.
const Magic uint32 = 0x46505044

var (
	ErrBadMagic        = errors.New("discovery: bad magic")
	ErrUnknownPacket    = errors.New("discovery: unhandled packet type")
)

// PacketType identifies the FPP control packet kind. Only Ping is parsed;
// everything else decodes as an envelope with no body.
type PacketType uint8

const (
	PacketLegacy    PacketType = 0
	PacketMultisync PacketType = 1
	PacketEvent     PacketType = 2
	PacketBlanking  PacketType = 3
	PacketPing      PacketType = 4
	PacketPlugin    PacketType = 5
	PacketCommand   PacketType = 6
)

func (t PacketType) String() string {
	switch t {
	case PacketLegacy:
		return "legacy"
	case PacketMultisync:
		return "multisync"
	case PacketEvent:
		return "event"
	case PacketBlanking:
		return "blanking"
	case PacketPing:
		return "ping"
	case PacketPlugin:
		return "plugin"
	case PacketCommand:
		return "command"
	default:
		return "unknown"
	}
}

// PingSubType distinguishes a discovery probe from a ping reply.
type PingSubType uint8

const (
	PingSubTypePing      PingSubType = 0
	PingSubTypeDiscovery PingSubType = 1
)

// OperatingMode is the bitfield FPP advertises in a Ping body.
type OperatingMode uint8

const (
	ModeBridge    OperatingMode = 1
	ModePlayer    OperatingMode = 2
	ModeMultisync OperatingMode = 4
	ModeRemote    OperatingMode = 8
)

func (m OperatingMode) Has(bit OperatingMode) bool { return m&bit != 0 }

// HardwareType is FPP's large hardware-platform enum. Unknown codes decode
// to HardwareUnknown rather than erroring (spec's documented Open Question).
type HardwareType uint8

const (
	HardwareUnknown                     HardwareType = 0x00
	HardwareFpp                         HardwareType = 0x01
	HardwarePiA                         HardwareType = 0x02
	HardwarePiB                         HardwareType = 0x03
	HardwarePiAPlus                     HardwareType = 0x04
	HardwarePiBPlus                     HardwareType = 0x05
	HardwarePi2b                        HardwareType = 0x06
	HardwarePi2bNew                     HardwareType = 0x07
	HardwarePi3b                        HardwareType = 0x08
	HardwarePi3bPlus                    HardwareType = 0x09
	HardwarePiZero                      HardwareType = 0x10
	HardwarePiZerow                     HardwareType = 0x11
	HardwarePi3aPlus                    HardwareType = 0x12
	HardwarePi4                         HardwareType = 0x13
	HardwareBeagleboneBlackRevB         HardwareType = 0x40
	HardwareBeagleboneBlackRevC         HardwareType = 0x41
	HardwareBeagleboneBlackWireless     HardwareType = 0x42
	HardwareBeagleboneGreen             HardwareType = 0x43
	HardwareBeagleboneGreenWireless     HardwareType = 0x44
	HardwarePocketbeagle                HardwareType = 0x45
	HardwareSancloudBeagleboneEnhanced  HardwareType = 0x46
	HardwareArmbian                     HardwareType = 0x60
	HardwareMacos                       HardwareType = 0x70
	HardwareUnknownFalcon               HardwareType = 0x80
	HardwareF16v2B                      HardwareType = 0x81
	HardwareF4v2_64                     HardwareType = 0x82
	HardwareF16v2Red                    HardwareType = 0x83
	HardwareF4v2Red                     HardwareType = 0x84
	HardwareF16v3                       HardwareType = 0x85
	HardwareF4v3                        HardwareType = 0x86
	HardwareF48                         HardwareType = 0x87
	HardwareF16v4                       HardwareType = 0x88
	HardwareF48v4                       HardwareType = 0x89
	HardwareF16v5                       HardwareType = 0x8A
	HardwareF32v5                       HardwareType = 0x8B
	HardwareF48v5                       HardwareType = 0x8C
	HardwareGeniusPixel16                HardwareType = 0xA0
	HardwareGeniusPixel8                 HardwareType = 0xA1
	HardwareGeniusLongRange               HardwareType = 0xA2
	HardwareOther                       HardwareType = 0xC0
	HardwareXschedule                   HardwareType = 0xC1
	HardwareEspixelstickEsp8266         HardwareType = 0xC2
	HardwareEspixelstickEsp32           HardwareType = 0xC3
	HardwareWled                        HardwareType = 0xFB
	HardwareDiyledexpress               HardwareType = 0xFC
	HardwareHinkspix                    HardwareType = 0xFD
	HardwareAlphapix                    HardwareType = 0xFE
	HardwareSandevices                  HardwareType = 0xFF
)

var hardwareNames = map[HardwareType]string{
	HardwareFpp:                        "FPP",
	HardwarePiA:                        "Pi A",
	HardwarePiB:                        "Pi B",
	HardwarePiAPlus:                    "Pi A+",
	HardwarePiBPlus:                    "Pi B+",
	HardwarePi2b:                       "Pi 2B",
	HardwarePi2bNew:                    "Pi 2B (new)",
	HardwarePi3b:                       "Pi 3B",
	HardwarePi3bPlus:                   "Pi 3B+",
	HardwarePiZero:                     "Pi Zero",
	HardwarePiZerow:                    "Pi Zero W",
	HardwarePi3aPlus:                   "Pi 3A+",
	HardwarePi4:                        "Pi 4",
	HardwareBeagleboneBlackRevB:        "BeagleBone Black rev B",
	HardwareBeagleboneBlackRevC:        "BeagleBone Black rev C",
	HardwareBeagleboneBlackWireless:    "BeagleBone Black Wireless",
	HardwareBeagleboneGreen:            "BeagleBone Green",
	HardwareBeagleboneGreenWireless:    "BeagleBone Green Wireless",
	HardwarePocketbeagle:               "PocketBeagle",
	HardwareSancloudBeagleboneEnhanced: "SanCloud BeagleBone Enhanced",
	HardwareArmbian:                    "Armbian",
	HardwareMacos:                      "macOS",
	HardwareUnknownFalcon:              "Falcon (unidentified)",
	HardwareF16v2B:                     "Falcon F16v2B",
	HardwareF4v2_64:                    "Falcon F4v2-64",
	HardwareF16v2Red:                   "Falcon F16v2 Red",
	HardwareF4v2Red:                    "Falcon F4v2 Red",
	HardwareF16v3:                      "Falcon F16v3",
	HardwareF4v3:                       "Falcon F4v3",
	HardwareF48:                        "Falcon F48",
	HardwareF16v4:                      "Falcon F16v4",
	HardwareF48v4:                      "Falcon F48v4",
	HardwareF16v5:                      "Falcon F16v5",
	HardwareF32v5:                      "Falcon F32v5",
	HardwareF48v5:                      "Falcon F48v5",
	HardwareGeniusPixel16:              "Genius Pixel 16",
	HardwareGeniusPixel8:               "Genius Pixel 8",
	HardwareGeniusLongRange:            "Genius Long Range",
	HardwareOther:                      "Other",
	HardwareXschedule:                  "xSchedule",
	HardwareEspixelstickEsp8266:        "ESPixelStick ESP8266",
	HardwareEspixelstickEsp32:          "ESPixelStick ESP32",
	HardwareWled:                       "WLED",
	HardwareDiyledexpress:              "DIYLEDExpress",
	HardwareHinkspix:                   "HinkSPix",
	HardwareAlphapix:                   "AlphaPix",
	HardwareSandevices:                 "SanDevices",
}

func (h HardwareType) String() string {
	if h == HardwareUnknown {
		return "unknown"
	}
	if name, ok := hardwareNames[h]; ok {
		return name
	}
	return "unknown"
}

func hardwareFromByte(b byte) HardwareType {
	h := HardwareType(b)
	if h == HardwareUnknown {
		return HardwareUnknown
	}
	if _, ok := hardwareNames[h]; !ok {
		return HardwareUnknown
	}
	return h
}

// Ping is the decoded body of a PacketPing envelope.
type Ping struct {
	DataLen       uint16
	PingVersion   uint8
	SubType       PingSubType
	HardwareType  HardwareType
	MajorVersion  uint16
	MinorVersion  uint16
	OperatingMode OperatingMode
	IPAddress     net.IP
	Hostname      string
	Version       string
	Hardware      string
	Channels      string
}

// Packet is a decoded envelope: magic, packet type, and (for Ping) body.
type Packet struct {
	PacketType PacketType
	Ping       *Ping
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func putCString(dst []byte, s string) {
	n := copy(dst, s)
	if n < len(dst) {
		dst[n] = 0
	}
}

// Decode parses a PDDF envelope. Packet types other than Ping decode with a
// nil Ping body; callers that only care about discovery should check
// PacketType == PacketPing before dereferencing Ping.
func Decode(data []byte) (*Packet, error) {
	r := bytes.NewReader(data)

	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("discovery: read magic: %w", err)
	}
	if magic != Magic {
		return nil, ErrBadMagic
	}

	var pt uint8
	if err := binary.Read(r, binary.BigEndian, &pt); err != nil {
		return nil, fmt.Errorf("discovery: read packet type: %w", err)
	}

	pkt := &Packet{PacketType: PacketType(pt)}
	if pkt.PacketType != PacketPing {
		return pkt, nil
	}

	ping, err := decodePing(r)
	if err != nil {
		return nil, err
	}
	pkt.Ping = ping
	return pkt, nil
}

func decodePing(r io.Reader) (*Ping, error) {
	var p Ping

	if err := binary.Read(r, binary.LittleEndian, &p.DataLen); err != nil {
		return nil, fmt.Errorf("discovery: read data_len: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &p.PingVersion); err != nil {
		return nil, fmt.Errorf("discovery: read ping_version: %w", err)
	}
	var subType, hwType uint8
	if err := binary.Read(r, binary.BigEndian, &subType); err != nil {
		return nil, fmt.Errorf("discovery: read sub_type: %w", err)
	}
	p.SubType = PingSubType(subType)
	if err := binary.Read(r, binary.BigEndian, &hwType); err != nil {
		return nil, fmt.Errorf("discovery: read hardware_type: %w", err)
	}
	p.HardwareType = hardwareFromByte(hwType)

	if err := binary.Read(r, binary.BigEndian, &p.MajorVersion); err != nil {
		return nil, fmt.Errorf("discovery: read major_version: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &p.MinorVersion); err != nil {
		return nil, fmt.Errorf("discovery: read minor_version: %w", err)
	}

	var mode uint8
	if err := binary.Read(r, binary.BigEndian, &mode); err != nil {
		return nil, fmt.Errorf("discovery: read operating_mode: %w", err)
	}
	p.OperatingMode = OperatingMode(mode)

	var ip uint32
	if err := binary.Read(r, binary.BigEndian, &ip); err != nil {
		return nil, fmt.Errorf("discovery: read ip_address: %w", err)
	}
	p.IPAddress = net.IPv4(byte(ip>>24), byte(ip>>16), byte(ip>>8), byte(ip))

	hostname := make([]byte, 65)
	if _, err := io.ReadFull(r, hostname); err != nil {
		return nil, fmt.Errorf("discovery: read hostname: %w", err)
	}
	p.Hostname = cstring(hostname)

	version := make([]byte, 41)
	if _, err := io.ReadFull(r, version); err != nil {
		return nil, fmt.Errorf("discovery: read version: %w", err)
	}
	p.Version = cstring(version)

	if p.PingVersion >= 2 {
		hardware := make([]byte, 41)
		if _, err := io.ReadFull(r, hardware); err != nil {
			return nil, fmt.Errorf("discovery: read hardware: %w", err)
		}
		p.Hardware = cstring(hardware)
	}

	switch p.PingVersion {
	case 2:
		channels := make([]byte, 41)
		if _, err := io.ReadFull(r, channels); err != nil {
			return nil, fmt.Errorf("discovery: read channels: %w", err)
		}
		p.Channels = cstring(channels)
	case 3:
		channels := make([]byte, 121)
		if _, err := io.ReadFull(r, channels); err != nil {
			return nil, fmt.Errorf("discovery: read channels: %w", err)
		}
		p.Channels = cstring(channels)
	}

	return &p, nil
}

// Encode serializes a Ping as a full PacketPing envelope (magic + packet
// type byte + body), honoring PingVersion-gated trailing fields.
func (p *Ping) Encode() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, Magic)
	binary.Write(&buf, binary.BigEndian, uint8(PacketPing))

	binary.Write(&buf, binary.LittleEndian, p.DataLen)
	binary.Write(&buf, binary.BigEndian, p.PingVersion)
	binary.Write(&buf, binary.BigEndian, uint8(p.SubType))
	binary.Write(&buf, binary.BigEndian, uint8(p.HardwareType))
	binary.Write(&buf, binary.BigEndian, p.MajorVersion)
	binary.Write(&buf, binary.BigEndian, p.MinorVersion)
	binary.Write(&buf, binary.BigEndian, uint8(p.OperatingMode))

	ip4 := p.IPAddress.To4()
	var ip uint32
	if ip4 != nil {
		ip = binary.BigEndian.Uint32(ip4)
	}
	binary.Write(&buf, binary.BigEndian, ip)

	hostname := make([]byte, 65)
	putCString(hostname, p.Hostname)
	buf.Write(hostname)

	version := make([]byte, 41)
	putCString(version, p.Version)
	buf.Write(version)

	if p.PingVersion >= 2 {
		hardware := make([]byte, 41)
		putCString(hardware, p.Hardware)
		buf.Write(hardware)
	}

	switch p.PingVersion {
	case 2:
		channels := make([]byte, 41)
		putCString(channels, p.Channels)
		buf.Write(channels)
	case 3:
		channels := make([]byte, 121)
		putCString(channels, p.Channels)
		buf.Write(channels)
	}

	return buf.Bytes()
}
