// Package fseq parses and random-access-reads FSEQ lighting sequence files:
// a magic-prefixed binary header, a block index describing zstd-compressed
// runs of frames, an optional sparse-channel-range table, and a small
// variable block of metadata key/value pairs.
package fseq

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Magic is the big-endian "PSEQ" file signature.
const Magic uint32 = 0x50534551

var (
	ErrBadMagic           = errors.New("fseq: bad magic")
	ErrBadVariableBlock   = errors.New("fseq: variable block did not end at channel data offset")
	ErrFrameNotFound      = errors.New("fseq: frame not found")
	ErrUnhandledCompression = errors.New("fseq: unhandled compression type")
)

// ErrUnknownCompression is returned for a compression type byte the format
// does not define (anything above CompressionZlib).
type ErrUnknownCompression struct {
	Type uint8
}

func (e *ErrUnknownCompression) Error() string {
	return fmt.Sprintf("fseq: unknown compression type %d", e.Type)
}

// CompressionType identifies how channel-data blocks are packed.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0
	CompressionZstd CompressionType = 1
	CompressionZlib CompressionType = 2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionZlib:
		return "zlib"
	default:
		return "unknown"
	}
}

// CompressedBlock is one entry of the block index: the inclusive frame range
// it covers and its byte size in the channel-data stream. LastFrame is
// derived at parse time, not read from the file.
type CompressedBlock struct {
	FirstFrame uint32
	LastFrame  uint32
	ByteSize   uint32
}

// SparseRange is parsed and stored but not consulted by decoding (see
// DESIGN.md — no code path in this package or its callers uses it; the
// format's intent for these fields is undocumented upstream).
type SparseRange struct {
	StartChannel      uint32
	EndChannelOffset  uint32
}

// Variable is a 2-byte-coded metadata entry from the variable block
// (e.g. "mf" = media filename, "sp" = sequence producer).
type Variable struct {
	Code string
	Data string
}

// Sequence is an open FSEQ file: parsed header plus a one-block decompressed
// cache for random-access frame reads.
type Sequence struct {
	f        *os.File
	filename string

	channelDataOffset  uint16
	MajorVersion       uint8
	MinorVersion       uint8
	variableDataOffset uint16
	ChannelCount       uint32
	FrameCount         uint32
	StepTimeMS         uint8
	flags              uint8
	Compression        CompressionType
	compressionBlockCount uint16
	sparseRangeCount   uint8
	reserved           uint8
	UUID               uint64

	Blocks       []CompressedBlock
	SparseRanges []SparseRange
	Variables    []Variable

	cachedFirstFrame uint32
	cachedLastFrame  uint32
	cached           []byte
	haveCache        bool

	decoder *zstd.Decoder
}

// Open parses fname's header and block index and returns a Sequence ready
// for random-access Frame reads. The underlying file stays open until Close.
func Open(fname string) (*Sequence, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("fseq: open %s: %w", fname, err)
	}
	s, err := parse(f, fname)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func parse(f *os.File, fname string) (*Sequence, error) {
	r := &countingReader{r: f}

	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("fseq: read magic: %w", err)
	}
	if magic != Magic {
		return nil, ErrBadMagic
	}

	hdr := struct {
		ChannelDataOffset  uint16
		MinorVersion       uint8
		MajorVersion       uint8
		VariableDataOffset uint16
		ChannelCount       uint32
		FrameCount         uint32
		StepTimeMS         uint8
		Flags              uint8
	}{}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("fseq: read header: %w", err)
	}

	// Packed byte: high nibble contributes bits 8..11 of the block count,
	// low nibble is the compression type.
	packed, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("fseq: read compression byte: %w", err)
	}
	blockCountHi := uint16(packed&0xf0) << 4
	ct := CompressionType(packed & 0x0f)

	blockCountLo, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("fseq: read block count: %w", err)
	}
	blockCount := blockCountHi + uint16(blockCountLo)

	sparseCount, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("fseq: read sparse range count: %w", err)
	}
	reserved, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("fseq: read reserved byte: %w", err)
	}

	var uuid uint64
	if err := binary.Read(r, binary.LittleEndian, &uuid); err != nil {
		return nil, fmt.Errorf("fseq: read uuid: %w", err)
	}

	var blocks []CompressedBlock
	for i := uint16(0); i < blockCount; i++ {
		var first, size uint32
		if err := binary.Read(r, binary.LittleEndian, &first); err != nil {
			return nil, fmt.Errorf("fseq: read block %d first frame: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("fseq: read block %d size: %w", i, err)
		}
		if size == 0 {
			continue
		}
		if n := len(blocks); n > 0 {
			blocks[n-1].LastFrame = first - 1
		}
		blocks = append(blocks, CompressedBlock{FirstFrame: first, ByteSize: size})
	}
	if n := len(blocks); n > 0 {
		blocks[n-1].LastFrame = hdr.FrameCount
	}

	var sparseRanges []SparseRange
	for i := uint8(0); i < sparseCount; i++ {
		start, err := read24(r)
		if err != nil {
			return nil, fmt.Errorf("fseq: read sparse range %d start: %w", i, err)
		}
		end, err := read24(r)
		if err != nil {
			return nil, fmt.Errorf("fseq: read sparse range %d end: %w", i, err)
		}
		sparseRanges = append(sparseRanges, SparseRange{StartChannel: start, EndChannelOffset: end})
	}

	var variables []Variable
	remaining := int(hdr.ChannelDataOffset) - int(hdr.VariableDataOffset)
	for remaining >= 4 {
		var size uint16
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("fseq: read variable size: %w", err)
		}
		code := make([]byte, 2)
		if _, err := io.ReadFull(r, code); err != nil {
			return nil, fmt.Errorf("fseq: read variable code: %w", err)
		}
		dataLen := int(size) - 4
		if dataLen < 0 {
			return nil, ErrBadVariableBlock
		}
		data := make([]byte, dataLen)
		if dataLen > 0 {
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("fseq: read variable data: %w", err)
			}
		}
		if len(data) > 0 && data[len(data)-1] == 0 {
			data = data[:len(data)-1]
		}
		variables = append(variables, Variable{Code: string(code), Data: string(data)})
		remaining -= int(size)
	}
	for remaining > 0 {
		if _, err := r.ReadByte(); err != nil {
			return nil, fmt.Errorf("fseq: read variable padding: %w", err)
		}
		remaining--
	}

	if r.pos != int64(hdr.ChannelDataOffset) {
		return nil, ErrBadVariableBlock
	}

	return &Sequence{
		f:                     f,
		filename:              fname,
		channelDataOffset:     hdr.ChannelDataOffset,
		MajorVersion:          hdr.MajorVersion,
		MinorVersion:          hdr.MinorVersion,
		variableDataOffset:    hdr.VariableDataOffset,
		ChannelCount:          hdr.ChannelCount,
		FrameCount:            hdr.FrameCount,
		StepTimeMS:            hdr.StepTimeMS,
		flags:                 hdr.Flags,
		Compression:           ct,
		compressionBlockCount: blockCount,
		sparseRangeCount:      sparseCount,
		reserved:              reserved,
		UUID:                  uuid,
		Blocks:                blocks,
		SparseRanges:          sparseRanges,
		Variables:             variables,
	}, nil
}

// countingReader wraps the unbuffered file so parse can validate that the
// variable block ends exactly at channelDataOffset without guessing at
// buffering behavior.
type countingReader struct {
	r   io.Reader
	pos int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.pos += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(c.r, b[:]); err != nil {
		return 0, err
	}
	c.pos++
	return b[0], nil
}

func read24(r io.Reader) (uint32, error) {
	var b [3]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	// Packed little-endian into bits 8..31 of a u32: byte 0 -> bits 8-15, etc.
	return uint32(b[0])<<8 | uint32(b[1])<<16 | uint32(b[2])<<24, nil
}

// formatUUID renders the 8-byte FSEQ UUID field as a standard UUID string
// for the dump output, padding it into the low 8 bytes of a 16-byte value.
func formatUUID(raw uint64) string {
	var b [16]byte
	binary.BigEndian.PutUint64(b[8:], raw)
	id, err := uuid.FromBytes(b[:])
	if err != nil {
		return fmt.Sprintf("%d", raw)
	}
	return id.String()
}

// Dump writes a human-readable header summary to w: version, offsets,
// frame/channel counts, compression type, the block table, sparse ranges,
// and variables. The text is for human reading, not machine parsing; no
// command in this repository calls Dump.
func (s *Sequence) Dump(w io.Writer) error {
	lines := []string{
		"FSeq",
		fmt.Sprintf("ChannelDataOffset: %d", s.channelDataOffset),
		fmt.Sprintf("Version: %d.%d", s.MajorVersion, s.MinorVersion),
		fmt.Sprintf("VariableDataOffset: %d", s.variableDataOffset),
		fmt.Sprintf("ChannelCount: %d", s.ChannelCount),
		fmt.Sprintf("FrameCount: %d", s.FrameCount),
		fmt.Sprintf("StepTimeMS: %d", s.StepTimeMS),
		fmt.Sprintf("Flags: %d", s.flags),
		fmt.Sprintf("CompressionType: %s", s.Compression),
		fmt.Sprintf("CompressionBlockCount: %d", s.compressionBlockCount),
		fmt.Sprintf("SparseRangeCount: %d", s.sparseRangeCount),
		fmt.Sprintf("Reserved: %d", s.reserved),
		fmt.Sprintf("UUID: %s", formatUUID(s.UUID)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	for _, b := range s.Blocks {
		fmt.Fprintln(w, "CompressedBlock")
		fmt.Fprintf(w, "  FirstFrameNumber: %d\n", b.FirstFrame)
		fmt.Fprintf(w, "  LastFrameNumber: %d\n", b.LastFrame)
		fmt.Fprintf(w, "  Size: %d\n", b.ByteSize)
	}
	for _, r := range s.SparseRanges {
		fmt.Fprintln(w, "SparseRange")
		fmt.Fprintf(w, "  StartChannel: %d\n", r.StartChannel)
		fmt.Fprintf(w, "  EndChannelOffset: %d\n", r.EndChannelOffset)
	}
	for _, v := range s.Variables {
		fmt.Fprintln(w, "Variable")
		fmt.Fprintf(w, "  Code: %s\n", v.Code)
		fmt.Fprintf(w, "  Data: %s\n", v.Data)
	}
	return nil
}

// Close releases the underlying file handle.
func (s *Sequence) Close() error {
	if s.decoder != nil {
		s.decoder.Close()
	}
	return s.f.Close()
}

// Frame returns the decoded bytes for frame n (length ChannelCount). It
// returns ErrFrameNotFound when n >= FrameCount, and ErrUnknownCompression /
// ErrUnhandledCompression when the file's compression type cannot be decoded.
func (s *Sequence) Frame(n uint32) ([]byte, error) {
	switch s.Compression {
	case CompressionZstd:
		return s.frameZstd(n)
	case CompressionNone, CompressionZlib:
		return nil, ErrUnhandledCompression
	default:
		return nil, &ErrUnknownCompression{Type: uint8(s.Compression)}
	}
}

func (s *Sequence) frameZstd(n uint32) ([]byte, error) {
	if n >= s.FrameCount {
		return nil, ErrFrameNotFound
	}

	if !s.haveCache || n < s.cachedFirstFrame || n > s.cachedLastFrame {
		if err := s.fillCache(n); err != nil {
			return nil, err
		}
	}

	offset := n - s.cachedFirstFrame
	start := int(offset) * int(s.ChannelCount)
	end := start + int(s.ChannelCount)
	if end > len(s.cached) {
		return nil, ErrFrameNotFound
	}
	out := make([]byte, s.ChannelCount)
	copy(out, s.cached[start:end])
	return out, nil
}

func (s *Sequence) fillCache(n uint32) error {
	seek := uint32(s.channelDataOffset)
	var toRead uint32
	var first, last uint32
	found := false
	for _, b := range s.Blocks {
		if b.FirstFrame <= n && n <= b.LastFrame {
			first, last, toRead = b.FirstFrame, b.LastFrame, b.ByteSize
			found = true
			break
		}
		seek += b.ByteSize
	}
	if !found {
		return ErrFrameNotFound
	}

	if _, err := s.f.Seek(int64(seek), io.SeekStart); err != nil {
		return fmt.Errorf("fseq: seek block: %w", err)
	}
	buf := make([]byte, toRead)
	if _, err := io.ReadFull(s.f, buf); err != nil {
		return fmt.Errorf("fseq: read block: %w", err)
	}

	if s.decoder == nil {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return fmt.Errorf("fseq: create zstd decoder: %w", err)
		}
		s.decoder = dec
	}
	decoded, err := s.decoder.DecodeAll(buf, nil)
	if err != nil {
		return fmt.Errorf("fseq: decompress block: %w", err)
	}

	s.cached = decoded
	s.cachedFirstFrame = first
	s.cachedLastFrame = last
	s.haveCache = true
	return nil
}
