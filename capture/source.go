// Package capture yields raw frames from an offline packet capture.
package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/pcapgo"
)

// Frame is one captured frame: the raw bytes plus the capture timestamp.
type Frame struct {
	Timestamp time.Time // UTC, microsecond precision in classic pcap files
	Data      []byte
}

// Source is a finite, ordered, single-pass sequence of frames. Next returns
// io.EOF on exhaustion.
type Source interface {
	Next() (Frame, error)
}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
}

// FileSource reads frames from a pcap or pcapng capture file, detected by
// the file magic.
type FileSource struct {
	f *os.File
	r packetReader
}

// ngMagic is the pcapng section header block type; classic pcap files start
// with one of the tcpdump magic numbers instead.
const ngMagic = 0x0A0D0D0A

// OpenFile opens a capture file for reading.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("read capture magic: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("rewind capture: %w", err)
	}

	var r packetReader
	if binary.BigEndian.Uint32(magic[:]) == ngMagic {
		r, err = pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	} else {
		r, err = pcapgo.NewReader(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parse capture header: %w", err)
	}
	return &FileSource{f: f, r: r}, nil
}

// Next returns the next frame, or io.EOF once the file is exhausted.
func (s *FileSource) Next() (Frame, error) {
	data, ci, err := s.r.ReadPacketData()
	if err != nil {
		return Frame{}, err
	}
	return Frame{Timestamp: ci.Timestamp.UTC(), Data: data}, nil
}

// Close releases the underlying file.
func (s *FileSource) Close() error { return s.f.Close() }
