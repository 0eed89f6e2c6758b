package replay_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quote-replay-go/capture"
	"quote-replay-go/emit"
	"quote-replay-go/metrics"
	"quote-replay-go/quote"
	"quote-replay-go/reorder"
	"quote-replay-go/replay"
)

var captureTime = time.Date(2011, 2, 16, 7, 0, 0, 0, time.UTC)

type fakeSource struct {
	frames []capture.Frame
	err    error // returned after the frames; io.EOF when nil
	i      int
}

func (s *fakeSource) Next() (capture.Frame, error) {
	if s.i >= len(s.frames) {
		if s.err != nil {
			return capture.Frame{}, s.err
		}
		return capture.Frame{}, io.EOF
	}
	f := s.frames[s.i]
	s.i++
	return f, nil
}

// quoteFrame builds a full Ethernet/IPv4/UDP frame around a B6034 payload
// with the given issue code and HHMMSShh accept-time field.
func quoteFrame(t *testing.T, ts time.Time, issue, acceptField string) capture.Frame {
	t.Helper()
	require.Len(t, issue, 12)
	require.Len(t, acceptField, 8)

	payload := bytes.Repeat([]byte{'0'}, 215)
	copy(payload[0:], "B6034")
	copy(payload[5:], issue)
	copy(payload[206:], acceptField)
	payload[214] = 0xFF

	eth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip4 := layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IP{10, 0, 0, 1},
		DstIP:    net.IP{10, 0, 0, 2},
	}
	udp := layers.UDP{SrcPort: 9000, DstPort: 15515}
	require.NoError(t, udp.SetNetworkLayerForChecksum(&ip4))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, &eth, &ip4, &udp, gopacket.Payload(payload)))
	return capture.Frame{Timestamp: ts, Data: buf.Bytes()}
}

func runToBuffer(t *testing.T, strategy reorder.Strategy, src capture.Source, m *metrics.Metrics) string {
	t.Helper()
	window, err := reorder.New(strategy, reorder.DefaultMaxDelay, 0)
	require.NoError(t, err)
	var buf bytes.Buffer
	r := replay.Runner{
		Source:  src,
		Decoder: quote.NewDecoder(),
		Window:  window,
		Emitter: emit.NewEmitter(&buf),
		Metrics: m,
	}
	require.NoError(t, r.Run())
	return buf.String()
}

func issueOrder(output string) []string {
	var issues []string
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line == "" {
			continue
		}
		// packet date, packet time, accept date, accept time, issue code.
		fields := strings.Fields(line)
		issues = append(issues, fields[4])
	}
	return issues
}

func TestRunnerOrdersByAcceptTime(t *testing.T) {
	src := &fakeSource{frames: []capture.Frame{
		quoteFrame(t, captureTime, "ISSUEB000000", "09300000"),
		quoteFrame(t, captureTime.Add(time.Millisecond), "ISSUEA000000", "09295000"),
		quoteFrame(t, captureTime.Add(2*time.Millisecond), "ISSUEC000000", "09310000"),
	}}
	out := runToBuffer(t, reorder.StrategySorted, src, nil)
	assert.Equal(t, []string{"ISSUEA000000", "ISSUEB000000", "ISSUEC000000"}, issueOrder(out))
}

func TestRunnerStrategiesProduceSameOutput(t *testing.T) {
	var frames []capture.Frame
	for i := 0; i < 40; i++ {
		accept := fmt.Sprintf("09%02d%02d%02d", 30+(i*3)%20, (i*7)%60, i%100)
		frames = append(frames,
			quoteFrame(t, captureTime.Add(time.Duration(i)*time.Millisecond), fmt.Sprintf("ISSUE%07d", i), accept))
	}

	outSorted := runToBuffer(t, reorder.StrategySorted, &fakeSource{frames: frames}, nil)
	outHeap := runToBuffer(t, reorder.StrategyHeap, &fakeSource{frames: frames}, nil)

	require.Equal(t, outSorted, outHeap)
	assert.Len(t, issueOrder(outSorted), len(frames))
}

func TestRunnerDropsMalformedAndForeignFrames(t *testing.T) {
	bad := quoteFrame(t, captureTime, "ISSUEX000000", "09300000")
	// Corrupt the last payload byte of the price region: offset within the
	// frame is 42 (headers) + payload offset.
	bad.Data[42+30] = 'X'

	foreign := quoteFrame(t, captureTime, "ISSUEY000000", "09300000")
	copy(foreign.Data[42:], "Z9999")

	good := quoteFrame(t, captureTime, "ISSUEG000000", "09300000")

	m := metrics.New(prometheus.NewRegistry())
	out := runToBuffer(t, reorder.StrategySorted, &fakeSource{frames: []capture.Frame{bad, foreign, good}}, m)

	assert.Equal(t, []string{"ISSUEG000000"}, issueOrder(out))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.FramesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeErrors.WithLabelValues("parse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuotesDecoded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuotesEmitted))
}

func TestRunnerReadFailureDrains(t *testing.T) {
	src := &fakeSource{
		frames: []capture.Frame{quoteFrame(t, captureTime, "ISSUEA000000", "09300000")},
		err:    errors.New("truncated capture"),
	}
	out := runToBuffer(t, reorder.StrategySorted, src, nil)
	assert.Equal(t, []string{"ISSUEA000000"}, issueOrder(out))
}

func TestRunnerFlagsClockAnomaly(t *testing.T) {
	// Accept time 23:00 KST is 14:00 UTC, well after the 07:00 UTC capture.
	src := &fakeSource{frames: []capture.Frame{
		quoteFrame(t, captureTime, "ISSUEA000000", "23000000"),
	}}
	m := metrics.New(prometheus.NewRegistry())
	out := runToBuffer(t, reorder.StrategySorted, src, m)

	// Flagged, not dropped.
	assert.Equal(t, []string{"ISSUEA000000"}, issueOrder(out))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClockAnomalies))
}

func TestRunnerNotInitialized(t *testing.T) {
	r := replay.Runner{}
	require.Error(t, r.Run())
}
