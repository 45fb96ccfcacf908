package hidio_test

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Alia5/dsbridge/device/dualsense"
	"github.com/Alia5/dsbridge/device/dualshock4"
	"github.com/Alia5/dsbridge/device/gamepad"
	"github.com/Alia5/dsbridge/internal/hidio"
	"github.com/stretchr/testify/assert"
)

type fakeFeatureDevice struct {
	calls   int
	lastID  byte
	err     error
	withCRC bool
}

func (f *fakeFeatureDevice) GetFeature(buf []byte) (int, error) {
	f.calls++
	if len(buf) > 0 {
		f.lastID = buf[0]
	}
	if f.err != nil {
		return 0, f.err
	}
	n := 41
	if f.withCRC {
		crc := dualsense.CRC(dualsense.CRCSeedFeature, buf[:n-4])
		binary.LittleEndian.PutUint32(buf[n-4:n], crc)
	}
	return n, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandshakePromotes(t *testing.T) {
	dev := &fakeFeatureDevice{withCRC: true}
	l := hidio.NewLink(dev, hidio.ModelDualSense, gamepad.TransportBluetoothSimple, testLogger())

	now := time.Now()
	l.StartHandshake(now)
	assert.Equal(t, hidio.LinkHandshaking, l.State())
	assert.Equal(t, 1, dev.calls)
	assert.Equal(t, byte(dualsense.ReportIDFeatureCali), dev.lastID)

	// Firmware answers with the enhanced report id.
	changed := l.ObserveReportID(dualsense.ReportIDInputBT, now.Add(10*time.Millisecond))
	assert.True(t, changed)
	assert.Equal(t, gamepad.TransportBluetoothEnhanced, l.Transport())
	assert.False(t, l.SimpleModeWarning())

	l.Activate()
	assert.Equal(t, hidio.LinkActive, l.State())
}

func TestHandshakeRetriesThenSettles(t *testing.T) {
	dev := &fakeFeatureDevice{err: errors.New("device busy")}
	l := hidio.NewLink(dev, hidio.ModelDualSense, gamepad.TransportBluetoothSimple, testLogger())

	now := time.Now()
	l.StartHandshake(now)
	assert.Equal(t, 1, dev.calls)

	// Still simple-mode ids past the deadline: one retry fires.
	changed := l.ObserveReportID(dualsense.ReportIDInputUSB, now.Add(time.Second))
	assert.False(t, changed)
	assert.Equal(t, 2, dev.calls)

	// Past the second deadline the link settles in simple mode.
	changed = l.ObserveReportID(dualsense.ReportIDInputUSB, now.Add(3*time.Second))
	assert.False(t, changed)
	assert.Equal(t, 2, dev.calls)
	assert.Equal(t, gamepad.TransportBluetoothSimple, l.Transport())
	assert.True(t, l.SimpleModeWarning())
}

func TestHandshakeIgnoredOnUSB(t *testing.T) {
	dev := &fakeFeatureDevice{}
	l := hidio.NewLink(dev, hidio.ModelDualSense, gamepad.TransportUSB, testLogger())

	l.StartHandshake(time.Now())
	assert.Equal(t, 0, dev.calls)
	assert.Equal(t, hidio.LinkOpened, l.State())
	assert.Equal(t, gamepad.TransportUSB, l.Transport())
}

func TestSpontaneousPromotion(t *testing.T) {
	dev := &fakeFeatureDevice{}
	l := hidio.NewLink(dev, hidio.ModelDualSense, gamepad.TransportBluetoothSimple, testLogger())

	changed := l.ObserveReportID(dualsense.ReportIDInputBT, time.Now())
	assert.True(t, changed)
	assert.Equal(t, gamepad.TransportBluetoothEnhanced, l.Transport())
}

func TestDualShock4EnhancedID(t *testing.T) {
	dev := &fakeFeatureDevice{}
	l := hidio.NewLink(dev, hidio.ModelDualShock4, gamepad.TransportBluetoothSimple, testLogger())

	now := time.Now()
	l.StartHandshake(now)
	assert.Equal(t, byte(dualshock4.ReportIDFeatureCali), dev.lastID)

	changed := l.ObserveReportID(dualshock4.ReportIDInputBT, now)
	assert.True(t, changed)
	assert.Equal(t, gamepad.TransportBluetoothEnhanced, l.Transport())
}

func TestDisconnect(t *testing.T) {
	dev := &fakeFeatureDevice{}
	l := hidio.NewLink(dev, hidio.ModelDualSense, gamepad.TransportUSB, testLogger())

	l.Activate()
	l.Disconnect()
	assert.Equal(t, hidio.LinkDisconnected, l.State())
	assert.Equal(t, gamepad.TransportDisconnected, l.Transport())
}

func TestNoteSimpleFrame(t *testing.T) {
	dev := &fakeFeatureDevice{}
	l := hidio.NewLink(dev, hidio.ModelDualSense, gamepad.TransportBluetoothSimple, testLogger())

	fired := 0
	for i := 0; i < 500; i++ {
		if l.NoteSimpleFrame() {
			fired++
		}
	}
	assert.Equal(t, 1, fired)

	// Enhanced links never count.
	l2 := hidio.NewLink(dev, hidio.ModelDualSense, gamepad.TransportBluetoothEnhanced, testLogger())
	assert.False(t, l2.NoteSimpleFrame())
}
