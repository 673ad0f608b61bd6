package log

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

var (
	sampleInt      = 3
	sampleBytes    = []byte("123")
	sampleList     = []int64{10, 0, -10}
	sampleDuration = time.Second
	sampleTime     = time.Unix(12345678, 0)

	errSample = errors.New("some error")
)

func doLogs() {
	Infof("wrapped %d proofs for e3 %x", sampleInt, sampleBytes)
	Debugw("resolving layout", "family", "dkg/pk", "width", 1)
	Errorf("cannot store wrapper output: %v", errSample)
	Warnw("various types",
		"list", sampleList,
		"duration", sampleDuration,
		"time", sampleTime,
	)
	Error(errSample)
}

func TestCheckInvalidChars(t *testing.T) {
	t.Cleanup(func() { panicOnInvalidChars = false })

	v := []byte{'h', 'e', 'l', 'l', 'o', 0xff, 'w', 'o', 'r', 'l', 'd'}
	panicOnInvalidChars = false
	Init("debug", "stderr", nil)
	Debugf("%s", v)
	// should not panic since env var is false. if it panics, test will fail

	// now enable panic and try again: should recover() and never reach t.Errorf()
	panicOnInvalidChars = true
	Init("debug", "stderr", nil)
	defer func() { recover() }()
	Debugf("%s", v)
	t.Errorf("Debugf(%s) should have panicked because of invalid char", v)
}

func TestErrorOutput(t *testing.T) {
	c := qt.New(t)
	t.Cleanup(func() { Init(LogLevelError, "stderr", nil) })

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	logTestWriter = out
	Init(LogLevelInfo, logTestWriterName, errOut)
	c.Assert(Level(), qt.Equals, LogLevelInfo)

	Infow("only in main output", "key", "value")
	Warnw("in both outputs", "key", "value")
	Debugw("filtered out")

	c.Assert(strings.Count(out.String(), "\n"), qt.Equals, 2)
	c.Assert(strings.Contains(errOut.String(), "in both outputs"), qt.IsTrue)
	c.Assert(strings.Contains(errOut.String(), "only in main output"), qt.IsFalse)
	c.Assert(strings.Contains(out.String(), "filtered out"), qt.IsFalse)
}

func BenchmarkLogger(b *testing.B) {
	logTestWriter = io.Discard // to not grow a buffer
	Init("debug", logTestWriterName, nil)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		doLogs()
	}
}
