package control

import (
	"errors"
	"sync"

	"gitlab.com/gomidi/midi"
)

var errFakeWrite = errors.New("fake: write failed")

// fakeIn is an in-memory midi.In. emit delivers through the installed
// listener even after StopListening, like a driver callback racing Close.
type fakeIn struct {
	mu       sync.Mutex
	name     string
	open     bool
	stopped  bool
	listener func([]byte, int64)
}

func (f *fakeIn) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	return nil
}

func (f *fakeIn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	return nil
}

func (f *fakeIn) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeIn) Number() int             { return 0 }
func (f *fakeIn) String() string          { return f.name }
func (f *fakeIn) Underlying() interface{} { return nil }

func (f *fakeIn) SetListener(fn func([]byte, int64)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = fn
	f.stopped = false
	return nil
}

func (f *fakeIn) StopListening() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeIn) emit(b []byte) {
	f.mu.Lock()
	fn := f.listener
	f.mu.Unlock()
	if fn != nil {
		fn(b, 0)
	}
}

// fakeOut is an in-memory midi.Out that records writes.
type fakeOut struct {
	mu        sync.Mutex
	name      string
	open      bool
	fail      bool
	failAfter int // fail writes once this many succeeded; 0 means never
	writes    [][]byte
}

func (f *fakeOut) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	return nil
}

func (f *fakeOut) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	return nil
}

func (f *fakeOut) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeOut) Number() int             { return 0 }
func (f *fakeOut) String() string          { return f.name }
func (f *fakeOut) Underlying() interface{} { return nil }

func (f *fakeOut) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail || (f.failAfter > 0 && len(f.writes) >= f.failAfter) {
		return 0, errFakeWrite
	}
	f.writes = append(f.writes, append([]byte(nil), b...))
	return len(b), nil
}

func (f *fakeOut) written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}

// fakeDriver serves a fixed set of ports.
type fakeDriver struct {
	ins  []*fakeIn
	outs []*fakeOut
}

func (d *fakeDriver) Ins() ([]midi.In, error) {
	ins := make([]midi.In, len(d.ins))
	for i, in := range d.ins {
		ins[i] = in
	}
	return ins, nil
}

func (d *fakeDriver) Outs() ([]midi.Out, error) {
	outs := make([]midi.Out, len(d.outs))
	for i, o := range d.outs {
		outs[i] = o
	}
	return outs, nil
}

func (d *fakeDriver) String() string { return "fake" }
func (d *fakeDriver) Close() error   { return nil }

// captureLogger counts warnings and errors.
type captureLogger struct {
	mu     sync.Mutex
	warns  int
	errors int
}

func (l *captureLogger) Debug(string, ...any) {}
func (l *captureLogger) Info(string, ...any)  {}
func (l *captureLogger) Warn(string, ...any) {
	l.mu.Lock()
	l.warns++
	l.mu.Unlock()
}
func (l *captureLogger) Error(string, ...any) {
	l.mu.Lock()
	l.errors++
	l.mu.Unlock()
}

func (l *captureLogger) counts() (warns, errs int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.warns, l.errors
}
