package protocol

import (
	"testing"
)

func TestFlagBitLayout(t *testing.T) {
	tests := []struct {
		name string
		flag Flags
		want uint32
	}{
		{"none", FlagNone, 0},
		{"kernel only", FlagKernelOnly, 1 << 1},
		{"no verify", FlagNoVerify, 1 << 2},
		{"include status data", FlagIncludeStatusData, 1 << 3},
		{"include secrets", FlagIncludeSecrets, 1 << 4},
		{"no commit", FlagNoCommit, 1 << 5},
		{"memory only", FlagMemoryOnly, 1 << 6},
		{"running config only", FlagRunningConfigOnly, 1 << 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if uint32(tt.flag) != tt.want {
				t.Errorf("flag %s = %d, want %d", tt.name, uint32(tt.flag), tt.want)
			}
		})
	}
}

func TestFlagsAreOrthogonal(t *testing.T) {
	all := []Flags{
		FlagKernelOnly,
		FlagNoVerify,
		FlagIncludeStatusData,
		FlagIncludeSecrets,
		FlagNoCommit,
		FlagMemoryOnly,
		FlagRunningConfigOnly,
	}

	var combined Flags
	for _, f := range all {
		combined |= f
	}

	for i, f := range all {
		if !combined.Has(f) {
			t.Errorf("combined flags missing bit %d", i)
		}
		for j, other := range all {
			if i != j && f&other != 0 {
				t.Errorf("flags %d and %d share bits", i, j)
			}
		}
	}
}

func TestBufferRelease(t *testing.T) {
	released := 0
	buf := NewTrackedBuffer([]byte("hello"), func() { released++ })

	if got := string(buf.Bytes()); got != "hello" {
		t.Errorf("Bytes() = %q, want %q", got, "hello")
	}
	if buf.Released() {
		t.Error("buffer reported released before Release")
	}

	buf.Release()
	if !buf.Released() {
		t.Error("buffer not released after Release")
	}
	if buf.Bytes() != nil {
		t.Error("Bytes() after Release should be nil")
	}

	// Double release must not fire the hook twice.
	buf.Release()
	if released != 1 {
		t.Errorf("release hook fired %d times, want 1", released)
	}
}

func TestNilBuffer(t *testing.T) {
	var buf *Buffer
	if buf.Bytes() != nil {
		t.Error("nil buffer Bytes() should be nil")
	}
	if !buf.Released() {
		t.Error("nil buffer should report released")
	}
	buf.Release() // must not panic
}

func TestLogBatchRoundTrip(t *testing.T) {
	entries := []LogEntry{
		{Time: "2024-05-01T10:00:00Z", Level: LogLevelInfo, File: "nmstate", Msg: "querying state"},
		{Time: "2024-05-01T10:00:01Z", Level: LogLevelWarn, File: "nm.plugin", Msg: "slow response"},
	}

	b, err := EncodeLogBatch(entries)
	if err != nil {
		t.Fatalf("EncodeLogBatch() error = %v", err)
	}

	got := DecodeLogBatch(b)
	if len(got) != len(entries) {
		t.Fatalf("decoded %d entries, want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], entries[i])
		}
	}
}

func TestDecodeLogBatchDefensive(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"nil payload", nil},
		{"empty payload", []byte{}},
		{"malformed json", []byte(`{"not":"an array"`)},
		{"wrong shape", []byte(`{"level":"INFO"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeLogBatch(tt.input); got != nil {
				t.Errorf("DecodeLogBatch(%q) = %v, want nil", tt.input, got)
			}
		})
	}
}

func TestEncodeLogBatchEmpty(t *testing.T) {
	b, err := EncodeLogBatch(nil)
	if err != nil {
		t.Fatalf("EncodeLogBatch(nil) error = %v", err)
	}
	if string(b) != "[]" {
		t.Errorf("EncodeLogBatch(nil) = %q, want %q", b, "[]")
	}
}
