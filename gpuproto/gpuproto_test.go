package gpuproto

import (
	"encoding/binary"
	"testing"
)

func TestLiteralSearchConfigRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  LiteralSearchConfig
	}{
		{"zero value", LiteralSearchConfig{}},
		{"typical", LiteralSearchConfig{
			TextLen: 4096, PatternLen: 5, NumPatterns: 1,
			Flags: FlagCaseInsensitive | FlagWordBoundary,
			PositionsPerThread: 64, BatchOffset: 128,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := tt.cfg.Encode()
			got := DecodeLiteralSearchConfig(buf[:])
			if got != tt.cfg {
				t.Fatalf("round trip mismatch: got %+v, want %+v", got, tt.cfg)
			}
		})
	}
}

func TestLiteralMatchRecordRoundTrip(t *testing.T) {
	r := LiteralMatchRecord{Position: 10, PatternIdx: 2, MatchLen: 5, LineStart: 0, LineNum: 1}
	buf := r.Encode()
	if len(buf) != literalRecordSize {
		t.Fatalf("encoded size = %d, want %d", len(buf), literalRecordSize)
	}
	got := DecodeLiteralMatchRecord(buf[:])
	if got != r {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, r)
	}
}

func TestRegexSearchConfigRoundTrip(t *testing.T) {
	cfg := RegexSearchConfig{
		TextLen: 1024, NumStates: 40, StartState: 0, HeaderFlags: 0,
		NumBitmaps: 2, MaxResults: MaxResults, Flags: FlagCaseInsensitive, LineOffset: 0,
	}
	buf := cfg.Encode()
	if got := DecodeRegexSearchConfig(buf[:]); got != cfg {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, cfg)
	}
}

func TestRegexMatchRecordValidFlag(t *testing.T) {
	r := RegexMatchRecord{Start: 3, End: 8, LineStart: 0, Flags: RegexMatchFlagValid, LineNum: 1}
	if !r.Valid() {
		t.Fatal("expected Valid() true when RegexMatchFlagValid set")
	}
	r.Flags = 0
	if r.Valid() {
		t.Fatal("expected Valid() false when flag unset")
	}
	buf := r.Encode()
	got := DecodeRegexMatchRecord(buf[:])
	if got.Start != 3 || got.End != 8 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestRegexHeaderRoundTrip(t *testing.T) {
	h := RegexHeader{NumStates: 12, StartState: 0, NumGroups: 1, Flags: 0}
	buf := h.Encode()
	if len(buf) != regexHeaderSize {
		t.Fatalf("encoded size = %d, want %d", len(buf), regexHeaderSize)
	}
	if got := DecodeRegexHeader(buf[:]); got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestDispatchGeometry(t *testing.T) {
	tests := []struct {
		name                 string
		deviceMaxThreadgroup uint32
		wantWorkgroup        uint32
	}{
		{"capped at 256", 1024, 256},
		{"below cap", 64, 64},
		{"exactly 256", 256, 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WorkgroupSize(tt.deviceMaxThreadgroup); got != tt.wantWorkgroup {
				t.Fatalf("WorkgroupSize(%d) = %d, want %d", tt.deviceMaxThreadgroup, got, tt.wantWorkgroup)
			}
		})
	}

	if got := GridSize(1000, 256); got != 4 {
		t.Fatalf("GridSize(1000, 256) = %d, want 4", got)
	}
	if got := GridSize(0, 256); got != 1 {
		t.Fatalf("GridSize(0, 256) = %d, want 1 (at least one workgroup)", got)
	}
	if got := PositionWorkItems(32); got != 1 {
		t.Fatalf("PositionWorkItems(32) = %d, want 1 (floor below 64 bytes)", got)
	}
	if got := PositionWorkItems(640); got != 10 {
		t.Fatalf("PositionWorkItems(640) = %d, want 10", got)
	}
	if got := LineWorkItems(0); got != 1 {
		t.Fatalf("LineWorkItems(0) = %d, want 1", got)
	}
}

func TestEncodeUint32sPadsToDispatchWidth(t *testing.T) {
	buf := EncodeUint32s([]uint32{10, 20, 30}, 5, InvalidLineOffset)
	if len(buf) != 5*4 {
		t.Fatalf("encoded length = %d, want %d", len(buf), 5*4)
	}
	want := []uint32{10, 20, 30, InvalidLineOffset, InvalidLineOffset}
	for i, w := range want {
		got := binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
		if got != w {
			t.Fatalf("entry %d = %d, want %d", i, got, w)
		}
	}

	// total below the value count never truncates.
	buf = EncodeUint32s([]uint32{1, 2, 3}, 1, 0)
	if len(buf) != 3*4 {
		t.Fatalf("short total truncated values: length = %d, want %d", len(buf), 3*4)
	}
}
