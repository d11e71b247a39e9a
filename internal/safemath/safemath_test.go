package safemath

import (
	"math"
	"testing"
)

func TestAdd32(t *testing.T) {
	tests := []struct {
		name   string
		a, b   uint32
		want   uint32
		wantOk bool
	}{
		{"zero plus zero", 0, 0, 0, true},
		{"small values", 1, 2, 3, true},
		{"near max", math.MaxUint32 - 10, 5, math.MaxUint32 - 5, true},
		{"at boundary", math.MaxUint32 - 1, 1, math.MaxUint32, true},
		{"overflow max plus one", math.MaxUint32, 1, 0, false},
		{"overflow max plus max", math.MaxUint32, math.MaxUint32, math.MaxUint32 - 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Add32(tt.a, tt.b)
			if ok != tt.wantOk {
				t.Errorf("Add32(%d, %d) ok = %v, want %v", tt.a, tt.b, ok, tt.wantOk)
				return
			}
			if ok && got != tt.want {
				t.Errorf("Add32(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestAdd64(t *testing.T) {
	tests := []struct {
		name   string
		a, b   uint64
		want   uint64
		wantOk bool
	}{
		{"zero plus zero", 0, 0, 0, true},
		{"small values", 100, 200, 300, true},
		{"at boundary", math.MaxUint64 - 1, 1, math.MaxUint64, true},
		{"overflow max plus one", math.MaxUint64, 1, 0, false},
		{"overflow half max doubled", math.MaxUint64/2 + 1, math.MaxUint64/2 + 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Add64(tt.a, tt.b)
			if ok != tt.wantOk {
				t.Errorf("Add64(%d, %d) ok = %v, want %v", tt.a, tt.b, ok, tt.wantOk)
				return
			}
			if ok && got != tt.want {
				t.Errorf("Add64(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSub32(t *testing.T) {
	tests := []struct {
		name   string
		a, b   uint32
		want   uint32
		wantOk bool
	}{
		{"zero minus zero", 0, 0, 0, true},
		{"small values", 10, 3, 7, true},
		{"equal values", 5, 5, 0, true},
		{"max minus max", math.MaxUint32, math.MaxUint32, 0, true},
		{"underflow zero minus one", 0, 1, 0, false},
		{"underflow small minus large", 3, 10, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Sub32(tt.a, tt.b)
			if ok != tt.wantOk {
				t.Errorf("Sub32(%d, %d) ok = %v, want %v", tt.a, tt.b, ok, tt.wantOk)
				return
			}
			if ok && got != tt.want {
				t.Errorf("Sub32(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSub64(t *testing.T) {
	tests := []struct {
		name   string
		a, b   uint64
		want   uint64
		wantOk bool
	}{
		{"zero minus zero", 0, 0, 0, true},
		{"small values", 300, 200, 100, true},
		{"max minus one", math.MaxUint64, 1, math.MaxUint64 - 1, true},
		{"underflow zero minus one", 0, 1, 0, false},
		{"underflow zero minus max", 0, math.MaxUint64, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Sub64(tt.a, tt.b)
			if ok != tt.wantOk {
				t.Errorf("Sub64(%d, %d) ok = %v, want %v", tt.a, tt.b, ok, tt.wantOk)
				return
			}
			if ok && got != tt.want {
				t.Errorf("Sub64(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMul32(t *testing.T) {
	tests := []struct {
		name   string
		a, b   uint32
		want   uint32
		wantOk bool
	}{
		{"zero times zero", 0, 0, 0, true},
		{"zero times max", 0, math.MaxUint32, 0, true},
		{"small values", 6, 7, 42, true},
		{"at boundary", 1 << 16, 1<<16 - 1, math.MaxUint32 - (1<<16 - 1), true},
		{"overflow power of two", 1 << 16, 1 << 16, 0, false},
		{"overflow max times two", math.MaxUint32, 2, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Mul32(tt.a, tt.b)
			if ok != tt.wantOk {
				t.Errorf("Mul32(%d, %d) ok = %v, want %v", tt.a, tt.b, ok, tt.wantOk)
				return
			}
			if ok && got != tt.want {
				t.Errorf("Mul32(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMul64(t *testing.T) {
	tests := []struct {
		name   string
		a, b   uint64
		want   uint64
		wantOk bool
	}{
		{"zero times zero", 0, 0, 0, true},
		{"small values", 100, 510, 51000, true},
		{"one times max", 1, math.MaxUint64, math.MaxUint64, true},
		{"overflow power of two", 1 << 32, 1 << 32, 0, false},
		{"overflow max times two", math.MaxUint64, 2, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Mul64(tt.a, tt.b)
			if ok != tt.wantOk {
				t.Errorf("Mul64(%d, %d) ok = %v, want %v", tt.a, tt.b, ok, tt.wantOk)
				return
			}
			if ok && got != tt.want {
				t.Errorf("Mul64(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCast32(t *testing.T) {
	tests := []struct {
		name   string
		v      uint64
		want   uint32
		wantOk bool
	}{
		{"zero", 0, 0, true},
		{"small value", 12345, 12345, true},
		{"at boundary", math.MaxUint32, math.MaxUint32, true},
		{"one past boundary", math.MaxUint32 + 1, 0, false},
		{"max uint64", math.MaxUint64, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Cast32(tt.v)
			if ok != tt.wantOk {
				t.Errorf("Cast32(%d) ok = %v, want %v", tt.v, ok, tt.wantOk)
				return
			}
			if ok && got != tt.want {
				t.Errorf("Cast32(%d) = %d, want %d", tt.v, got, tt.want)
			}
		})
	}
}

func TestSaturate32(t *testing.T) {
	tests := []struct {
		name string
		v    uint64
		want uint32
	}{
		{"zero", 0, 0},
		{"small value", 366, 366},
		{"at boundary", math.MaxUint32, math.MaxUint32},
		{"one past boundary", math.MaxUint32 + 1, math.MaxUint32},
		{"max uint64", math.MaxUint64, math.MaxUint32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Saturate32(tt.v); got != tt.want {
				t.Errorf("Saturate32(%d) = %d, want %d", tt.v, got, tt.want)
			}
		})
	}
}
