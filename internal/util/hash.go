// Package util contains internal helpers (fingerprinting of caller values).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"encoding"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// ErrUnhashable is returned when a value cannot be reduced to a stable
// 64-bit fingerprint.
var ErrUnhashable = errors.New("util: unhashable value")

// Fingerprint hashes common key types to a stable 64-bit value using xxhash.
// Supported: string, []byte, [16|32]byte, all int/uint widths, uintptr,
// float32/float64, bool, encoding.BinaryMarshaler, fmt.Stringer.
// Equal values of the same type always produce the same fingerprint; values
// of different types may collide (e.g. int 1 and uint 1), which is within the
// simulator's approximation budget.
func Fingerprint[K any](k K) (uint64, error) {
	switch v := any(k).(type) {
	case string:
		return xxhash.Sum64String(v), nil
	case []byte:
		return xxhash.Sum64(v), nil
	case [16]byte:
		return xxhash.Sum64(v[:]), nil
	case [32]byte:
		return xxhash.Sum64(v[:]), nil

	// Integer-like keys: hash the little-endian bytes of the value.
	case uint8:
		return fromUint64(uint64(v)), nil
	case uint16:
		return fromUint64(uint64(v)), nil
	case uint32:
		return fromUint64(uint64(v)), nil
	case uint64:
		return fromUint64(v), nil
	case uint:
		return fromUint64(uint64(v)), nil
	case uintptr:
		return fromUint64(uint64(v)), nil
	case int8:
		return fromUint64(uint64(v)), nil
	case int16:
		return fromUint64(uint64(v)), nil
	case int32:
		return fromUint64(uint64(v)), nil
	case int64:
		return fromUint64(uint64(v)), nil
	case int:
		return fromUint64(uint64(v)), nil
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	case bool:
		if v {
			return fromUint64(1), nil
		}
		return fromUint64(0), nil

	case encoding.BinaryMarshaler:
		b, err := v.MarshalBinary()
		if err != nil {
			return 0, errors.Wrapf(ErrUnhashable, "marshal %T: %v", k, err)
		}
		return xxhash.Sum64(b), nil
	// Fallback for pseudo-keys via String() (avoid if you can).
	case fmt.Stringer:
		return xxhash.Sum64String(v.String()), nil
	default:
		return 0, errors.Wrapf(ErrUnhashable, "unsupported key type %T", k)
	}
}

// MustFingerprint is Fingerprint for callers that only use supported types.
func MustFingerprint[K any](k K) uint64 {
	fp, err := Fingerprint(k)
	if err != nil {
		panic(err)
	}
	return fp
}

func fromUint64(u uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], u)
	return xxhash.Sum64(b[:])
}

// fromFloat normalizes -0 to +0 so equal floats hash alike. NaN never equals
// itself and has no stable identity.
func fromFloat(f float64) (uint64, error) {
	if math.IsNaN(f) {
		return 0, errors.Wrap(ErrUnhashable, "NaN")
	}
	if f == 0 {
		f = 0
	}
	return fromUint64(math.Float64bits(f)), nil
}
