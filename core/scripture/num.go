package scripture

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Num is an optional positive chapter or verse number.
// The zero value is absent.
type Num struct {
	v   int
	set bool
}

// Some returns a present Num. Non-positive values yield an absent Num.
func Some(n int) Num {
	if n <= 0 {
		return Num{}
	}
	return Num{v: n, set: true}
}

// None returns an absent Num.
func None() Num { return Num{} }

// Get returns the value and whether it is present.
func (n Num) Get() (int, bool) { return n.v, n.set }

// IsSet reports whether the number is present.
func (n Num) IsSet() bool { return n.set }

// IsZero reports whether the number is absent. It lets `omitzero` drop absent values.
func (n Num) IsZero() bool { return !n.set }

// Int returns the value, or 0 when absent.
func (n Num) Int() int { return n.v }

// String returns the decimal value, or "" when absent.
func (n Num) String() string {
	if !n.set {
		return ""
	}
	return strconv.Itoa(n.v)
}

// ParseNum parses a decimal string. Anything that is not a positive integer is absent.
func ParseNum(s string) Num {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Num{}
	}
	return Some(v)
}

// MarshalJSON encodes a present Num as a number and an absent one as null.
func (n Num) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(n.v)), nil
}

// UnmarshalJSON accepts a number, a numeric string, or null.
// Document stores hold verse numbers in either form, so both are normalized here.
func (n *Num) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Num{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = ParseNum(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f != float64(int(f)) {
		*n = Num{}
		return nil
	}
	*n = Some(int(f))
	return nil
}
