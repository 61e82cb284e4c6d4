package ffprobe

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Rational is an exact frame rate such as 24000/1001.
type Rational struct {
	Num int64
	Den int64
}

// ParseRational accepts "num/den" where both parts are base-10 integers and
// den is positive, or a bare integer meaning n/1. Anything else, including
// expressions and decimals, is rejected.
func ParseRational(value string) (Rational, error) {
	value = strings.TrimSpace(value)
	numStr, denStr, hasSlash := strings.Cut(value, "/")
	if !hasSlash {
		denStr = "1"
	}
	num, err := parseInteger(numStr)
	if err != nil {
		return Rational{}, fmt.Errorf("invalid rational %q: numerator: %w", value, err)
	}
	den, err := parseInteger(denStr)
	if err != nil {
		return Rational{}, fmt.Errorf("invalid rational %q: denominator: %w", value, err)
	}
	if den <= 0 {
		return Rational{}, fmt.Errorf("invalid rational %q: denominator must be positive", value)
	}
	return Rational{Num: num, Den: den}, nil
}

func parseInteger(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	for i, r := range s {
		if r == '-' && i == 0 {
			continue
		}
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("unexpected character %q", r)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

// String renders the value as num/den, suitable for ffmpeg's -r flag.
func (r Rational) String() string {
	return strconv.FormatInt(r.Num, 10) + "/" + strconv.FormatInt(r.Den, 10)
}

// Float64 returns the nearest float value.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	f, _ := new(big.Rat).SetFrac64(r.Num, r.Den).Float64()
	return f
}

// IsZero reports whether the rate is unset or zero.
func (r Rational) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}
