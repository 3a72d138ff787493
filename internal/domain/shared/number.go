package shared

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a nullable CRM numeric field. The CRM returns the same field as a
// JSON number on some layouts and as a string on others, so both decode here.
// It always encodes as a bare JSON number (or null).
type Number struct {
	Decimal decimal.Decimal
	Valid   bool
}

func NewNumber(d decimal.Decimal) Number {
	return Number{Decimal: d, Valid: true}
}

func NumberFromInt(i int64) Number {
	return Number{Decimal: decimal.NewFromInt(i), Valid: true}
}

func NumberFromFloat(f float64) Number {
	return Number{Decimal: decimal.NewFromFloat(f), Valid: true}
}

// IsZero reports an unset value so `omitzero` drops it from write payloads.
func (n Number) IsZero() bool {
	return !n.Valid
}

// Int64 returns the integer part, or 0 when unset.
func (n Number) Int64() int64 {
	if !n.Valid {
		return 0
	}
	return n.Decimal.IntPart()
}

// Or returns the value, or def when unset.
func (n Number) Or(def decimal.Decimal) decimal.Decimal {
	if !n.Valid {
		return def
	}
	return n.Decimal
}

func (n Number) String() string {
	if !n.Valid {
		return ""
	}
	return n.Decimal.String()
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(n.Decimal.String()), nil
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		raw = strings.TrimSpace(strings.Trim(raw, `"`))
		if raw == "" {
			*n = Number{}
			return nil
		}
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", data, err)
	}
	*n = Number{Decimal: d, Valid: true}
	return nil
}
