// internal/domain/payload.go
package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PayloadAmountKey is the payload field copied into an application's amount.
const PayloadAmountKey = "amount"

// Payload is the service-type specific data of an application, stored as a JSON object.
type Payload map[string]any

// Value implements driver.Valuer.
func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (p *Payload) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = Payload{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan payload: unsupported type %T", src)
	}
	out, err := decodePayload(raw)
	if err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	*p = out
	return nil
}

// decodePayload keeps numbers as json.Number so amounts survive without float rounding.
func decodePayload(raw []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	out := Payload{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Clone returns a deep copy, detached from the caller's map.
func (p Payload) Clone() (Payload, error) {
	if p == nil {
		return Payload{}, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("snapshot payload: %w", err)
	}
	out, err := decodePayload(b)
	if err != nil {
		return nil, fmt.Errorf("snapshot payload: %w", err)
	}
	return out, nil
}

var errBadAmount = errors.New("payload amount is not a decimal")

// Amount extracts payload["amount"]. The boolean is false when the key is absent or null.
func (p Payload) Amount() (decimal.Decimal, bool, error) {
	raw, ok := p[PayloadAmountKey]
	if !ok || raw == nil {
		return decimal.Zero, false, nil
	}

	var (
		amount decimal.Decimal
		err    error
	)
	switch v := raw.(type) {
	case decimal.Decimal:
		amount = v
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false, nil
		}
		amount = *v
	case string:
		amount, err = decimal.NewFromString(v)
	case json.Number:
		amount, err = decimal.NewFromString(v.String())
	case float64:
		amount = decimal.NewFromFloat(v)
	case float32:
		amount = decimal.NewFromFloat32(v)
	case int:
		amount = decimal.NewFromInt(int64(v))
	case int64:
		amount = decimal.NewFromInt(v)
	case int32:
		amount = decimal.NewFromInt32(v)
	default:
		return decimal.Zero, false, fmt.Errorf("%w: %T", errBadAmount, raw)
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: %v", errBadAmount, err)
	}
	return amount, true, nil
}
