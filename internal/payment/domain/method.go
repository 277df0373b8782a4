package domain

import "strings"

type Method string

const (
	MethodCash     Method = "cash"
	MethodTransfer Method = "transfer"
	MethodQRIS     Method = "qris"
	MethodOther    Method = "other"
)

var Methods = []Method{MethodCash, MethodTransfer, MethodQRIS, MethodOther}

func (m Method) Validate() error {
	switch m {
	case MethodCash, MethodTransfer, MethodQRIS, MethodOther:
		return nil
	default:
		return ErrInvalidMethod
	}
}

// Label is the receipt wording for the method.
func (m Method) Label() string {
	switch m {
	case MethodCash:
		return "Tunai"
	case MethodTransfer:
		return "Transfer Bank"
	case MethodQRIS:
		return "QRIS"
	case MethodOther:
		return "Lainnya"
	default:
		return string(m)
	}
}

// ParseMethod accepts the method code in any case; empty means cash.
func ParseMethod(raw string) (Method, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return MethodCash, nil
	}
	m := Method(raw)
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}
