package matmul

import (
	"fmt"
	"strings"
)

// LoopOrder names the nesting of the row (i), column (j) and reduction (k)
// loops, outermost first. It changes the memory access pattern, not the result.
type LoopOrder int

const (
	IJK LoopOrder = iota
	IKJ
	JIK
	JKI
	KIJ
	KJI
)

var orderNames = [...]string{
	IJK: "ijk",
	IKJ: "ikj",
	JIK: "jik",
	JKI: "jki",
	KIJ: "kij",
	KJI: "kji",
}

// AllOrders returns the six loop orders in declaration order.
func AllOrders() []LoopOrder {
	return []LoopOrder{IJK, IKJ, JIK, JKI, KIJ, KJI}
}

func (o LoopOrder) String() string {
	if o.valid() {
		return orderNames[o]
	}
	return fmt.Sprintf("LoopOrder(%d)", int(o))
}

func (o LoopOrder) valid() bool {
	return o >= IJK && o <= KJI
}

// ParseLoopOrder accepts the lower- or upper-case name of an order, e.g. "jki".
func ParseLoopOrder(s string) (LoopOrder, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for o, n := range orderNames {
		if n == name {
			return LoopOrder(o), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownLoopOrder)
}

// ParseLoopOrders parses a comma separated list such as "ijk,jki".
// An empty string yields AllOrders.
func ParseLoopOrders(s string) ([]LoopOrder, error) {
	if strings.TrimSpace(s) == "" {
		return AllOrders(), nil
	}
	parts := strings.Split(s, ",")
	orders := make([]LoopOrder, 0, len(parts))
	for _, part := range parts {
		o, err := ParseLoopOrder(part)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}
