package enums

// OrderStatus tracks the lifecycle of a persisted order.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}
