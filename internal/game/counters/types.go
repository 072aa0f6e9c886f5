package counters

// CounterType names a kind of counter. Rules collaborators may use any name; these are the
// common ones.
type CounterType string

const (
	CounterTypeP1P1    CounterType = "+1/+1"
	CounterTypeM1M1    CounterType = "-1/-1"
	CounterTypeLoyalty CounterType = "loyalty"
	CounterTypeCharge  CounterType = "charge"
	CounterTypeAge     CounterType = "age"
	CounterTypeTime    CounterType = "time"
	CounterTypeStun    CounterType = "stun"
	CounterTypeShield  CounterType = "shield"
)
