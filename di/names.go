package di

import "fmt"

// MemberKind classifies an injection point.
type MemberKind int

const (
	// KindField is a struct field assigned directly.
	KindField MemberKind = iota
	// KindProperty is a value reached through a getter/setter pair.
	KindProperty
	// KindMethod is a single-argument method called with the value.
	KindMethod
)

var kindNames = map[MemberKind]string{
	KindField:    "field",
	KindProperty: "property",
	KindMethod:   "method",
}

// String implements fmt.Stringer. The names double as metric attribute
// values.
func (k MemberKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("MemberKind(%d)", int(k))
}

// Clearable reports whether members of this kind can be reset to their
// zero value. Methods have no readable state to reset.
func (k MemberKind) Clearable() bool {
	return k == KindField || k == KindProperty
}

// StalePolicy decides what happens to values assigned from a previous
// registry when SwitchContext re-injects tracked instances.
type StalePolicy int

const (
	// LeaveStale keeps values for members the new registry does not bind.
	LeaveStale StalePolicy = iota
	// ClearStale resets field and property members to their zero value
	// before re-injection.
	ClearStale
)

// String implements fmt.Stringer.
func (p StalePolicy) String() string {
	switch p {
	case LeaveStale:
		return "leave"
	case ClearStale:
		return "clear"
	default:
		return fmt.Sprintf("StalePolicy(%d)", int(p))
	}
}

// ParseStalePolicy maps a configuration value to a StalePolicy.
func ParseStalePolicy(s string) (StalePolicy, error) {
	switch s {
	case "", "leave":
		return LeaveStale, nil
	case "clear":
		return ClearStale, nil
	default:
		return LeaveStale, fmt.Errorf("unknown stale policy %q", s)
	}
}
