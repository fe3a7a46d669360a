package signal

import "time"

// Kind is the type of a signal sent to an employee
type Kind string

const (
	KindBuzz Kind = "buzz"
)

// Signal is an outbox entry delivered to every observer of an employee.
// AckedAt is set exactly once.
type Signal struct {
	ID         string
	EmployeeID string
	Kind       Kind
	SenderID   string
	Message    string
	CreatedAt  time.Time
	AckedAt    *time.Time
}
