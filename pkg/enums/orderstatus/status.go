package orderstatus

type Status struct {
	Name string
}

// Code returns the wire value used by the order backend.
func (s Status) Code() string {
	return s.Name
}

// Rank orders statuses for board display: Pending first, Completed last.
func (s Status) Rank() int {
	switch s.Name {
	case Statuses.Pending.Name:
		return 0
	case Statuses.Preparing.Name:
		return 1
	case Statuses.Completed.Name:
		return 2
	default:
		return 3
	}
}

// Next returns the forward transition. Forward moves never skip a state;
// Completed is terminal.
func (s Status) Next() Status {
	switch s.Name {
	case Statuses.Pending.Name:
		return Statuses.Preparing
	case Statuses.Preparing.Name:
		return Statuses.Completed
	default:
		return s
	}
}

// Previous returns the backward correction transition, one step at most.
func (s Status) Previous() Status {
	switch s.Name {
	case Statuses.Preparing.Name:
		return Statuses.Pending
	case Statuses.Completed.Name:
		return Statuses.Preparing
	default:
		return s
	}
}

type Enum struct {
	Pending   Status
	Preparing Status
	Completed Status
}

var Statuses = Enum{
	Pending:   Status{Name: "Pending"},
	Preparing: Status{Name: "Preparing"},
	Completed: Status{Name: "Completed"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Preparing,
	Statuses.Completed,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
