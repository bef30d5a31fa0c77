package schema

// ChangeKind classifies a generated statement.
type ChangeKind int

const (
	ChangeAdd ChangeKind = iota
	ChangeChange
	ChangeDelete
)

// String returns ADD, CHANGE or DELETE
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "ADD"
	case ChangeChange:
		return "CHANGE"
	case ChangeDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Change is one generated SQL statement.
type Change struct {
	SQL   string
	Kind  ChangeKind
	Table string
}
