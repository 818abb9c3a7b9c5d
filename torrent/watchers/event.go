package watchers

import "fmt"

type Kind int

const (
	Created Kind = iota
	Modified
	Deleted
	Moved
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Moved:
		return "moved"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is a raw filesystem notification. Dest is only set for Moved.
type Event struct {
	Kind  Kind
	IsDir bool
	Path  string
	Dest  string
}
