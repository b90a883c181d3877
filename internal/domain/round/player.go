package round

type side uint8

const (
	user side = iota
	computer
)

// Player identifies whose score a round credits. The zero value is User.
type Player struct {
	s side
}

// The two players.
var (
	User     = Player{s: user}
	Computer = Player{s: computer}
)

// String returns "user" or "computer".
func (p Player) String() string {
	if p.s == computer {
		return "computer"
	}
	return "user"
}

// MarshalText encodes the player as its name.
func (p Player) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
