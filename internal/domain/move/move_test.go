package move_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/roshambo/internal/domain/move"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBeats(t *testing.T) {
	Convey("Given the three moves", t, func() {
		Convey("Then the beats relation is the fixed 3-cycle", func() {
			So(move.Beats(move.Rock, move.Scissors), ShouldBeTrue)
			So(move.Beats(move.Scissors, move.Paper), ShouldBeTrue)
			So(move.Beats(move.Paper, move.Rock), ShouldBeTrue)

			So(move.Beats(move.Scissors, move.Rock), ShouldBeFalse)
			So(move.Beats(move.Paper, move.Scissors), ShouldBeFalse)
			So(move.Beats(move.Rock, move.Paper), ShouldBeFalse)
		})

		Convey("Then no move beats itself", func() {
			for _, m := range move.All() {
				So(move.Beats(m, m), ShouldBeFalse)
			}
		})

		Convey("Then each move beats exactly one move and loses to exactly one", func() {
			for _, a := range move.All() {
				wins, losses := 0, 0
				for _, b := range move.All() {
					if a.Beats(b) {
						wins++
					}
					if b.Beats(a) {
						losses++
					}
				}
				So(wins, ShouldEqual, 1)
				So(losses, ShouldEqual, 1)
			}
		})
	})
}

func TestAll(t *testing.T) {
	Convey("Given the move catalog", t, func() {
		all := move.All()

		Convey("Then it lists three distinct moves in order", func() {
			So(all, ShouldResemble, []move.Move{move.Rock, move.Paper, move.Scissors})
		})

		Convey("And mutating the result does not affect later calls", func() {
			all[0] = move.Scissors
			So(move.All()[0], ShouldEqual, move.Rock)
		})

		Convey("And the zero value is Rock", func() {
			var m move.Move
			So(m, ShouldEqual, move.Rock)
			So(m.String(), ShouldEqual, "rock")
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given user input", t, func() {
		Convey("When it names a move", func() {
			cases := map[string]move.Move{
				"rock":       move.Rock,
				" Paper ":    move.Paper,
				"SCISSORS":   move.Scissors,
				"r":          move.Rock,
				"p":          move.Paper,
				"s":          move.Scissors,
				"🪨":          move.Rock,
				"📃":          move.Paper,
				"✂️":         move.Scissors,
				"✂":          move.Scissors,
			}

			Convey("Then it parses to that move", func() {
				for in, want := range cases {
					got, err := move.Parse(in)
					So(err, ShouldBeNil)
					So(got, ShouldEqual, want)
				}
			})
		})

		Convey("When it names nothing", func() {
			_, err := move.Parse("lizard")

			Convey("Then it returns ErrUnknownMove", func() {
				So(errors.Is(err, move.ErrUnknownMove), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "lizard")
			})
		})

		Convey("When it is empty", func() {
			_, err := move.Parse("  ")
			So(errors.Is(err, move.ErrUnknownMove), ShouldBeTrue)
		})
	})
}

func TestMoveJSON(t *testing.T) {
	Convey("Given a payload carrying a move", t, func() {
		type payload struct {
			Move move.Move `json:"move"`
		}

		Convey("When encoding", func() {
			b, err := json.Marshal(payload{Move: move.Scissors})
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"move":"scissors"}`)
		})

		Convey("When decoding a short form", func() {
			var p payload
			err := json.Unmarshal([]byte(`{"move":"p"}`), &p)
			So(err, ShouldBeNil)
			So(p.Move, ShouldEqual, move.Paper)
		})

		Convey("When decoding an unknown move", func() {
			var p payload
			err := json.Unmarshal([]byte(`{"move":"spock"}`), &p)
			So(errors.Is(err, move.ErrUnknownMove), ShouldBeTrue)
		})
	})
}

func TestIcon(t *testing.T) {
	Convey("Given the moves", t, func() {
		Convey("Then each has its button glyph", func() {
			So(move.Rock.Icon(), ShouldEqual, "🪨")
			So(move.Paper.Icon(), ShouldEqual, "📃")
			So(move.Scissors.Icon(), ShouldEqual, "✂️")
		})
	})
}
