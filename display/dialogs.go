package display

import "fmt"

type line struct {
	row   int
	text  string
	style Style
}

// dialog clears the screen and writes each line.
func (d *Display) dialog(lines ...line) {
	d.screen.Clear()
	for _, l := range lines {
		d.text(0, l.row, l.text, l.style)
	}
	d.screen.Show()
}

func (d *Display) Welcome(version, server string) {
	d.dialog(
		line{4, "  *** KILLZONE ***", StyleTitle},
		line{5, "  Version " + version, StyleDefault},
		line{8, "  Connecting to server:", StyleDefault},
		line{9, "  " + server, StyleDefault},
		line{11, "  Waiting for game world...", StyleDefault},
	)
}

// NamePrompt shows the join prompt. Typed text goes to Echo.
func (d *Display) NamePrompt() {
	d.dialog(line{5, "Enter player name:", StyleTitle})
}

// Echo redraws the partially typed name under the prompt.
func (d *Display) Echo(typed string) {
	d.clearLine(7)
	end := d.text(0, 7, typed, StyleDefault)
	if end < d.width {
		d.screen.SetCell(end, 7, '_', StyleDefault)
	}
	d.screen.Show()
}

func (d *Display) Joining(name string) {
	d.dialog(line{8, "  Joining as: " + name, StyleDefault})
}

func (d *Display) Rejoining(name string) {
	d.dialog(
		line{8, "  Rejoining as: " + name, StyleDefault},
		line{10, "  Please wait...", StyleDefault},
	)
}

func (d *Display) QuitConfirm() {
	d.dialog(
		line{8, "  Are you sure you want to quit?", StyleTitle},
		line{10, "  Y=Quit  N=Continue Playing", StyleDefault},
		line{12, "  Press a key: ", StyleDefault},
	)
}

func (d *Display) ConnectionLost() {
	d.dialog(
		line{8, "  CONNECTION LOST", StyleAlert},
		line{10, "  You were disconnected from the server.", StyleDefault},
		line{12, "  Y=Quit  N=Rejoin", StyleDefault},
		line{14, "  Press a key: ", StyleDefault},
	)
}

// Death shows the death screen. killed is false when the player simply
// vanished from the world rather than losing a fight.
func (d *Display) Death(killed bool) {
	if !killed {
		d.dialog(
			line{8, "  YOU DIED!", StyleAlert},
			line{10, "  Play again? (Y/N): ", StyleDefault},
		)
		return
	}
	d.dialog(
		line{8, "  *** YOU WERE KILLED! ***", StyleAlert},
		line{10, "  You have been eliminated in combat.", StyleDefault},
		line{12, "  Rejoin the game? (Y/N): ", StyleDefault},
	)
}

func (d *Display) Error(msg string) {
	d.dialog(line{10, fmt.Sprintf("ERROR: %s", msg), StyleAlert})
}
