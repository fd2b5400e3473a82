package client

import (
	"bufio"
	"os"
	"strings"
)

// Command is one parsed line of user input.
type Command struct {
	// Action is an input action string from the wire protocol, empty when
	// the command is chat or quit.
	Action string
	Chat   string
	Quit   bool
}

// InputHandler reads commands from stdin, one per line. Raw-mode key
// handling is deliberately out of scope here; the line commands map onto
// the same wire actions a richer front end would send.
type InputHandler struct {
	scanner *bufio.Scanner
	display *Display
}

// NewInputHandler creates an input handler reading stdin.
func NewInputHandler(display *Display) *InputHandler {
	return &InputHandler{
		scanner: bufio.NewScanner(os.Stdin),
		display: display,
	}
}

// ReadCommand blocks for the next command line. It returns false when
// stdin is exhausted.
func (ih *InputHandler) ReadCommand() (Command, bool) {
	for ih.scanner.Scan() {
		line := strings.TrimSpace(ih.scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/say ") {
			return Command{Chat: strings.TrimPrefix(line, "/say ")}, true
		}

		switch line {
		case "w":
			return Command{Action: "thrust_on"}, true
		case "W":
			return Command{Action: "thrust_off"}, true
		case "a":
			return Command{Action: "rot_left"}, true
		case "d":
			return Command{Action: "rot_right"}, true
		case "s":
			return Command{Action: "rot_stop"}, true
		case "f":
			return Command{Action: "fire"}, true
		case "q", "/quit":
			return Command{Quit: true}, true
		default:
			ih.display.PrintError("commands: w/W thrust on/off, a/d/s rotate, f fire, /say <text>, q quit")
		}
	}
	return Command{}, false
}
