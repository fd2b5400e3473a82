// Package client implements the terminal viewer: connection handling,
// text-grid rendering and command input.
package client

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"asteroid-arena/internal/network"
)

// Display renders snapshots and events into the terminal.
type Display struct {
	selfColor     *color.Color
	enemyColor    *color.Color
	asteroidColor *color.Color
	bulletColor   *color.Color
	powerUpColor  *color.Color
	hudColor      *color.Color
	chatColor     *color.Color
	systemColor   *color.Color
	warnColor     *color.Color
}

// NewDisplay creates a display with the configured color scheme.
func NewDisplay() *Display {
	return &Display{
		selfColor:     color.New(color.FgGreen, color.Bold),
		enemyColor:    color.New(color.FgCyan),
		asteroidColor: color.New(color.FgWhite),
		bulletColor:   color.New(color.FgYellow),
		powerUpColor:  color.New(color.FgMagenta, color.Bold),
		hudColor:      color.New(color.FgYellow, color.Bold),
		chatColor:     color.New(color.FgCyan),
		systemColor:   color.New(color.FgBlue, color.Bold),
		warnColor:     color.New(color.FgRed, color.Bold),
	}
}

// PrintBanner displays the game banner.
func (d *Display) PrintBanner() {
	banner := `
╔═══════════════════════════════════════╗
║            ASTEROID ARENA             ║
║        multiplayer text battle        ║
╚═══════════════════════════════════════╝
`
	d.hudColor.Println(banner)
}

// PrintChat displays a chat line from another player (or the echo of our
// own).
func (d *Display) PrintChat(from, text string) {
	d.chatColor.Printf("[chat] %s: %s\n", from, text)
}

// PrintSystem displays a server announcement.
func (d *Display) PrintSystem(text string) {
	d.systemColor.Printf("[server] %s\n", text)
}

// PrintError displays an error message.
func (d *Display) PrintError(msg string) {
	d.warnColor.Printf("[error] %s\n", msg)
}

// RenderState clears the screen and draws the full arena grid plus the
// HUD. selfID marks our own ship.
func (d *Display) RenderState(st *network.State, selfID uint64, arenaW, arenaH int) {
	grid := make([][]byte, arenaH)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(" ", arenaW))
	}

	plot := func(x, y float64, c byte) {
		cx, cy := int(x), int(y)
		if cx >= 0 && cx < arenaW && cy >= 0 && cy < arenaH {
			grid[cy][cx] = c
		}
	}

	for _, b := range st.Bullets {
		plot(b.X, b.Y, '.')
	}
	for _, pu := range st.PowerUps {
		if pu.Kind != "" {
			plot(pu.X, pu.Y, pu.Kind[0])
		}
	}
	for _, a := range st.Asteroids {
		switch a.Size {
		case 3:
			plot(a.X, a.Y, 'O')
		case 2:
			plot(a.X, a.Y, 'o')
		default:
			plot(a.X, a.Y, '*')
		}
	}
	var self *network.PlayerView
	for i, p := range st.Players {
		if !p.Alive {
			continue
		}
		c := byte('A')
		if p.ID == selfID {
			c = '@'
			self = &st.Players[i]
		}
		if p.Blinking && st.Tick%4 < 2 {
			continue
		}
		plot(p.X, p.Y, c)
	}
	if self == nil {
		for i, p := range st.Players {
			if p.ID == selfID {
				self = &st.Players[i]
			}
		}
	}

	fmt.Print("\033[H\033[2J")
	for _, row := range grid {
		fmt.Println(string(row))
	}
	d.renderHUD(st, self)
}

func (d *Display) renderHUD(st *network.State, self *network.PlayerView) {
	if st.WavePendingS > 0 {
		d.hudColor.Printf("wave %d | next wave in %.1fs\n", st.Wave, st.WavePendingS)
	} else {
		d.hudColor.Printf("wave %d | asteroids %d\n", st.Wave, st.AsteroidsRemaining)
	}

	if self != nil {
		line := fmt.Sprintf("score %d", self.Score)
		if self.Combo > 1 {
			line += fmt.Sprintf(" | combo x%d", self.Combo)
		}
		if self.KillStreak > 0 {
			line += fmt.Sprintf(" | streak %d", self.KillStreak)
		}
		if len(self.ActivePowerUps) > 0 {
			line += " | " + strings.Join(self.ActivePowerUps, "")
		}
		d.hudColor.Println(line)
		if !self.Alive {
			d.warnColor.Printf("destroyed! respawning in %.1fs\n", self.RespawnS)
		}
	}

	if len(st.Leaderboard) > 0 {
		parts := make([]string, 0, len(st.Leaderboard))
		for _, e := range st.Leaderboard {
			parts = append(parts, fmt.Sprintf("%s:%d", e.Name, e.Score))
		}
		d.hudColor.Printf("top: %s\n", strings.Join(parts, "  "))
	}
}
