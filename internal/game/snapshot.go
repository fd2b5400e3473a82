package game

import (
	"sort"

	"asteroid-arena/internal/network"
)

// Snapshot renders the full world into the wire form. The result is
// immutable once built; the broadcaster serialises it exactly once and
// shares the bytes across sessions.
func (w *World) Snapshot() *network.State {
	st := &network.State{
		Tick:               w.Tick,
		Wave:               w.Wave,
		AsteroidsRemaining: uint32(len(w.asteroids)),
		Players:            make([]network.PlayerView, 0, len(w.players)),
		Asteroids:          make([]network.AsteroidView, 0, len(w.asteroids)),
		Bullets:            make([]network.BulletView, 0, len(w.bullets)),
		PowerUps:           make([]network.PowerUpView, 0, len(w.powerUps)),
	}
	if w.countdownActive {
		st.WavePendingS = float32(w.waveCountdown)
	}

	for _, id := range w.sortedPlayerIDs() {
		st.Players = append(st.Players, playerView(w.players[id]))
	}
	for _, a := range w.asteroids {
		st.Asteroids = append(st.Asteroids, network.AsteroidView{
			ID:   a.ID,
			Size: int(a.Size),
			X:    a.Pos.X,
			Y:    a.Pos.Y,
			Rot:  a.Rot,
		})
	}
	for _, b := range w.bullets {
		st.Bullets = append(st.Bullets, network.BulletView{
			ID:      b.ID,
			OwnerID: b.OwnerID,
			X:       b.Pos.X,
			Y:       b.Pos.Y,
		})
	}
	for _, pu := range w.powerUps {
		st.PowerUps = append(st.PowerUps, network.PowerUpView{
			ID:   pu.ID,
			Kind: pu.Kind.Code(),
			X:    pu.Pos.X,
			Y:    pu.Pos.Y,
		})
	}

	st.Leaderboard = w.leaderboard()
	return st
}

func playerView(p *Player) network.PlayerView {
	v := network.PlayerView{
		ID:             p.ID,
		Name:           p.Name,
		X:              p.Pos.X,
		Y:              p.Pos.Y,
		Heading:        p.Heading,
		Alive:          p.Alive,
		Blinking:       p.Alive && p.InvincibleLeft > 0,
		Score:          p.Score,
		Combo:          p.Combo,
		KillStreak:     p.KillStreak,
		ActivePowerUps: []string{},
		RespawnS:       float32(p.RespawnLeft),
	}
	for kind := Shield; kind < numPowerUpKinds; kind++ {
		if p.Effects[kind] > 0 {
			v.ActivePowerUps = append(v.ActivePowerUps, kind.Code())
		}
	}
	if p.InvincibleLeft > 0 {
		v.ActivePowerUps = append(v.ActivePowerUps, "I")
	}
	return v
}

// leaderboard returns up to the top five scores, best first. Equal scores
// order by name so the board is stable between ticks.
func (w *World) leaderboard() []network.LeaderboardEntry {
	board := make([]network.LeaderboardEntry, 0, len(w.players))
	for _, id := range w.sortedPlayerIDs() {
		p := w.players[id]
		board = append(board, network.LeaderboardEntry{Name: p.Name, Score: p.Score})
	}
	sort.SliceStable(board, func(i, j int) bool {
		if board[i].Score != board[j].Score {
			return board[i].Score > board[j].Score
		}
		return board[i].Name < board[j].Name
	})
	if len(board) > 5 {
		board = board[:5]
	}
	return board
}
