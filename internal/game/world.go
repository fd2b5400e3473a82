package game

import (
	"math"
	"math/rand"
	"sort"
)

// World owns every entity in the arena. It is not safe for concurrent use;
// a single driver goroutine constructs it, calls Step once per tick and
// reads snapshots between steps.
type World struct {
	W, H float64

	Tick uint64
	Wave uint32

	// waveCountdown runs only while countdownActive; the next wave spawns
	// when it reaches zero.
	waveCountdown   float64
	countdownActive bool

	players   map[uint64]*Player
	asteroids []*Asteroid
	bullets   []*Bullet
	powerUps  []*PowerUp

	nextID uint64
	rng    *rand.Rand
}

// NewWorld creates an arena of the given size and spawns the first wave.
// The seed fixes every random decision the simulation will ever make.
func NewWorld(w, h float64, seed int64) *World {
	world := &World{
		W:       w,
		H:       h,
		Wave:    1,
		players: make(map[uint64]*Player),
		nextID:  1,
		rng:     rand.New(rand.NewSource(seed)),
	}
	world.spawnWave(waveSize(1))
	return world
}

// allocID hands out dense monotonically increasing entity ids.
func (w *World) allocID() uint64 {
	id := w.nextID
	w.nextID++
	return id
}

// AddPlayer creates a player at a safe spawn and returns it. Called from
// the simulation goroutine only, during the drain phase.
func (w *World) AddPlayer(name string) *Player {
	p := &Player{
		ID:             w.allocID(),
		Name:           name,
		Pos:            w.safeSpawnPos(0),
		Heading:        w.rng.Float64() * 2 * math.Pi,
		Alive:          true,
		InvincibleLeft: SpawnInvincibility,
		Combo:          1,
		Effects:        make(map[PowerUpKind]float64),
	}
	w.players[p.ID] = p
	return p
}

// RemovePlayer drops the player from the world. Bullets already in flight
// keep their owner id.
func (w *World) RemovePlayer(id uint64) {
	delete(w.players, id)
}

// Player returns the player with the given id, or nil.
func (w *World) Player(id uint64) *Player {
	return w.players[id]
}

// PlayerCount returns the number of players currently in the world.
func (w *World) PlayerCount() int {
	return len(w.players)
}

// AsteroidCount returns the number of asteroids currently alive.
func (w *World) AsteroidCount() int {
	return len(w.asteroids)
}

// sortedPlayerIDs returns all player ids in ascending order. Map iteration
// order is not deterministic, so every per-player pass goes through this.
func (w *World) sortedPlayerIDs() []uint64 {
	ids := make([]uint64, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// waveSize returns the number of large asteroids spawned for a wave.
func waveSize(wave uint32) int {
	n := BaseWaveAsteroids + AsteroidsPerWave*(int(wave)-1)
	if n > MaxWaveAsteroids {
		n = MaxWaveAsteroids
	}
	return n
}
