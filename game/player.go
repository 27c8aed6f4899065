package game

import "sort"

type Player struct {
	ID        string
	Name      string
	Colour    int
	X, Y      float64
	HP        int
	Dead      bool
	Ready     bool
	InGame    bool
	JoinOrder uint64
}

func (p *Player) view() PlayerView {
	return PlayerView{
		X:      p.X,
		Y:      p.Y,
		Name:   p.Name,
		Colour: p.Colour,
		HP:     p.HP,
		Dead:   p.Dead,
	}
}

func (p *Player) position() Position {
	return Position{X: p.X, Y: p.Y, Name: p.Name, Colour: p.Colour}
}

// Registry holds one record per joined client. It performs no validation;
// callers own every rule about what may change.
type Registry struct {
	players  map[string]*Player
	nextJoin uint64
}

func NewRegistry() *Registry {
	return &Registry{players: make(map[string]*Player)}
}

// Create returns the record for id, creating it with the next join order
// if it does not exist yet. created reports whether a new record was made.
func (r *Registry) Create(id string) (p *Player, created bool) {
	if p, ok := r.players[id]; ok {
		return p, false
	}

	p = &Player{ID: id, JoinOrder: r.nextJoin}
	r.nextJoin++
	r.players[id] = p
	return p, true
}

func (r *Registry) Remove(id string) (*Player, bool) {
	p, ok := r.players[id]
	if ok {
		delete(r.players, id)
	}
	return p, ok
}

func (r *Registry) Get(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

func (r *Registry) Len() int {
	return len(r.players)
}

// All returns the players ordered by join order.
func (r *Registry) All() []*Player {
	all := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].JoinOrder < all[j].JoinOrder
	})
	return all
}
