// Package presence tracks the live roster of a room: who is connected,
// where they are standing and what they are doing. Pure CRUD; the room
// actor owns broadcasting.
package presence

// Record is one player's presence as broadcast to the room.
type Record struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Direction  string  `json:"direction"`
	CurrentMap string  `json:"currentMap"`
	Animation  string  `json:"animation"`
	GameType   string  `json:"gameType"`
	InTavern   bool    `json:"inTavern"`
}

// Update is a partial presence payload. Nil fields keep their previous
// value on merge and fall back to defaults on first introduction.
type Update struct {
	Name       *string  `json:"name"`
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Direction  *string  `json:"direction"`
	CurrentMap *string  `json:"currentMap"`
	Animation  *string  `json:"animation"`
	GameType   *string  `json:"gameType"`
	InTavern   *bool    `json:"inTavern"`
}

// Registry holds a room's presence records in join order.
type Registry struct {
	records map[string]*Record
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// Join inserts a record for id, defaulting any missing field. Joining
// twice overwrites the previous record in place.
func (r *Registry) Join(id string, u Update) *Record {
	rec := &Record{
		ID:         id,
		Name:       DefaultName(id),
		Direction:  "down",
		CurrentMap: "main",
		Animation:  "idle",
		GameType:   "game2d",
	}
	merge(rec, u)
	if _, ok := r.records[id]; !ok {
		r.order = append(r.order, id)
	}
	r.records[id] = rec
	return rec
}

// Update merges the partial payload onto an existing record. Unknown
// identities are a silent no-op.
func (r *Registry) Update(id string, u Update) (*Record, bool) {
	rec, ok := r.records[id]
	if !ok {
		return nil, false
	}
	merge(rec, u)
	return rec, true
}

// Get returns the record for id, if any.
func (r *Registry) Get(id string) (*Record, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

// Remove deletes the record for id, reporting whether it existed.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.records[id]; !ok {
		return false
	}
	delete(r.records, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns the roster in join order.
func (r *Registry) List() []*Record {
	out := make([]*Record, 0, len(r.records))
	for _, id := range r.order {
		out = append(out, r.records[id])
	}
	return out
}

// Len is the number of registered records.
func (r *Registry) Len() int { return len(r.records) }

// DefaultName derives a display name from a connection identity.
func DefaultName(id string) string {
	if len(id) > 4 {
		id = id[:4]
	}
	return "Player" + id
}

func merge(rec *Record, u Update) {
	if u.Name != nil {
		rec.Name = *u.Name
	}
	if u.X != nil {
		rec.X = *u.X
	}
	if u.Y != nil {
		rec.Y = *u.Y
	}
	if u.Direction != nil {
		rec.Direction = *u.Direction
	}
	if u.CurrentMap != nil {
		rec.CurrentMap = *u.CurrentMap
	}
	if u.Animation != nil {
		rec.Animation = *u.Animation
	}
	if u.GameType != nil {
		rec.GameType = *u.GameType
	}
	if u.InTavern != nil {
		rec.InTavern = *u.InTavern
	}
}
