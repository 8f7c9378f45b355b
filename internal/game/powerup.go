package game

// ApplyPowerup applies the effect of a collected item. Kick is a capability,
// so collecting it again changes nothing.
func (a *Agent) ApplyPowerup(it Item) {
	switch it {
	case ItemExtraBomb:
		a.MaxBombs++
	case ItemIncrRange:
		a.Strength++
	case ItemKick:
		a.CanKick = true
	}
}

// ConsumePowerup applies it to agent id.
func (s *State) ConsumePowerup(id int, it Item) {
	s.Agents[id].ApplyPowerup(it)
}

// applyPickups hands out the powerups collected this tick to agents that are
// still standing on the cell after movement settled.
func (s *State) applyPickups() {
	for _, p := range s.scratch.pickups {
		a := &s.Agents[p.agent]
		if a.Dead || a.Pos != p.pos {
			continue
		}
		a.ApplyPowerup(p.item)
	}
	s.scratch.pickups = s.scratch.pickups[:0]
}
