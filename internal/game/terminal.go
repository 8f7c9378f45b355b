package game

// winningTeam returns the team every alive agent belongs to, or 0 when the
// alive agents are split across teams or any of them is teamless.
func (s *State) winningTeam() int {
	if s.AliveAgents == 0 {
		return 0
	}
	candidate := 0
	for i := range s.Agents {
		a := &s.Agents[i]
		if a.Dead {
			continue
		}
		if a.Team == 0 {
			return 0
		}
		if candidate == 0 {
			candidate = a.Team
		} else if candidate != a.Team {
			return 0
		}
	}
	return candidate
}

// CheckTerminalState decides whether the episode is over from agent liveness
// and teams. When a team wins, every member is marked as a winner, including
// members that are already dead.
func (s *State) CheckTerminalState() {
	team := 0
	switch s.AliveAgents {
	case 0:
		s.Finished = true
		s.IsDraw = true
		for i := range s.Agents {
			s.Agents[i].Won = false
		}
	case 1:
		s.Finished = true
		s.IsDraw = false
		for i := range s.Agents {
			a := &s.Agents[i]
			a.Won = !a.Dead
			if !a.Dead {
				team = a.Team
				if team == 0 {
					s.WinningAgent = i
				}
			}
		}
	default:
		team = s.winningTeam()
	}

	if team != 0 {
		s.Finished = true
		s.IsDraw = false
		for i := range s.Agents {
			s.Agents[i].Won = s.Agents[i].Team == team
		}
	}
	s.WinningTeam = team
}
