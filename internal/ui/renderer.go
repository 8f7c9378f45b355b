package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/bomberarena/internal/game"
)

// Color palette
var (
	background = lipgloss.Color("#1a1a2e")

	rigidStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#3a3a3a")).
			Foreground(lipgloss.Color("#555555"))

	woodStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B6914")).
			Foreground(lipgloss.Color("#A0772B"))

	passageStyle = lipgloss.NewStyle().
			Background(background).
			Foreground(background)

	bombStyle = lipgloss.NewStyle().
			Background(background).
			Foreground(lipgloss.Color("#ff4444")).
			Bold(true)

	flameStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#ff6600")).
			Foreground(lipgloss.Color("#ffcc00")).
			Bold(true)

	powerupStyle = lipgloss.NewStyle().
			Background(background).
			Foreground(lipgloss.Color("#44ddff")).
			Bold(true)

	// One color per spawn corner
	agentColors = []lipgloss.Color{
		lipgloss.Color("#00ff88"), // Green
		lipgloss.Color("#4488ff"), // Blue
		lipgloss.Color("#ff44ff"), // Magenta
		lipgloss.Color("#ffff44"), // Yellow
	}

	deadAgentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Strikethrough(true)

	// HUD styles
	hudBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff8844")).
			Bold(true)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff4444"))

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#44aaff")).
			Bold(true)

	winnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555"))
)

// Glyph returns the two-character label of an item. Each cell is 2 characters
// wide for a square-ish appearance.
func Glyph(it game.Item) string {
	switch {
	case it.IsAgent():
		return fmt.Sprintf("A%d", it.AgentID())
	case it == game.ItemRigid:
		return "██"
	case it == game.ItemWood:
		return "▒▒"
	case it == game.ItemBomb:
		return "()"
	case it == game.ItemFlame:
		return "░░"
	case it == game.ItemExtraBomb:
		return "+b"
	case it == game.ItemIncrRange:
		return "+r"
	case it == game.ItemKick:
		return "+k"
	}
	return "  "
}

func agentColor(id int) lipgloss.Color {
	return agentColors[id%len(agentColors)]
}

// RenderBoard converts the state into a styled terminal string.
func RenderBoard(s *game.State) string {
	if s == nil || s.Board.Size == 0 {
		return "Waiting for arena..."
	}

	rows := make([]string, 0, s.Board.Size)
	for y := 0; y < s.Board.Size; y++ {
		var b strings.Builder
		for x := 0; x < s.Board.Size; x++ {
			b.WriteString(renderCell(s, game.Position{X: x, Y: y}))
		}
		rows = append(rows, b.String())
	}
	return strings.Join(rows, "\n")
}

// renderCell renders a single board cell. An agent standing on its own bomb
// hides the bomb, the same as on the grid.
func renderCell(s *game.State, p game.Position) string {
	it := s.Board.At(p)
	switch {
	case it.IsAgent():
		return lipgloss.NewStyle().
			Background(background).
			Foreground(agentColor(it.AgentID())).
			Bold(true).
			Render(Glyph(it))
	case it == game.ItemFlame:
		return flameStyle.Render(Glyph(it))
	case it == game.ItemBomb:
		return bombStyle.Render(Glyph(it))
	case it == game.ItemRigid:
		return rigidStyle.Render(Glyph(it))
	case it == game.ItemWood:
		return woodStyle.Render(Glyph(it))
	case it.IsPowerup():
		return powerupStyle.Render(Glyph(it))
	}
	return passageStyle.Render(Glyph(it))
}

// Status returns the one-line status of the episode.
func Status(s *game.State, paused bool) string {
	switch {
	case s.Finished && s.IsDraw:
		return "DRAW: no agent survived"
	case s.Finished && s.WinningTeam != 0:
		return fmt.Sprintf("TEAM %d WINS", s.WinningTeam)
	case s.Finished && s.WinningAgent >= 0:
		return fmt.Sprintf("AGENT %d WINS", s.WinningAgent)
	case paused:
		return "PAUSED"
	}
	return "RUNNING"
}

// RenderHUD renders the side panel with agent stats and episode status.
func RenderHUD(s *game.State, episode int, paused bool) string {
	if s == nil {
		return ""
	}

	var parts []string
	parts = append(parts, titleStyle.Render("💣 BOMBER ARENA"))
	parts = append(parts, mutedStyle.Render(fmt.Sprintf("episode %d  seed %d  tick %d", episode, s.Config.Seed, s.Tick)))
	parts = append(parts, "")

	status := Status(s, paused)
	switch {
	case s.Finished && s.IsDraw:
		parts = append(parts, mutedStyle.Render("💀 "+status))
	case s.Finished:
		parts = append(parts, winnerStyle.Render("🏆 "+status))
	case paused:
		parts = append(parts, pausedStyle.Render("⏸  "+status))
	default:
		parts = append(parts, runningStyle.Render("🔥 "+status))
	}
	parts = append(parts, "")

	parts = append(parts, mutedStyle.Render(fmt.Sprintf("Agents (%d alive):", s.AliveAgents)))
	for i := range s.Agents {
		parts = append(parts, agentLine(i, &s.Agents[i]))
	}
	parts = append(parts, "")
	parts = append(parts, mutedStyle.Render(fmt.Sprintf("bombs %d  flames %d", len(s.Bombs), s.Flames.Len())))

	parts = append(parts, "")
	parts = append(parts, helpStyle.Render("Space: Pause | N: Step | R: Next seed | Q: Quit"))

	return hudBorderStyle.Render(strings.Join(parts, "\n"))
}

func agentLine(id int, a *game.Agent) string {
	nameStyle := lipgloss.NewStyle().Foreground(agentColor(id))
	status := "❤️ "
	if a.Dead {
		status = "💀"
		nameStyle = deadAgentStyle
	}
	name := fmt.Sprintf("agent %d", id)
	if a.Team != 0 {
		name += fmt.Sprintf(" (team %d)", a.Team)
	}
	kick := ""
	if a.CanKick {
		kick = " 👟"
	}
	won := ""
	if a.Won {
		won = " 🏆"
	}
	return fmt.Sprintf("%s %s [💣%d/%d 🔥%d%s]%s",
		status,
		nameStyle.Render(name),
		a.MaxBombs-a.BombCount,
		a.MaxBombs,
		a.Strength,
		kick,
		won,
	)
}
