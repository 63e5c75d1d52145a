package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/quadtask/internal/task"
)

const historyCapacity = 250

type TickMsg time.Time

type clock interface {
	Time() float64
}

type limited interface {
	Runtime() float64
}

// Model drives one task on a ticker with a constant, adjustable action.
type Model struct {
	tk        *task.Task
	action    float64
	frameRate int
	running   bool

	episode    int
	obs        []float64
	reward     float64
	ret        float64
	lastReturn float64
	done       bool
	altitude   []float64
}

func NewModel(tk *task.Task, action float64, frameRate int) Model {
	if frameRate <= 0 {
		frameRate = 30
	}
	m := Model{
		tk:        tk,
		action:    action,
		frameRate: frameRate,
		running:   true,
		altitude:  make([]float64, 0, historyCapacity),
	}
	m.reset()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "up", "k":
			m.action++
		case "down", "j":
			m.action--
		}
	case TickMsg:
		if m.running {
			if m.done {
				m.reset()
			} else {
				m.step()
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) reset() {
	if m.episode > 0 {
		m.lastReturn = m.ret
	}
	m.obs = m.tk.Reset()
	m.episode++
	m.reward = 0
	m.ret = 0
	m.done = false
	m.altitude = m.altitude[:0]
	m.record()
}

func (m *Model) step() {
	m.obs, m.reward, m.done = m.tk.Step(m.action)
	m.ret += m.reward
	m.record()
}

func (m *Model) record() {
	if len(m.altitude) == historyCapacity {
		copy(m.altitude, m.altitude[1:])
		m.altitude = m.altitude[:historyCapacity-1]
	}
	m.altitude = append(m.altitude, m.tk.Pose()[2])
}

func (m Model) status() string {
	switch {
	case m.done:
		return statusTerminated.Render("TERMINATED")
	case !m.running:
		return statusPaused.Render("PAUSED")
	default:
		return statusRunning.Render("RUNNING")
	}
}

func (m Model) row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("QUADCOPTER HOVER") + "\n")
	s.WriteString(m.status() + "\n\n")

	pose := m.tk.Pose()
	vel := m.tk.Velocity()
	target := m.tk.TargetPos()

	s.WriteString(m.row("Episode", fmt.Sprintf("%d", m.episode)))
	s.WriteString(m.row("Phase", m.tk.Phase().String()))
	s.WriteString(m.row("Step", fmt.Sprintf("%d", m.tk.Steps())))
	if c, ok := m.tk.Simulator().(clock); ok {
		line := fmt.Sprintf("%.2fs", c.Time())
		if l, ok := m.tk.Simulator().(limited); ok && l.Runtime() > 0 {
			line += " " + ProgressBar(c.Time()/l.Runtime(), 20)
		}
		s.WriteString(m.row("Time", line))
	}
	s.WriteString(m.row("Action", fmt.Sprintf("%.1f (%+.2f)", m.action, m.tk.NormalizeAction(m.action))))
	s.WriteString(m.row("Position", fmt.Sprintf("%.2f %.2f %.2f", pose[0], pose[1], pose[2])))
	s.WriteString(m.row("Target", fmt.Sprintf("%.2f %.2f %.2f", target[0], target[1], target[2])))
	s.WriteString(m.row("Climb", fmt.Sprintf("%+.3f", vel[2])))
	s.WriteString(m.row("Obs", formatObs(m.obs)))
	s.WriteString(m.row("Reward", fmt.Sprintf("%.4f ", m.reward)+RewardBar(m.reward, 3*math.Tanh(1), 16)))
	s.WriteString(m.row("Return", fmt.Sprintf("%.2f", m.ret)))
	if m.episode > 1 {
		s.WriteString(m.row("Last", fmt.Sprintf("%.2f", m.lastReturn)))
	}

	if len(m.altitude) > 1 {
		chart := asciigraph.Plot(m.altitude, asciigraph.Height(8), asciigraph.Width(50), asciigraph.Caption("altitude"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause R:Reset ↑↓:Action Q:Quit"))
	return lipgloss.JoinVertical(lipgloss.Left, panelStyle.Render(s.String()))
}

func formatObs(obs []float64) string {
	parts := make([]string, len(obs))
	for i, v := range obs {
		parts[i] = fmt.Sprintf("%+.4f", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Run opens the live view until the user quits.
func Run(tk *task.Task, action float64, frameRate int) error {
	_, err := tea.NewProgram(NewModel(tk, action, frameRate), tea.WithAltScreen()).Run()
	return err
}
