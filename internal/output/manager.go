package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tuxkal/drainpipe/internal/utils"
)

// TransferOutput is the display state of one transfer job.
type TransferOutput struct {
	ID          int
	Label       string
	Status      string
	Message     string
	Progress    string
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
}

type ErrorReport struct {
	Label string
	Error error
	Time  time.Time
}

// Manager renders the live status of all registered transfers on a ticker,
// redrawing in place. All mutation is mutex-guarded; jobs report through
// the setter methods from worker goroutines.
type Manager struct {
	mu          sync.RWMutex
	out         io.Writer
	outputs     map[int]*TransferOutput
	order       []int
	count       int
	numLines    int
	errors      []ErrorReport
	doneCh      chan struct{}
	displayTick time.Duration
	displayWg   sync.WaitGroup
}

func NewManager(out io.Writer) *Manager {
	return &Manager{
		out:         out,
		outputs:     make(map[int]*TransferOutput),
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
	}
}

func (m *Manager) Register(label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	m.outputs[m.count] = &TransferOutput{
		ID:          m.count,
		Label:       label,
		Status:      "pending",
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
	}
	m.order = append(m.order, m.count)
	return m.count
}

func (m *Manager) SetStatus(id int, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Status = status
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) SetMessage(id int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Message = message
		info.LastUpdated = time.Now()
	}
}

// SetProgress records a rendered progress line for the job. A total of zero
// renders byte count only (indeterminate length).
func (m *Manager) SetProgress(id int, current, total int64, elapsed float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, exists := m.outputs[id]
	if !exists {
		return
	}
	if total > 0 {
		info.Progress = fmt.Sprintf("%s %s/%s %s %s",
			ProgressBar(current, total, 30),
			utils.FormatBytes(uint64(current)), utils.FormatBytes(uint64(total)),
			StyleSymbols["bullet"], utils.FormatSpeed(current, elapsed))
	} else {
		info.Progress = debugStyle.Render(fmt.Sprintf("%s %s %s %s",
			StyleSymbols["pending"], utils.FormatBytes(uint64(current)),
			StyleSymbols["bullet"], utils.FormatSpeed(current, elapsed)))
	}
	info.LastUpdated = time.Now()
}

func (m *Manager) Complete(id int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if info, exists := m.outputs[id]; exists {
		if message == "" {
			message = fmt.Sprintf("Completed %s", info.Label)
		}
		info.Message = message
		info.Progress = ""
		info.Complete = true
		info.Status = "success"
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Complete = true
		info.Status = "error"
		info.Error = err
		info.Progress = ""
		info.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{Label: info.Label, Error: err, Time: time.Now()})
	}
}

func (m *Manager) Errors() []ErrorReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ErrorReport{}, m.errors...)
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.render()
			case <-m.doneCh:
				m.render()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
	m.printErrors()
}

func (m *Manager) render() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.numLines > 0 {
		fmt.Fprintf(m.out, "\033[%dA\033[J", m.numLines)
	}
	lines := 0
	for _, id := range m.order {
		info := m.outputs[id]
		symbol := StyleSymbols["pending"]
		style := pendingStyle
		switch info.Status {
		case "success":
			symbol, style = StyleSymbols["pass"], successStyle
		case "error":
			symbol, style = StyleSymbols["fail"], errorStyle
		}
		msg := info.Message
		if msg == "" {
			msg = info.Label
		}
		// Truncate on runes so multibyte symbols are never cut mid-sequence.
		if width := getTerminalWidth(); width > 4 {
			if runes := []rune(msg); len(runes) > width-4 {
				msg = string(runes[:width-4]) + "…"
			}
		}
		fmt.Fprintf(m.out, "%s %s\n", style.Render(symbol), msg)
		lines++
		if info.Progress != "" && !info.Complete {
			fmt.Fprintf(m.out, "    %s\n", info.Progress)
			lines++
		}
	}
	m.numLines = lines
}

func (m *Manager) printErrors() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, report := range m.errors {
		fmt.Fprintf(m.out, "%s %s: %v\n", errorStyle.Render(StyleSymbols["fail"]), report.Label, report.Error)
	}
}
