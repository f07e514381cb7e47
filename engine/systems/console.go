package systems

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spaghettifunk/anima/engine/containers"
)

type ConsoleEntry struct {
	Line string
	// Empty when the line ran successfully.
	Error string
	At    time.Time
}

// Console runs single command lines against the script system and keeps a
// bounded history of what was entered.
type Console struct {
	scripts *ScriptSystem

	mutex   sync.Mutex
	history *containers.RingQueue[ConsoleEntry]
}

func NewConsole(scripts *ScriptSystem, historySize int) *Console {
	return &Console{
		scripts: scripts,
		history: containers.NewRingQueue[ConsoleEntry](historySize),
	}
}

// Execute runs one line. Blank lines are ignored and not recorded.
func (c *Console) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	err := c.scripts.ExecuteSource("console", line)

	entry := ConsoleEntry{Line: line, At: time.Now()}
	if err != nil {
		entry.Error = err.Error()
	}
	c.mutex.Lock()
	c.history.Push(entry)
	c.mutex.Unlock()
	return err
}

// History returns the recorded lines, oldest first.
func (c *Console) History() []ConsoleEntry {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.history.Items()
}

// Serve executes every line read from r until EOF. Failing lines are logged
// by the script system and do not stop the loop.
func (c *Console) Serve(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		_ = c.Execute(scanner.Text())
	}
	return scanner.Err()
}
