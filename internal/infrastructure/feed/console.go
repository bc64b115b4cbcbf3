package feed

import (
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
)

// Console imprime cada evento numa linha colorida por nível.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	colors map[entity.EventLevel]*color.Color
}

func NewConsole(w io.Writer) *Console {
	return &Console{
		w: w,
		colors: map[entity.EventLevel]*color.Color{
			entity.EventInfo:    color.New(color.Reset),
			entity.EventSuccess: color.New(color.FgGreen),
			entity.EventWarning: color.New(color.FgYellow),
			entity.EventError:   color.New(color.FgRed),
			entity.EventAlert:   color.New(color.FgMagenta, color.Bold),
		},
	}
}

func (c *Console) Write(ev entity.RunEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, ok := c.colors[ev.Level]
	if !ok {
		col = c.colors[entity.EventInfo]
	}
	prefix := ""
	if ev.Taxpayer != "" {
		prefix = "[" + ev.Taxpayer + "] "
	}
	col.Fprintf(c.w, "[%s] %s%s\n", ev.Time.Format("15:04:05"), prefix, ev.Message)
}
