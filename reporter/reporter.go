// Package reporter renders test progress and the final results table.
package reporter

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/suiterun/suiterun/types"
)

// ResultSource is the slice of the engine the reporter consumes.
type ResultSource interface {
	Subscribe(fn func(*types.TestResult))
	Stats() types.Stats
}

// Options contains display flags
type Options struct {
	Color        bool
	ShowPath     bool
	ShowPlatform bool
	Out          io.Writer
}

// Console prints one line per completed test and a summary table at the end
// of the run. Output is a single shared sink: Pause suspends printing and
// buffers lines, Resume flushes them. Pause/Resume calls nest.
type Console struct {
	log    log.Logger
	out    io.Writer
	opts   Options
	source ResultSource
	start  time.Time

	mu     sync.Mutex
	paused int
	buffer []string
	suites []*suiteRow
	byName map[string]*suiteRow
}

type suiteRow struct {
	name     string
	path     string
	platform types.Platform
	stats    types.Stats
	duration time.Duration
}

// New creates a console reporter subscribed to the engine's results.
func New(source ResultSource, logger log.Logger, opts Options) *Console {
	if logger == nil {
		logger = log.New()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	c := &Console{
		log:    logger.New("component", "reporter"),
		out:    opts.Out,
		opts:   opts,
		source: source,
		start:  time.Now(),
		byName: make(map[string]*suiteRow),
	}
	source.Subscribe(c.onResult)
	return c
}

// Pause suspends output. Every Pause must be balanced by a Resume.
func (c *Console) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused++
}

// Resume re-enables output once the outermost pause ends, flushing
// everything buffered in between.
func (c *Console) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused == 0 {
		c.log.Warn("Resume called on a reporter that is not paused")
		return
	}
	c.paused--
	if c.paused > 0 {
		return
	}
	for _, line := range c.buffer {
		fmt.Fprintln(c.out, line)
	}
	c.buffer = nil
}

func (c *Console) onResult(res *types.TestResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row, ok := c.byName[res.Suite]
	if !ok {
		row = &suiteRow{name: res.Suite, path: res.Path, platform: res.Platform}
		c.byName[res.Suite] = row
		c.suites = append(c.suites, row)
	}
	row.stats.Record(res.Status)
	row.duration += res.Duration

	c.printLocked(c.formatLine(res))
}

func (c *Console) printLocked(line string) {
	if c.paused > 0 {
		c.buffer = append(c.buffer, line)
		return
	}
	fmt.Fprintln(c.out, line)
}

func (c *Console) formatLine(res *types.TestResult) string {
	name := res.Name
	if c.opts.ShowPlatform && res.Platform != "" {
		name = fmt.Sprintf("[%s] %s", res.Platform, name)
	}
	if c.opts.ShowPath && res.Path != "" {
		name = fmt.Sprintf("%s (%s)", name, res.Path)
	}
	line := fmt.Sprintf("%s %s: %s", c.statusMark(res.Status), res.Suite, name)
	if res.Status == types.TestStatusFail && res.Error != nil {
		line += fmt.Sprintf("\n    %v", res.Error)
	}
	return line
}

func (c *Console) statusMark(status types.TestStatus) string {
	mark, color := "✗", text.FgRed
	switch status {
	case types.TestStatusPass:
		mark, color = "✓", text.FgGreen
	case types.TestStatusSkip:
		mark, color = "-", text.FgYellow
	}
	if !c.opts.Color {
		return mark
	}
	return color.Sprint(mark)
}

// Summary renders the final per-suite results table.
func (c *Console) Summary() {
	c.mu.Lock()
	suites := make([]*suiteRow, len(c.suites))
	copy(suites, c.suites)
	c.mu.Unlock()

	total := c.source.Stats()

	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.SetTitle(fmt.Sprintf("Test Results (%.1fs)", time.Since(c.start).Seconds()))
	t.AppendHeader(table.Row{"Suite", "Platform", "Duration", "Passed", "Failed", "Skipped", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Suite", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
	})

	for _, row := range suites {
		t.AppendRow(table.Row{
			row.name,
			row.platform,
			fmt.Sprintf("%.1fs", row.duration.Seconds()),
			row.stats.Passed,
			row.stats.Failed,
			row.stats.Skipped,
			suiteStatus(row.stats),
		})
	}
	t.AppendFooter(table.Row{
		"TOTAL", "", "",
		total.Passed,
		total.Failed,
		total.Skipped,
		suiteStatus(total),
	})

	if c.opts.Color {
		switch {
		case total.Failed > 0:
			t.SetStyle(table.StyleColoredBlackOnRedWhite)
		case total.Passed == 0:
			t.SetStyle(table.StyleColoredBlackOnYellowWhite)
		default:
			t.SetStyle(table.StyleColoredBlackOnGreenWhite)
		}
	}
	t.Render()
}

func suiteStatus(stats types.Stats) string {
	switch {
	case stats.Failed > 0:
		return "✗ fail"
	case stats.Passed == 0 && stats.Skipped > 0:
		return "- skip"
	default:
		return "✓ pass"
	}
}
