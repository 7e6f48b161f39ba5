// Package console is the interactive editing surface: a line-oriented REPL
// that edits the shared target store and starts or stops the scheduler loop.
//
// Entries are numbered from 1 as shown by "list". Malformed input is rejected
// with a message and never reaches the store.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"autolink/internal/eventbus"
	"autolink/internal/launcher"
	"autolink/internal/scheduler"
	"autolink/internal/target"
	logx "autolink/pkg/logx"
)

// Editor is the subset of *store.Store the console edits through.
type Editor interface {
	Snapshot() []target.Target
	Get(i int) (target.Target, error)
	Insert(t target.Target) int
	ReplaceAt(i int, t target.Target) error
	RemoveAt(i int) (target.Target, error)
}

// Loop is the subset of *scheduler.Loop the console controls.
type Loop interface {
	Start()
	Stop()
	Status() scheduler.Status
}

type Options struct {
	In    io.Reader
	Out   io.Writer
	Store Editor
	Loop  Loop
	Sink  launcher.Sink
	Bus   eventbus.Bus
	Log   logx.Logger
	// Now and Location drive "next" times. Defaults: time.Now and time.Local.
	Now      func() time.Time
	Location *time.Location
	// Prompt is printed before each line when non-empty.
	Prompt string
	Color  bool
}

type Console struct {
	in    io.Reader
	store Editor
	loop  Loop
	sink  launcher.Sink
	bus   eventbus.Bus
	log   logx.Logger
	now   func() time.Time
	loc   *time.Location

	prompt string

	outMu sync.Mutex
	out   io.Writer

	ok, warn, event *color.Color
}

func New(o Options) *Console {
	c := &Console{
		in:     o.In,
		out:    o.Out,
		store:  o.Store,
		loop:   o.Loop,
		sink:   o.Sink,
		bus:    o.Bus,
		log:    o.Log,
		now:    o.Now,
		loc:    o.Location,
		prompt: o.Prompt,
		ok:     color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
		event:  color.New(color.FgCyan, color.Bold),
	}
	if c.out == nil {
		c.out = io.Discard
	}
	if c.bus == nil {
		c.bus = eventbus.Nop{}
	}
	if c.log.IsZero() {
		c.log = logx.Nop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if !o.Color {
		c.ok.DisableColor()
		c.warn.DisableColor()
		c.event.DisableColor()
	}
	return c
}

// Run reads commands until "quit", end of input, or ctx is done. It returns
// nil in all three cases and the read error otherwise.
func (c *Console) Run(ctx context.Context) error {
	if c.in == nil {
		return errors.New("console: no input")
	}
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	c.printf("autolink: type \"help\" for commands\n")
	c.showPrompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-lines:
			if !c.Exec(line) {
				return nil
			}
			c.showPrompt()
		case err := <-readErr:
			return err
		}
	}
}

// Events prints scheduler activity from the bus until ctx is done.
func (c *Console) Events(ctx context.Context) {
	ch, unsubscribe := c.bus.Subscribe(32)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			c.printEvent(e)
		}
	}
}

func (c *Console) printEvent(e eventbus.Event) {
	switch d := e.Data.(type) {
	case scheduler.Activation:
		c.colorf(c.event, "[%s] launched %s (%s)\n", d.At.In(c.loc).Format("Mon 15:04"), d.Name, d.URI)
	case scheduler.StateChange:
		if d.Resync {
			return
		}
		if d.Running {
			c.colorf(c.ok, "loop running (%d entries, %d times)\n", d.Targets, d.Triggers)
		} else {
			c.colorf(c.warn, "loop stopped\n")
		}
	default:
		if e.Type == eventbus.TypeTargetsReloaded {
			if n, ok := e.Data.(int); ok {
				c.printf("entries reloaded from disk (%d)\n", n)
			}
		}
	}
}

// Exec runs one command line. It returns false when the console should exit.
func (c *Console) Exec(line string) bool {
	args, err := splitArgs(line)
	if err != nil {
		c.colorf(c.warn, "%v\n", err)
		return true
	}
	return c.ExecArgs(args)
}

// ExecArgs runs one already split command.
func (c *Console) ExecArgs(args []string) bool {
	if len(args) == 0 {
		return true
	}
	cmd, rest := strings.ToLower(args[0]), args[1:]
	c.log.Debug("console command", logx.String("cmd", cmd), logx.Int("args", len(rest)))

	switch cmd {
	case "list", "ls":
		c.cmdList()
	case "add":
		c.cmdAdd(rest)
	case "edit":
		c.cmdEdit(rest)
	case "remove", "rm":
		c.cmdRemove(rest)
	case "launch":
		c.cmdLaunch(rest)
	case "start":
		c.cmdStart()
	case "stop":
		c.loop.Stop()
		c.printf("stopping loop\n")
	case "status":
		c.cmdStatus()
	case "help", "?":
		c.printf("%s", helpText)
	case "quit", "exit", "q":
		return false
	default:
		c.colorf(c.warn, "unknown command %q; try help\n", cmd)
	}
	return true
}

const helpText = `commands:
  list                                   show entries
  add <name> <uri> [<day> <HH:MM>]       add an entry
  edit <n> [name=..] [uri=..] [+time="<day> <HH:MM>"] [-time=<k>]
                                         change entry n; -time removes its k-th time
  remove <n>                             remove entry n
  launch <n>                             open entry n now
  start | stop                           start or stop the automatic loop
  status                                 show loop status
  quit                                   leave
`

func (c *Console) cmdList() {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	WriteList(c.out, c.store.Snapshot(), c.now().In(c.loc))
}

func (c *Console) cmdAdd(args []string) {
	if len(args) != 2 && len(args) != 4 {
		c.colorf(c.warn, "usage: add <name> <uri> [<day> <HH:MM>]\n")
		return
	}
	t := target.Target{Name: strings.TrimSpace(args[0]), URI: strings.TrimSpace(args[1])}
	if len(args) == 4 {
		tr, err := target.ParseTrigger(args[2] + " " + args[3])
		if err != nil {
			c.colorf(c.warn, "%v\n", err)
			return
		}
		t.Triggers = []target.Trigger{tr}
	}
	if err := t.Validate(); err != nil {
		c.colorf(c.warn, "both name and link must be entered: %v\n", err)
		return
	}
	n := c.store.Insert(t)
	c.colorf(c.ok, "entry %s has been added as #%d\n", t.Name, n+1)
}

func (c *Console) cmdEdit(args []string) {
	if len(args) < 2 {
		c.colorf(c.warn, "usage: edit <n> [name=..] [uri=..] [+time=\"<day> <HH:MM>\"] [-time=<k>]\n")
		return
	}
	i, ok := c.index(args[0])
	if !ok {
		return
	}
	t, err := c.store.Get(i)
	if err != nil {
		c.colorf(c.warn, "no entry %s\n", args[0])
		return
	}

	var (
		adds    []target.Trigger
		removes []int
	)
	for _, a := range args[1:] {
		key, val, found := strings.Cut(a, "=")
		if !found {
			c.colorf(c.warn, "expected key=value, got %q\n", a)
			return
		}
		switch strings.ToLower(key) {
		case "name":
			t.Name = strings.TrimSpace(val)
		case "uri", "link":
			t.URI = strings.TrimSpace(val)
		case "+time":
			tr, err := target.ParseTrigger(val)
			if err != nil {
				c.colorf(c.warn, "%v\n", err)
				return
			}
			adds = append(adds, tr)
		case "-time":
			k, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil || k < 1 || k > len(t.Triggers) {
				c.colorf(c.warn, "entry %d has no time %q\n", i+1, val)
				return
			}
			removes = append(removes, k-1)
		default:
			c.colorf(c.warn, "unknown field %q\n", key)
			return
		}
	}

	// Removals refer to the times as listed, so apply them before additions.
	sort.Sort(sort.Reverse(sort.IntSlice(removes)))
	last := -1
	for _, k := range removes {
		if k == last {
			continue
		}
		t.Triggers = append(t.Triggers[:k], t.Triggers[k+1:]...)
		last = k
	}
	t.Triggers = append(t.Triggers, adds...)

	if err := t.Validate(); err != nil {
		c.colorf(c.warn, "both name and link must be entered: %v\n", err)
		return
	}
	if err := c.store.ReplaceAt(i, t); err != nil {
		c.colorf(c.warn, "%v\n", err)
		return
	}
	c.colorf(c.ok, "entry %s has been edited\n", t.Name)
}

func (c *Console) cmdRemove(args []string) {
	if len(args) != 1 {
		c.colorf(c.warn, "usage: remove <n>\n")
		return
	}
	i, ok := c.index(args[0])
	if !ok {
		return
	}
	t, err := c.store.RemoveAt(i)
	if err != nil {
		c.colorf(c.warn, "no entry %s\n", args[0])
		return
	}
	c.colorf(c.ok, "entry %s has been removed\n", t.Name)
}

func (c *Console) cmdLaunch(args []string) {
	if len(args) != 1 {
		c.colorf(c.warn, "usage: launch <n>\n")
		return
	}
	i, ok := c.index(args[0])
	if !ok {
		return
	}
	t, err := c.store.Get(i)
	if err != nil {
		c.colorf(c.warn, "no entry %s\n", args[0])
		return
	}
	if l, ok := c.sink.(launcher.Launcher); ok {
		l.Launch(t.URI)
	} else {
		c.sink.Activate(t.URI)
	}
	c.colorf(c.ok, "launched %s\n", t.Name)
}

func (c *Console) cmdStart() {
	if len(c.store.Snapshot()) == 0 {
		c.colorf(c.warn, "first of all, add some entries\n")
		return
	}
	c.loop.Start()
	c.printf("starting loop\n")
}

func (c *Console) cmdStatus() {
	st := c.loop.Status()
	now := c.now().In(c.loc)
	state := "stopped"
	if st.Running {
		state = "running"
	}
	c.printf("loop:        %s\n", state)
	c.printf("entries:     %d (%d of %d times left this cycle)\n", st.Targets, st.WorkingTriggers, st.FullTriggers)
	c.printf("activations: %d\n", st.Activations)
	if st.Last != nil {
		c.printf("last:        %s at %s\n", st.Last.Name, formatWhen(st.Last.At.In(c.loc), now))
	}
	if ups := target.Plan(c.store.Snapshot(), now, 7*24*time.Hour); len(ups) > 0 {
		c.printf("next:        %s at %s\n", ups[0].Name, formatWhen(ups[0].At, now))
	}
}

// index parses a 1-based entry number.
func (c *Console) index(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || n < 1 {
		c.colorf(c.warn, "invalid entry number %q\n", s)
		return 0, false
	}
	return n - 1, true
}

func (c *Console) showPrompt() {
	if c.prompt != "" {
		c.printf("%s", c.prompt)
	}
}

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) colorf(col *color.Color, format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	_, _ = col.Fprintf(c.out, format, args...)
}
