// Package debug implements the optional three-pane gocui monitor and
// its line-oriented command set, adapted from the teacher's main.go
// layout/startPdp/updateRegisters functions and its console package.
// It is a pure front end: every command it accepts maps onto a Step
// or a read of already-public Machine/CPU state, so running under the
// monitor never changes guest-visible behavior versus running headless.
package debug

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jroimartin/gocui"

	"vm32/system"
)

// Monitor drives a Machine under an interactive gocui UI: a console
// output pane, a live register dump, and a command line accepting
// c(ontinue), s(tep), q(uit), i(nfo), x HEX (examine) and h(elp).
type Monitor struct {
	machine *system.Machine
	g       *gocui.Gui
	running bool
}

// New returns a Monitor over m. Call Run to start the UI.
func New(m *system.Machine) *Monitor {
	return &Monitor{machine: m}
}

// Run creates the gocui UI and blocks until the user quits (Ctrl+C or
// the q command); the UI stays up after the guest halts.
func (mon *Monitor) Run() error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	mon.g = g
	defer g.Close()

	g.SetManagerFunc(mon.layout)

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, mon.quit); err != nil {
		return err
	}
	if err := g.SetKeybinding("cmd", gocui.KeyEnter, gocui.ModNone, mon.runCommand); err != nil {
		return err
	}

	go mon.updateRegisters()

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

func (mon *Monitor) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	if v, err := g.SetView("console", 0, 0, maxX-31, maxY-4); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "console"
		v.Autoscroll = true
		// Redirect guest BOUT output into the pane instead of raw
		// stdout, which gocui has already taken over for drawing.
		mon.machine.Console.Out = v
	}
	if v, err := g.SetView("registers", maxX-30, 0, maxX-1, maxY-4); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "registers"
	}
	if v, err := g.SetView("cmd", 0, maxY-3, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "cmd: c/s/q/i/x HEX/h"
		v.Editable = true
		if _, err := g.SetCurrentView("cmd"); err != nil {
			return err
		}
	}
	return nil
}

// updateRegisters refreshes the register pane once a tick, the same
// cadence the teacher's original status ticker used.
func (mon *Monitor) updateRegisters() {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		mon.g.Update(func(g *gocui.Gui) error {
			v, err := g.View("registers")
			if err != nil {
				return err
			}
			v.Clear()
			mon.printRegisters(v)
			return nil
		})
		if mon.machine.CPU.Halted() {
			return
		}
	}
}

func (mon *Monitor) quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

// runCommand parses and executes one line typed into the cmd view,
// per spec.md's debugger command set.
func (mon *Monitor) runCommand(g *gocui.Gui, v *gocui.View) error {
	line := strings.TrimSpace(v.Buffer())
	v.Clear()
	v.SetCursor(0, 0)
	v.SetOrigin(0, 0)

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	console, err := g.View("console")
	if err != nil {
		return err
	}

	switch fields[0] {
	case "c":
		mon.running = true
		go mon.continueRun(console)
	case "s":
		mon.machine.CPU.Step()
		mon.printRegisters(console)
	case "q":
		return gocui.ErrQuit
	case "i":
		mon.printRegisters(console)
	case "x":
		if len(fields) < 2 {
			fmt.Fprintln(console, "x needs a hex address")
			break
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 32)
		if err != nil {
			fmt.Fprintf(console, "bad address %q\n", fields[1])
			break
		}
		off, _, _, ok := mon.machine.MMU.ResolveRead(mon.machine.CPU.User, uint32(addr))
		if !ok {
			fmt.Fprintf(console, "address %#x not mapped\n", addr)
			break
		}
		fmt.Fprintf(console, "%#08x: %#02x\n", addr, mon.machine.MMU.Memory[off])
	case "h":
		fmt.Fprintln(console, "c continue, s step, q quit, i registers, x HEX examine, h help")
	default:
		fmt.Fprintf(console, "unknown command %q (h for help)\n", fields[0])
	}
	return nil
}

func (mon *Monitor) continueRun(console *gocui.View) {
	for mon.running && !mon.machine.CPU.Halted() {
		mon.machine.CPU.Step()
	}
	mon.g.Update(func(g *gocui.Gui) error {
		fmt.Fprintln(console, "halted")
		return nil
	})
}

func (mon *Monitor) printRegisters(console *gocui.View) {
	c := mon.machine.CPU
	fmt.Fprintf(console,
		"a=%#08x b=%#08x c=%#08x f=%g g=%g pc=%#08x sp=%#08x user=%v iena=%v trap=%s vmem=%v ipend=%d\n",
		c.A, c.B, c.C, c.F, c.G, c.PC, c.SP, c.User, c.IEna, c.Trap, mon.machine.MMU.VMem, c.IPend,
	)
}
