// Package inspector is a read-only terminal panel over a running
// engine.Swimmer: registers, path constraints, heap buffers, and stack
// frames, refreshed on demand. It deliberately has no command language of
// its own — the hook and instruction-injection mechanisms already give an
// embedder scriptable control over exploration, so a second, parallel
// command interpreter here would just duplicate them. This package is a
// viewer to embed, not a program to run on its own.
package inspector

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/koi-go/koi/cpu"
	"github.com/koi-go/koi/engine"
)

// Inspector is a tview layout bound to a single Swimmer. Call Refresh
// after each step (or batch of steps) the embedder drives to repaint the
// panels' text; Run shows the layout in an interactive tview application.
type Inspector struct {
	swimmer *engine.Swimmer

	App    *tview.Application
	Layout *tview.Flex

	RegisterView    *tview.TextView
	ConstraintView  *tview.TextView
	HeapView        *tview.TextView
	StackframeView  *tview.TextView
	StatsView       *tview.TextView
}

// New builds an Inspector over s. The layout is constructed but not yet
// populated — call Refresh to paint it with s's current state.
func New(s *engine.Swimmer) *Inspector {
	in := &Inspector{swimmer: s}
	in.initViews()
	in.buildLayout()
	return in
}

func (in *Inspector) initViews() {
	in.RegisterView = tview.NewTextView().SetDynamicColors(true).SetScrollable(false)
	in.RegisterView.SetBorder(true).SetTitle(" Registers ")

	in.ConstraintView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	in.ConstraintView.SetBorder(true).SetTitle(" Path Constraints ")

	in.HeapView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	in.HeapView.SetBorder(true).SetTitle(" Heap ")

	in.StackframeView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	in.StackframeView.SetBorder(true).SetTitle(" Stack Frames ")

	in.StatsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(false)
	in.StatsView.SetBorder(true).SetTitle(" Stats ")
}

func (in *Inspector) buildLayout() {
	top := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(in.RegisterView, 0, 1, false).
		AddItem(in.StatsView, 0, 1, false)

	bottom := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(in.ConstraintView, 0, 1, false).
		AddItem(in.HeapView, 0, 1, false).
		AddItem(in.StackframeView, 0, 1, false)

	in.Layout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 9, 0, false).
		AddItem(bottom, 0, 1, false)
}

// Refresh repaints every panel from the Swimmer's current state.
func (in *Inspector) Refresh() {
	in.paintRegisters()
	in.paintConstraints()
	in.paintHeap()
	in.paintStackframes()
	in.paintStats()
}

func (in *Inspector) paintRegisters() {
	var b strings.Builder
	for _, r := range cpu.GPRegisters {
		val := in.swimmer.CPU.GetConcreteRegisterValue(r)
		if in.swimmer.CPU.IsRegisterSymbolized(r) {
			fmt.Fprintf(&b, "[yellow]%-4s[white] = 0x%016x (symbolic)\n", r, val)
		} else {
			fmt.Fprintf(&b, "%-4s = 0x%016x\n", r, val)
		}
	}
	in.RegisterView.SetText(b.String())
}

func (in *Inspector) paintConstraints() {
	var b strings.Builder
	for i, c := range in.swimmer.Constraints {
		fmt.Fprintf(&b, "[%3d] %s\n", i, spew.Sdump(c))
	}
	if len(in.swimmer.Constraints) == 0 {
		b.WriteString("(none)\n")
	}
	in.ConstraintView.SetText(b.String())
}

func (in *Inspector) paintHeap() {
	var b strings.Builder
	for _, buf := range in.swimmer.Heap.Buffers() {
		fmt.Fprintf(&b, "%-24s 0x%08x +0x%-6x %s\n", buf.Alias, buf.Addr(), buf.Size(), buf.State)
	}
	if len(in.swimmer.Heap.Buffers()) == 0 {
		b.WriteString("(empty)\n")
	}
	in.HeapView.SetText(b.String())
}

func (in *Inspector) paintStackframes() {
	var b strings.Builder
	for i, f := range in.swimmer.Frames {
		fmt.Fprintf(&b, "#%-3d 0x%08x +0x%-6x\n", i, f.Addr(), f.Size())
	}
	in.StackframeView.SetText(b.String())
}

func (in *Inspector) paintStats() {
	st := in.swimmer.Stats
	in.StatsView.SetText(fmt.Sprintf(
		"instructions %d\nforks        %d\nfunc hooks   %d\ninsn hooks   %d\ndead ends    %d\ninjections   %d\n",
		st.Instructions, st.Forks, st.FuncHooks, st.InsnHooks, st.DeadEnds, st.Injections))
}

// Run starts the interactive tview application with this Inspector's
// layout as its root, blocking until Stop is called or Ctrl-C is pressed
// (Run creates App itself and installs that Ctrl-C binding).
// It does not drive exploration itself — call Refresh from whatever loop
// (goroutine or hook) is actually stepping the Swimmer, then
// App.QueueUpdateDraw to repaint safely from that other goroutine.
func (in *Inspector) Run() error {
	in.App = tview.NewApplication()
	in.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			in.App.Stop()
			return nil
		}
		return event
	})
	return in.App.SetRoot(in.Layout, true).Run()
}

// Stop tears down the running application, if Run was called.
func (in *Inspector) Stop() {
	if in.App != nil {
		in.App.Stop()
	}
}
