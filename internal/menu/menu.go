package menu

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/lox/weightlog/internal/models"
)

// Tracker is the set of operations the menu dispatches to.
type Tracker interface {
	Record(ctx context.Context, value float64) (models.Observation, error)
	Show(ctx context.Context, w io.Writer) error
	Plot(ctx context.Context, w io.Writer) error
}

// action runs one menu entry. Returning exit ends the loop.
type action func(ctx context.Context) (exit bool, err error)

type item struct {
	key   string
	label string
	run   action
}

type Menu struct {
	tracker Tracker
	in      *bufio.Scanner
	out     io.Writer
	items   []item
}

func New(tracker Tracker, in io.Reader, out io.Writer) *Menu {
	m := &Menu{
		tracker: tracker,
		in:      bufio.NewScanner(in),
		out:     out,
	}
	m.items = []item{
		{key: "1", label: "Record new weight", run: m.record},
		{key: "2", label: "Show all records", run: m.show},
		{key: "3", label: "Plot records", run: m.plot},
		{key: "0", label: "Exit", run: m.exit},
	}
	return m
}

// Run loops until the user exits, input ends or ctx is cancelled. Errors
// from individual actions are reported and the loop continues.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printMenu()
		choice, ok := m.prompt("Enter your choice: ")
		if !ok {
			fmt.Fprintln(m.out)
			return m.in.Err()
		}

		it, found := m.lookup(choice)
		if !found {
			fmt.Fprintln(m.out, "Invalid choice! Please try again.")
			continue
		}

		exit, err := it.run(ctx)
		if err != nil {
			fmt.Fprintf(m.out, "Error: %v\n", err)
		}
		if exit {
			return nil
		}
	}
}

func (m *Menu) printMenu() {
	fmt.Fprintln(m.out, "\n=== Weight Tracker Menu ===")
	for _, it := range m.items {
		fmt.Fprintf(m.out, "%s. %s\n", it.key, it.label)
	}
}

func (m *Menu) lookup(choice string) (item, bool) {
	for _, it := range m.items {
		if it.key == choice {
			return it, true
		}
	}
	return item{}, false
}

// prompt writes label and returns the next trimmed input line. ok is false
// once input is exhausted.
func (m *Menu) prompt(label string) (line string, ok bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

// readValue prompts until a finite number is entered. ok is false if input
// ends first.
func (m *Menu) readValue() (float64, bool) {
	for {
		line, ok := m.prompt("Enter your weight (kg): ")
		if !ok {
			return 0, false
		}
		v, err := strconv.ParseFloat(line, 64)
		if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v, true
		}
		fmt.Fprintln(m.out, "Invalid input. Please enter a valid number.")
	}
}

func (m *Menu) record(ctx context.Context) (bool, error) {
	v, ok := m.readValue()
	if !ok {
		fmt.Fprintln(m.out)
		return true, m.in.Err()
	}
	if _, err := m.tracker.Record(ctx, v); err != nil {
		return false, err
	}
	fmt.Fprintln(m.out, "Value recorded successfully!")
	return false, nil
}

func (m *Menu) show(ctx context.Context) (bool, error) {
	return false, m.tracker.Show(ctx, m.out)
}

func (m *Menu) plot(ctx context.Context) (bool, error) {
	return false, m.tracker.Plot(ctx, m.out)
}

func (m *Menu) exit(context.Context) (bool, error) {
	fmt.Fprintln(m.out, "Exiting. Stay healthy!")
	return true, nil
}
