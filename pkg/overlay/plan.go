package overlay

import (
	"fmt"
	"strings"
)

// PlanOptions represents the inputs required to compute an overlay plan.
// It mirrors, at a high level, the user-facing options parsed by the CLI.
type PlanOptions struct {
	Request    Request
	BootDir    string
	ScratchDir string
}

// Board is what the host reports about itself.
type Board struct {
	Model         string
	Series        Series
	KernelRelease string
}

// DetectBoard reads the model and kernel release from sys and identifies
// the series. An unknown series is not an error here.
func DetectBoard(sys System) (Board, error) {
	model, err := sys.Model()
	if err != nil {
		return Board{}, fmt.Errorf("failed to detect board model: %w", err)
	}
	kr, err := sys.KernelRelease()
	if err != nil {
		return Board{}, fmt.Errorf("failed to detect kernel release: %w", err)
	}
	return Board{Model: model, Series: Identify(model), KernelRelease: kr}, nil
}

// PlanResult is a high-level description of how an overlay will be
// installed. Building it does not touch the boot partition.
type PlanResult struct {
	Board      Board
	Location   Location
	Request    Request
	OverlayID  string
	Toggles    ToggleSet
	ScratchDir string
}

// PlanWithSystem detects the board through sys and builds a plan with the
// given interface table. Tools embedding the package call it with
// NewLocalSystem; tests pass a fake.
func PlanWithSystem(sys System, table *InterfaceTable, opts PlanOptions) (PlanResult, error) {
	board, err := DetectBoard(sys)
	if err != nil {
		return PlanResult{}, err
	}
	return PlanForBoard(board, table, opts)
}

// PlanForBoard builds a plan for an already detected board.
func PlanForBoard(board Board, table *InterfaceTable, opts PlanOptions) (PlanResult, error) {
	loc, err := Locate(board.Series, board.KernelRelease, opts.BootDir)
	if err != nil {
		return PlanResult{Board: board, Location: loc}, fmt.Errorf("board %q: %w", board.Model, err)
	}

	req, err := opts.Request.Normalize()
	if err != nil {
		return PlanResult{Board: board, Location: loc}, err
	}

	id := req.ID()
	return PlanResult{
		Board:      board,
		Location:   loc,
		Request:    req,
		OverlayID:  id,
		Toggles:    table.TogglesFor(id),
		ScratchDir: opts.ScratchDir,
	}, nil
}

// String renders a human-readable description of the plan.
func (p PlanResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overlay plan: %s -> %s\n", p.OverlayID, p.Location.ConfigPath)
	fmt.Fprintf(&b, "  - board: %s (series %s, kernel %s)\n", p.Board.Model, p.Board.Series, p.Board.KernelRelease)
	fmt.Fprintf(&b, "  - format: %s\n", p.Location.Format)
	fmt.Fprintf(&b, "  - overlay dir: %s\n", p.Location.OverlayDir)
	fmt.Fprintf(&b, "  - input: %s (type %s)\n", p.Request.Input, p.Request.Type)
	if len(p.Toggles) > 0 {
		fmt.Fprintf(&b, "  - interfaces: %s\n", p.Toggles)
	}
	return b.String()
}
