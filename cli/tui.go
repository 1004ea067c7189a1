// ABOUTME: Launches the interactive pipeline board
// ABOUTME: Loads the board and contact names, then hands off to the bubbletea program
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/leadgen/tui"
)

// TUICommand opens the Kanban board in the terminal.
func TUICommand(app *App, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board, err := app.Board(ctx)
	if err != nil {
		return err
	}
	names, err := app.contactNames(ctx)
	if err != nil {
		return err
	}
	return tui.Run(ctx, board, names)
}
