package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jask/expensetracker/internal/commands"
	"github.com/jask/expensetracker/internal/report"
)

func main() {
	if err := commands.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprint(os.Stderr, report.RenderError(err))
		os.Exit(1)
	}
}
