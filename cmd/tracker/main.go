package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"budgettracker/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: tracker <command> [flags]

commands:
  register -u USER -p PASS   create an account
  login    -u USER -p PASS   log in and sync
  logout                     forget the stored credential
  status                     show the session state
  list                       list transactions
  add      [flags]           add a transaction
  edit     -id ID [flags]    replace a transaction
  remove   -id ID            delete a transaction
  summary                    show totals and per-category breakdown
  chart    -o FILE           write the income/expense pie (.png or .svg)
  theme    [light|dark]      show or set the theme
`)
}
