package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Releases(ctx context.Context) error
	More(ctx context.Context) error
	Refresh(ctx context.Context) error
	Release(ctx context.Context, id string) error
	Tickets(ctx context.Context, filter string) error
	Vote(ctx context.Context, id string) error
	Unvote(ctx context.Context, id string) error
	Logout(ctx context.Context) error
}

const replHelp = "Available commands: releases, more, refresh, release <id>, tickets [tab], vote <id>, unvote <id>, logout, exit"

// runREPL reads commands from scanner until EOF, "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers print
// their own errors so one failed call never ends the session.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("fk%s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(replHelp)

		case "releases", "r":
			_ = a.Releases(ctx)

		case "more", "m":
			_ = a.More(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "release":
			if len(args) == 0 {
				printlnFn("Usage: release <id>")
				continue
			}
			_ = a.Release(ctx, args[0])

		case "tickets", "t":
			filter := ""
			if len(args) > 0 {
				filter = args[0]
			}
			_ = a.Tickets(ctx, filter)

		case "vote", "unvote":
			if len(args) == 0 {
				printlnFn("Usage:", cmd, "<id>")
				continue
			}
			if cmd == "vote" {
				_ = a.Vote(ctx, args[0])
			} else {
				_ = a.Unvote(ctx, args[0])
			}

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
