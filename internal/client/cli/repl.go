package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/somtik/somtik-client/internal/client/services"
)

// printlnFn and printfFn are test seams for user-facing output. All screen
// handlers route their output through them; in tests, replace with stubs.
var printlnFn = fmt.Println
var printfFn = fmt.Printf

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	state() services.State
	SignUp(ctx context.Context) error
	Verify(ctx context.Context) error
	Resend(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ShowProfile(ctx context.Context) error
	EditProfile(ctx context.Context) error
	RefreshProfile(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the somtik CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Signed out:
//	  - help           — show available commands
//	  - signup         — create an account
//	  - login          — authenticate with email and password
//	  - exit | quit    — leave the program
//
//	Verification pending:
//	  - verify         — enter the emailed verification code
//	  - resend         — request a fresh code (rate limited)
//
//	Signed in:
//	  - profile | p    — show the profile
//	  - edit           — edit profile fields
//	  - refresh        — re-fetch the profile from the backend
//	  - logout         — sign out
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("somtik %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			switch a.state() {
			case services.StateAuthenticated:
				printlnFn("Available commands: (p)rofile, edit, refresh, logout, exit")
			case services.StatePendingVerification:
				printlnFn("Available commands: verify, resend, exit")
			default:
				printlnFn("Available commands: signup, login, exit")
			}

		case "signup":
			_ = a.SignUp(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "resend":
			_ = a.Resend(ctx)

		case "login":
			_ = a.Login(ctx)

		case "p", "profile":
			_ = a.ShowProfile(ctx)

		case "edit":
			_ = a.EditProfile(ctx)

		case "refresh":
			_ = a.RefreshProfile(ctx)

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
