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
	isSignedIn() bool
	Login(ctx context.Context) error
	SignOut(ctx context.Context) error
	ListPatients(ctx context.Context) error
	AddPatient(ctx context.Context) error
	EditPatient(ctx context.Context) error
	DeletePatient(ctx context.Context) error
	SelectPatient(ctx context.Context, args []string) error
	ListRecords(ctx context.Context, args []string) error
	FetchRecords(ctx context.Context) error
	OpenRecord(ctx context.Context, args []string) error
	ShowRecord(ctx context.Context, args []string) error
	DeleteRecord(ctx context.Context, args []string) error
	UploadDocument(ctx context.Context) error
	ShowSummary(ctx context.Context) error
}

// runREPL starts a read-eval-print loop for the Ayurlekha CLI.
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
//	  - help           - show available commands
//	  - login          - sign in with an e-mailed one-time code
//	  - exit | quit    - leave the program
//
//	Signed in:
//	  - help           - show available commands
//	  - patients       - list patients
//	  - addpatient     - register a patient
//	  - editpatient    - update a patient
//	  - delpatient     - delete a patient
//	  - select <id>    - choose the active patient
//	  - records        - list cached records, filterable
//	  - fetch          - refetch records from the server
//	  - open <id>      - get a preview link for a document
//	  - show <id>      - show one record with its analysis metadata
//	  - delrecord <id> - delete a record and its document
//	  - upload         - upload a document (interactive)
//	  - summary        - show the generated medical-history summary
//	  - logout         - sign out
//	  - exit | quit    - leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// report their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ayur %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		if !a.isSignedIn() {
			switch cmd {
			case "help":
				printlnFn("Available commands: login, exit")
			case "login":
				_ = a.Login(ctx)
			case "exit", "quit":
				printlnFn("Bye!")
				return
			default:
				printlnFn("Sign in first. Available commands: login, exit")
			}
			continue
		}

		switch cmd {
		case "help":
			printlnFn("Available commands: patients, addpatient, editpatient, delpatient, select,")
			printlnFn("  records, fetch, open, show, delrecord, upload, summary, logout, exit")

		case "p", "patients":
			_ = a.ListPatients(ctx)

		case "addpatient":
			_ = a.AddPatient(ctx)

		case "editpatient":
			_ = a.EditPatient(ctx)

		case "delpatient":
			_ = a.DeletePatient(ctx)

		case "select":
			_ = a.SelectPatient(ctx, args)

		case "r", "records":
			_ = a.ListRecords(ctx, args)

		case "fetch":
			_ = a.FetchRecords(ctx)

		case "open":
			_ = a.OpenRecord(ctx, args)

		case "show":
			_ = a.ShowRecord(ctx, args)

		case "delrecord":
			_ = a.DeleteRecord(ctx, args)

		case "upload":
			_ = a.UploadDocument(ctx)

		case "summary":
			_ = a.ShowSummary(ctx)

		case "logout":
			_ = a.SignOut(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
