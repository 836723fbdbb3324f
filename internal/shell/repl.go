package shell

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lborres/realty/core"
)

const helpAnonymous = `Commands:
  help                 show this help
  views                list views
  go <view>            switch view (dashboards need a login)
  login                log in
  register             create an account
  whoami               show the current user
  dismiss              clear the message line
  quit | exit          leave`

const helpAuthenticated = `Commands:
  help                 show this help
  views                list views
  go <view>            switch view
  whoami               show the current user
  logout               log out
  prefs                show buyer preferences
  prefs set k=v ...    merge buyer preferences
  suburbs [prompt]     ask the advisor for suburb recommendations
  strategy [goal]      ask the advisor for an investment strategy
  listings             list your listings
  add-listing          add a listing
  rm-listing <id>      delete a listing
  reports              vendor reports
  heatmap              developer heatmap
  dismiss              clear the message line
  quit | exit          leave`

// REPL drives a Shell from line-oriented input.
type REPL struct {
	shell *Shell
	in    *bufio.Reader
	out   io.Writer

	// ReadPassword reads a secret without echo, bypassing the line reader.
	// It is only consulted when no input is already buffered, so pasted
	// lines are consumed in order. Nil reads the secret as a plain line.
	ReadPassword func() (string, error)
}

func NewREPL(s *Shell, in io.Reader, out io.Writer) *REPL {
	return &REPL{shell: s, in: bufio.NewReader(in), out: out}
}

func (r *REPL) readSecret() (string, error) {
	if r.ReadPassword != nil && r.in.Buffered() == 0 {
		return r.ReadPassword()
	}
	line, err := r.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *REPL) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *REPL) prompt() string {
	if user, ok := r.shell.User(); ok {
		return fmt.Sprintf("realty [%s@%s]> ", user.Name, r.shell.View())
	}
	return fmt.Sprintf("realty [%s]> ", r.shell.View())
}

// Run reads commands until EOF, quit, or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	if r.shell.State() == StateLoading {
		r.shell.Boot(ctx)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.printf("%s", r.prompt())
		line, err := r.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				r.printf("\n")
				return nil
			}
			return err
		}
		if quit := r.Exec(ctx, line); quit {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the loop should stop.
func (r *REPL) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help", "?":
		if r.shell.State() == StateAuthenticated {
			r.printf("%s\n", helpAuthenticated)
		} else {
			r.printf("%s\n", helpAnonymous)
		}
		return false
	case "quit", "exit":
		r.printf("Bye!\n")
		return true
	case "dismiss":
		r.shell.Dismiss()
		return false
	case "views":
		for _, v := range Views {
			lock := ""
			if v.Dashboard() {
				lock = " (login required)"
			}
			r.printf("  %s%s\n", v, lock)
		}
		return false
	case "go":
		r.navigate(args)
	case "whoami":
		if user, ok := r.shell.User(); ok {
			r.printf("%s <%s>\n", user.Name, user.Email)
		} else {
			r.printf("not logged in\n")
		}
	case "login":
		r.login(ctx)
	case "register":
		r.register(ctx)
	case "logout":
		_ = r.shell.Logout(ctx)
	case "prefs":
		r.prefs(ctx, args)
	case "suburbs":
		r.suburbs(ctx, args)
	case "strategy":
		r.strategy(ctx, args)
	case "listings":
		r.listings(ctx)
	case "add-listing":
		r.addListing(ctx)
	case "rm-listing":
		r.rmListing(ctx, args)
	case "reports":
		r.document(ctx, r.shell.Reports)
	case "heatmap":
		r.document(ctx, r.shell.Heatmap)
	default:
		r.printf("Unknown command: %s\n", cmd)
		return false
	}

	r.printMessage()
	return false
}

func (r *REPL) printMessage() {
	msg, ok := r.shell.Message()
	if !ok {
		return
	}
	if msg.Kind == MessageError {
		r.printf("! %s\n", msg.Text)
	} else {
		r.printf("* %s\n", msg.Text)
	}
}

func (r *REPL) navigate(args []string) {
	if len(args) != 1 {
		r.printf("usage: go <view>\n")
		return
	}
	v, ok := ParseView(args[0])
	if !ok {
		r.printf("Unknown view: %s\n", args[0])
		return
	}
	if shown := r.shell.Navigate(v); shown != v {
		r.printf("Log in to open the %s dashboard.\n", v)
	}
}

func (r *REPL) login(ctx context.Context) {
	r.shell.Navigate(ViewLogin)
	email, err := readLine(r.in, r.out, "Email")
	if err != nil {
		return
	}
	r.printf("Password: ")
	password, err := r.readSecret()
	r.printf("\n")
	if err != nil {
		return
	}
	_ = r.shell.Login(ctx, email, password)
}

func (r *REPL) register(ctx context.Context) {
	r.shell.Navigate(ViewRegister)
	name, err := readLine(r.in, r.out, "Name")
	if err != nil {
		return
	}
	email, err := readLine(r.in, r.out, "Email")
	if err != nil {
		return
	}
	r.printf("Password: ")
	password, err := r.readSecret()
	r.printf("\n")
	if err != nil {
		return
	}
	_ = r.shell.Register(ctx, name, email, password)
}

func (r *REPL) prefs(ctx context.Context, args []string) {
	r.shell.Navigate(ViewBuyer)
	if len(args) == 0 {
		prefs, err := r.shell.LoadPreferences(ctx)
		if err == nil {
			r.printJSON(prefs)
		}
		return
	}
	if args[0] != "set" || len(args) < 2 {
		r.printf("usage: prefs set key=value ...\n")
		return
	}
	patch, err := parseAssignments(args[1:])
	if err != nil {
		r.printf("%v\n", err)
		return
	}
	if prefs, err := r.shell.SavePreferences(ctx, patch); err == nil {
		r.printJSON(prefs)
	}
}

// parseAssignments turns key=value pairs into a preference patch. Values that
// parse as JSON keep their type; everything else is a string.
func parseAssignments(args []string) (core.Preferences, error) {
	patch := core.Preferences{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		patch[key] = v
	}
	return patch, nil
}

func (r *REPL) question(args []string, prompt string) (string, bool) {
	if len(args) > 0 {
		return strings.Join(args, " "), true
	}
	text, err := readLine(r.in, r.out, prompt)
	if err != nil {
		return "", false
	}
	return text, true
}

func (r *REPL) suburbs(ctx context.Context, args []string) {
	r.shell.Navigate(ViewBuyer)
	prompt, ok := r.question(args, "Describe what you are looking for")
	if !ok {
		return
	}
	if answer, err := r.shell.AskSuburbs(ctx, prompt); err == nil {
		r.printf("%s\n", answer)
	}
}

func (r *REPL) strategy(ctx context.Context, args []string) {
	r.shell.Navigate(ViewInvestor)
	goal, ok := r.question(args, "Investment goal")
	if !ok {
		return
	}
	if answer, err := r.shell.AskStrategy(ctx, goal); err == nil {
		r.printf("%s\n", answer)
	}
}

func (r *REPL) listings(ctx context.Context) {
	r.shell.Navigate(ViewAgent)
	items, err := r.shell.Listings(ctx)
	if err != nil {
		return
	}
	if len(items) == 0 {
		r.printf("No listings.\n")
		return
	}
	for _, l := range items {
		r.printf("  %s  %-30s %12.2f  %s\n", l.ID, l.Title, l.Price, l.Location)
	}
}

func (r *REPL) addListing(ctx context.Context) {
	r.shell.Navigate(ViewAgent)
	var in core.ListingInput
	var err error
	if in.Title, err = readLine(r.in, r.out, "Title"); err != nil {
		return
	}
	if in.Description, err = readLine(r.in, r.out, "Description"); err != nil {
		return
	}
	price, err := readLine(r.in, r.out, "Price")
	if err != nil {
		return
	}
	if price != "" {
		p, err := strconv.ParseFloat(price, 64)
		if err != nil {
			r.printf("Price must be a number.\n")
			return
		}
		in.Price = &p
	}
	if in.Location, err = readLine(r.in, r.out, "Location"); err != nil {
		return
	}
	if l, err := r.shell.AddListing(ctx, in); err == nil {
		r.printf("  %s  %s\n", l.ID, l.Title)
	}
}

func (r *REPL) rmListing(ctx context.Context, args []string) {
	r.shell.Navigate(ViewAgent)
	if len(args) != 1 {
		r.printf("usage: rm-listing <id>\n")
		return
	}
	_ = r.shell.DeleteListing(ctx, args[0])
}

func (r *REPL) document(ctx context.Context, fetch func(context.Context) (map[string]any, error)) {
	doc, err := fetch(ctx)
	if err == nil {
		r.printJSON(doc)
	}
}

func (r *REPL) printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		r.printf("%v\n", v)
		return
	}
	r.printf("%s\n", b)
}
