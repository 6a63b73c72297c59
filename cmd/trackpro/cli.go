package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	xerrors "trackpro-client/internal/pkg/errors"
	"trackpro-client/internal/queries"
	"trackpro-client/internal/service/auth"
)

type cli struct {
	auth    *auth.AuthService
	session *auth.Controller
	q       *queries.Queries
	out     io.Writer
	in      *os.File
	reader  *bufio.Reader
	logger  *zap.Logger
}

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *cli) line() (string, error) {
	if c.reader == nil {
		c.reader = bufio.NewReader(c.in)
	}
	s, err := c.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// prompt reads one line, or returns value when it is already set.
func (c *cli) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(os.Stderr, label+": ")
	return c.line()
}

// password reads without echo on a terminal and a plain line otherwise.
func (c *cli) password(label string) (string, error) {
	fmt.Fprint(os.Stderr, label+": ")
	fd := int(c.in.Fd())
	if !term.IsTerminal(fd) {
		return c.line()
	}
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

// flags builds a subcommand flag set that reports problems on stderr.
func flags(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: trackpro %s\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

// parse runs fs and turns -h and bad flags into errUsage.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// describe turns client errors into one line for the terminal.
func describe(err error) string {
	if errors.Is(err, queries.ErrNotSignedIn) {
		return "not signed in, run: trackpro login"
	}
	apiErr, ok := xerrors.AsAPIError(err)
	if !ok {
		return err.Error()
	}
	switch apiErr.Kind() {
	case xerrors.KindSubscriptionRequired:
		return "an active subscription is required, ask an admin to activate it"
	case xerrors.KindNetworkFailure:
		return "backend unreachable: " + apiErr.Message
	}
	if apiErr.Status == 0 {
		return apiErr.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", apiErr.Message, apiErr.Status)
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
