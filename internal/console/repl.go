package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"clinical-lookup/internal/lookup"
	"clinical-lookup/internal/report"
)

const help = `Type to search. Commands:
  :select N         open the N-th search result
  :order ID         open an order of the current patient
  :result ID        open a result of the current patient
  :tab orders|results
  :back             go up one level
  :retry            retry the last failed load
  :print [file]     print the open result (.html for HTML)
  :quit`

// Loop is the part of lookup.EventLoop the REPL needs.
type Loop interface {
	Do(ctx context.Context, fn func()) error
}

// REPL reads commands and applies them to a session on its loop.
type REPL struct {
	loop Loop
	sess *lookup.Session
	out  io.Writer
}

// NewREPL creates a REPL writing to out.
func NewREPL(loop Loop, sess *lookup.Session, out io.Writer) *REPL {
	return &REPL{loop: loop, sess: sess, out: out}
}

// Run executes lines from in until :quit, EOF or ctx is done.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(r.out, help)
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			quit, err := r.Exec(ctx, line)
			if err != nil {
				fmt.Fprintf(r.out, "! %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// Exec runs one input line. Lines not starting with ':' are typed into the
// search box.
func (r *REPL) Exec(ctx context.Context, line string) (quit bool, err error) {
	if !strings.HasPrefix(line, ":") {
		return false, r.do(ctx, func() error { return r.sess.Type(line) })
	}

	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	switch fields[0] {
	case ":quit", ":q":
		return true, nil
	case ":help":
		fmt.Fprintln(r.out, help)
		return false, nil
	case ":select":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("usage: :select N")
		}
		return false, r.do(ctx, func() error {
			results := r.sess.View().Results
			if n < 1 || n > len(results) {
				return fmt.Errorf("no result #%d", n)
			}
			return r.sess.SelectPatient(results[n-1])
		})
	case ":order", ":result":
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || id == 0 {
			return false, fmt.Errorf("usage: %s ID", fields[0])
		}
		if fields[0] == ":order" {
			return false, r.do(ctx, func() error { return r.sess.DrillOrder(uint(id)) })
		}
		return false, r.do(ctx, func() error { return r.sess.DrillResult(uint(id)) })
	case ":tab":
		tab, err := lookup.ParseTab(arg)
		if err != nil {
			return false, err
		}
		return false, r.do(ctx, func() error { return r.sess.SelectTab(tab) })
	case ":back":
		return false, r.do(ctx, func() error { r.sess.Back(); return nil })
	case ":retry":
		return false, r.do(ctx, r.sess.Retry)
	case ":print":
		var doc report.Document
		if err := r.do(ctx, func() (err error) { doc, err = r.sess.Report(); return err }); err != nil {
			return false, err
		}
		return false, r.print(doc, arg)
	}
	return false, fmt.Errorf("unknown command %s (:help)", fields[0])
}

func (r *REPL) do(ctx context.Context, fn func() error) error {
	var err error
	if loopErr := r.loop.Do(ctx, func() { err = fn() }); loopErr != nil {
		return loopErr
	}
	return err
}

func (r *REPL) print(doc report.Document, path string) error {
	if path == "" {
		return doc.WriteText(r.out)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".html") {
		err = doc.WriteHTML(f)
	} else {
		err = doc.WriteText(f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Report written to %s\n", path)
	return nil
}
