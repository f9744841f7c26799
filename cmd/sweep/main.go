// Command sweep removes every profile of the test account, the same teardown the
// suite runs after its last test. Use it to recover an account left full by an
// aborted run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/janisto/prima-profile-e2e/internal/config"
	"github.com/janisto/prima-profile-e2e/internal/lifecycle"
	applog "github.com/janisto/prima-profile-e2e/internal/platform/logging"
	"github.com/janisto/prima-profile-e2e/internal/service/gateway"
)

type options struct {
	list bool
	keep []string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	list := fs.Bool("list", false, "print profile ULIDs without removing anything")
	keep := fs.String("keep", "", "comma-separated ULIDs to leave in place")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts := options{list: *list}
	for id := range strings.SplitSeq(*keep, ",") {
		if id = strings.TrimSpace(id); id != "" && !slices.Contains(opts.keep, id) {
			opts.keep = append(opts.keep, id)
		}
	}
	return opts, nil
}

func run(ctx context.Context, svc gateway.Service, cfg config.Config, opts options, out io.Writer) error {
	report, err := lifecycle.Sweep(ctx, svc, lifecycle.SweepOptions{
		Timeout: cfg.CleanupTimeout,
		KeepIDs: opts.keep,
		DryRun:  opts.list,
	})
	if opts.list {
		for _, id := range report.Found {
			fmt.Fprintln(out, id)
		}
		return err
	}
	fmt.Fprintf(out, "found %d, kept %d, removed %d, failed %d\n",
		len(report.Found), len(report.Kept), len(report.Removed), len(report.Failed))
	for _, id := range slices.Sorted(maps.Keys(report.Failed)) {
		fmt.Fprintf(out, "  %s: %v\n", id, report.Failed[id])
	}
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d profiles could not be removed", len(report.Failed))
	}
	return nil
}

func main() {
	defer func() { _ = applog.Sync() }()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := applog.WithRunID(context.Background(), "")
	client := gateway.NewClient(
		&http.Client{Timeout: cfg.RequestTimeout},
		gateway.WithEndpoint(cfg.APIBaseURL),
		gateway.WithDefaultCredentials(cfg.Email, cfg.Password),
	)
	if err := run(ctx, client, cfg, opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
