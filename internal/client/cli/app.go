// Package cli wires the exporter components together and dispatches the
// export, status, download and keygen commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/dmitrijs2005/eventexport/internal/buildinfo"
	"github.com/dmitrijs2005/eventexport/internal/client/api"
	"github.com/dmitrijs2005/eventexport/internal/client/config"
	"github.com/dmitrijs2005/eventexport/internal/client/download"
	"github.com/dmitrijs2005/eventexport/internal/client/poller"
	"github.com/dmitrijs2005/eventexport/internal/client/services"
	"github.com/dmitrijs2005/eventexport/internal/common"
	"github.com/dmitrijs2005/eventexport/internal/cryptox"
	"github.com/dmitrijs2005/eventexport/internal/flagx"
	"github.com/dmitrijs2005/eventexport/internal/logging"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// exporter is the service surface the dispatcher needs.
type exporter interface {
	Export(ctx context.Context, jobID string) error
	Status(ctx context.Context, taskID string) error
	Download(ctx context.Context, taskID string) error
}

type App struct {
	config  *config.Config
	service exporter
	display *Display
	log     logging.Logger
	out     io.Writer
}

func NewApp(cfg *config.Config) *App {
	log := logging.NewCLI(os.Stderr, cfg.Verbose)
	display := AutoDisplay(os.Stdout)

	client := api.NewHTTPClient(cfg.APIHost, cfg.APIKey)
	p := poller.New(client, display, log)
	s := download.New(display, log)

	return &App{
		config:  cfg,
		service: services.NewExportService(cfg, client, p, s, display, log),
		display: display,
		log:     log,
		out:     os.Stdout,
	}
}

// Run dispatches one command. args is os.Args[1:]: the command name, an
// optional positional id, then flags (flags are parsed by the config layer).
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return fmt.Errorf("%w: no command given", common.ErrConfig)
	}

	cmd := args[0]
	switch cmd {
	case "export":
		id, err := a.positionalID(args, "job")
		if err != nil {
			return err
		}
		if err := a.config.Validate(); err != nil {
			return err
		}
		return a.service.Export(ctx, id)

	case "status":
		id, err := a.positionalID(args, "task")
		if err != nil {
			return err
		}
		if err := a.config.Validate(); err != nil {
			return err
		}
		return a.service.Status(ctx, id)

	case "download":
		id, err := a.positionalID(args, "task")
		if err != nil {
			return err
		}
		if err := a.config.Validate(); err != nil {
			return err
		}
		return a.service.Download(ctx, id)

	case "keygen":
		return a.keygen(args[1:])

	case "version":
		buildinfo.PrintBuildData(a.out)
		return nil

	case "help", "-h", "--help":
		a.usage()
		return nil

	default:
		a.usage()
		return fmt.Errorf("%w: unknown command %q", common.ErrConfig, cmd)
	}
}

// positionalID extracts and validates the uuid following the command name.
func (a *App) positionalID(args []string, kind string) (string, error) {
	if len(args) < 2 || strings.HasPrefix(args[1], "-") {
		return "", fmt.Errorf("%w: usage: %s <%s-uuid>", common.ErrConfig, args[0], kind)
	}
	id := args[1]
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %q is not a valid %s uuid", common.ErrConfig, id, kind)
	}
	return id, nil
}

// keygen prints a fresh SSE-C key, or derives one from a passphrase when
// -passphrase is given.
func (a *App) keygen(args []string) error {
	var fromPassphrase bool
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.BoolVar(&fromPassphrase, "passphrase", false, "derive the key from a passphrase instead of random bytes")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-passphrase", "--passphrase"})); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfig, err)
	}

	var key *cryptox.SSECKey
	if fromPassphrase {
		fmt.Fprint(a.out, "Enter passphrase: ")
		pw, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return err
		}
		key = cryptox.DeriveFromPassphrase(pw)
		for i := range pw {
			pw[i] = 0
		}
	} else {
		var err error
		key, err = cryptox.Generate()
		if err != nil {
			return err
		}
	}
	defer key.Wipe()

	fmt.Fprintf(a.out, "Key:         %s\n", key.Encoded())
	fmt.Fprintf(a.out, "Fingerprint: %s\n", key.Fingerprint())
	return nil
}

func (a *App) usage() {
	fmt.Fprintln(a.out, `Usage:
  eventexport export <job-uuid>     trigger an export, poll it, download the result
  eventexport status <task-uuid>    one-shot status check
  eventexport download <task-uuid>  download a finished export without polling
  eventexport keygen [-passphrase]  print a fresh SSE-C encryption key
  eventexport version               print build information

Common flags: -api-host, -interval, -max-wait, -o/-output, -no-download,
-no-sse-c, -sse-c-key, -sse-c-algorithm, -fields, -c/-config, -v

Environment: API_KEY (required), API_HOST, S3_SSE_C_KEY, S3_BUCKET, ...`)
}

// ExitCode maps an error to the process exit code: 0 success, 2 config
// errors, 130 interrupted, 1 everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, common.ErrConfig), errors.Is(err, common.ErrInvalidKeyLength):
		return 2
	case errors.Is(err, common.ErrInterrupted):
		return 130
	default:
		return 1
	}
}
