package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"imapsync/imap"
)

func main() {
	app := &cli.App{
		Name:      "imapsync",
		Usage:     "download mailbox messages and keep a local directory in sync with a server's UIDs",
		ArgsUsage: "<server>",
		// urfave/cli auto-registers a "help"/"h" flag; "h" is already
		// this tool's headers-only switch, so the default would panic
		// on startup with a duplicate flag registration.
		HideHelp: true,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "p", Usage: "TCP port; default 143 (plain) or 993 (TLS)"},
			&cli.BoolFlag{Name: "T", Usage: "enable TLS"},
			&cli.StringFlag{Name: "c", Usage: "CA certificate file (only meaningful with -T)"},
			&cli.StringFlag{Name: "C", Usage: "CA certificate directory (only with -T; default /etc/ssl/certs)"},
			&cli.BoolFlag{Name: "n", Usage: "download only messages matching UID SEARCH NEW"},
			&cli.BoolFlag{Name: "h", Usage: "download headers only (BODY.PEEK[HEADER])"},
			&cli.StringFlag{Name: "a", Usage: "credentials file (required)"},
			&cli.StringFlag{Name: "b", Value: "INBOX", Usage: "mailbox to select"},
			&cli.StringFlag{Name: "o", Usage: "output directory (required)"},
			&cli.StringFlag{Name: "f", Usage: "optional YAML config file providing flag defaults"},
			&cli.StringFlag{Name: "index", Usage: "optional path to a SQLite index mirroring the output directory"},
			&cli.BoolFlag{Name: "v", Usage: "verbose protocol logging"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func run(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return cli.Exit(argumentError("exactly one positional server argument is required"), 1)
	}
	server := ctx.Args().First()

	var cfg Config
	if path := ctx.String("f"); path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return cli.Exit(err, 1)
		}
		cfg = *loaded
	}

	opts := SyncOptions{
		Server:         firstNonEmpty(server, cfg.Server),
		Port:           firstNonZeroInt(ctx.Int("p"), cfg.Port),
		ConnectTimeout: 30 * time.Second,
		UseTLS:         ctx.Bool("T") || cfg.TLS,
		CAFile:         firstNonEmpty(ctx.String("c"), cfg.CAFile),
		CADir:          firstNonEmpty(ctx.String("C"), cfg.CADir),
		Mailbox:        firstNonEmpty(valueIfSet(ctx, "b"), cfg.Mailbox, "INBOX"),
		OutDir:         firstNonEmpty(ctx.String("o"), cfg.OutDir),
		IndexPath:      firstNonEmpty(ctx.String("index"), cfg.IndexPath),
		NewOnly:        ctx.Bool("n"),
		HeadersOnly:    ctx.Bool("h"),
		Log:            newLogger(ctx.Bool("v")),
	}

	if credsPath := ctx.String("a"); credsPath == "" {
		return cli.Exit(argumentError("-a <credentials file> is required"), 1)
	} else {
		creds, err := LoadCredentials(credsPath)
		if err != nil {
			return cli.Exit(err, 1)
		}
		opts.Credentials = creds
	}

	if opts.OutDir == "" {
		return cli.Exit(argumentError("-o <output directory> is required"), 1)
	}

	result, err := Sync(opts)
	if err != nil {
		return cli.Exit(err, 1)
	}

	if result.Downloaded == 0 && result.Failed == 0 {
		fmt.Printf("No new messages found\n")
	} else {
		fmt.Printf("Downloaded %d messages from mailbox %s\n", result.Downloaded, opts.Mailbox)
		if result.Failed > 0 {
			fmt.Printf("%d messages failed to persist\n", result.Failed)
		}
	}

	if result.Failed > 0 {
		os.Exit(1)
	}
	return nil
}

// valueIfSet returns ctx's string flag value only when the flag was
// actually set on the command line, so when -b is not given the
// flag's own "INBOX" default never shadows a config-file mailbox.
func valueIfSet(ctx *cli.Context, name string) string {
	if !ctx.IsSet(name) {
		return ""
	}
	return ctx.String(name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZeroInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func argumentError(msg string) error {
	return &imap.Error{Kind: imap.KindArgument, Message: msg}
}

func exitCodeFor(err error) int {
	if ee, ok := err.(cli.ExitCoder); ok {
		return ee.ExitCode()
	}
	return 1
}
