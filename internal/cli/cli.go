// Package cli implements the crypt command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/CLQuantizer/crypt"
	"github.com/CLQuantizer/crypt/internal/config"
	"github.com/CLQuantizer/crypt/internal/logger"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

const usage = `Usage: crypt [flags] <command> [input]

Commands:
  encrypt [text]   encrypt text (or stdin) and print the hex blob
  decrypt [blob]   decrypt a hex blob (or stdin) and print the text

Flags:
`

// Run executes the command line args and returns the process exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("crypt", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return ExitUsage
	}
	command := fs.Arg(0)
	if command != "encrypt" && command != "decrypt" {
		fmt.Fprintf(stderr, "crypt: unknown command %q\n", command)
		fs.Usage()
		return ExitUsage
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "crypt: %v\n", err)
		return ExitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "crypt: %v\n", err)
		return ExitUsage
	}

	log := logger.New(cfg.Log, stderr)

	// Keep the secret sealed until it is needed.
	source, err := crypt.NewStaticSecret(cfg.Secret)
	cfg.Secret = ""
	if err != nil {
		fmt.Fprintf(stderr, "crypt: %v\n", err)
		return ExitUsage
	}

	opts := []crypt.Option{crypt.WithLogger(log)}
	if cfg.LenientHex {
		opts = append(opts, crypt.WithLenientHex())
	}
	c, err := crypt.New(opts...)
	if err != nil {
		log.Error().Err(err).Msg("failed to create cipher")
		return ExitError
	}

	input, err := readInput(fs, stdin)
	if err != nil {
		log.Error().Err(err).Msg("failed to read input")
		return ExitError
	}

	out, err := execute(ctx, c, source, command, input)
	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("operation failed")
		return ExitError
	}

	log.Debug().Str("command", command).Int("output_len", len(out)).Msg("operation complete")
	fmt.Fprintln(stdout, out)
	return ExitOK
}

func execute(ctx context.Context, c *crypt.Cipher, source crypt.SecretSource, command, input string) (string, error) {
	secret, err := source.Secret()
	if err != nil {
		return "", err
	}

	switch command {
	case "encrypt":
		return c.Encrypt(ctx, input, secret)
	case "decrypt":
		return c.Decrypt(ctx, strings.TrimSpace(input), secret)
	default:
		return "", fmt.Errorf("unknown command %q", command)
	}
}

// readInput returns the positional input, or stdin with one trailing newline removed.
func readInput(fs *pflag.FlagSet, stdin io.Reader) (string, error) {
	if fs.NArg() == 2 {
		return fs.Arg(1), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	s := strings.TrimSuffix(string(b), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}
