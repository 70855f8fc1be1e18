// Command crypt encrypts and decrypts text with a shared secret.
//
//	CRYPT_SECRET=shared-secret-key crypt encrypt hello
//	CRYPT_SECRET=shared-secret-key crypt decrypt 5f1c...
package main

import (
	"context"
	"os"

	"github.com/awnumar/memguard"

	"github.com/CLQuantizer/crypt/internal/cli"
)

func main() {
	// Wipe sealed secrets if interrupted.
	memguard.CatchInterrupt()

	code := cli.Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	memguard.SafeExit(code)
}
