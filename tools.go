//go:build tools

package crypt

// The OSS-Fuzz native Go fuzzing build rewrites testing.F to this package.
import _ "github.com/AdamKorcz/go-118-fuzz-build/testing"
