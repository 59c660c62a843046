package gitcmd

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// setup swaps Runner for the given fake and returns a teardown that puts the
// real one back. Tests must defer the teardown.
func setup(t *testing.T, fake func(ctx context.Context, args ...string) (string, error)) func() {
	t.Helper()
	previous := Runner
	if fake == nil {
		fake = func(context.Context, ...string) (string, error) {
			return "", errors.New("no fake runner installed")
		}
	}
	Runner = fake
	return func() { Runner = previous }
}

// reflectDeepEqual keeps argument assertions on one line.
func reflectDeepEqual(a, b []string) bool {
	return reflect.DeepEqual(a, b)
}
