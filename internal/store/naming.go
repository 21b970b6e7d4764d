package store

import (
	"context"
	"fmt"
)

// CopyName picks the name for a duplicated provider: "<name> Copy", then
// "<name> Copy 2", "<name> Copy 3" and so on until taken reports a free name.
func CopyName(ctx context.Context, name string, taken func(ctx context.Context, candidate string) (bool, error)) (string, error) {
	candidate := name + " Copy"
	for n := 2; ; n++ {
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s Copy %d", name, n)
	}
}
