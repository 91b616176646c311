// Command aaclust builds k-mer codebooks from protein sequences, encodes
// sequences as cluster signatures and ranks them by Jaccard distance.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/aaclust"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(newApp()).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "aaclust:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for usage and configuration errors and 1 otherwise.
func exitCode(err error) int {
	var ce *aaclust.ErrConfig
	var ow *aaclust.ErrOverwrite
	if errors.As(err, &ce) || errors.As(err, &ow) {
		return 2
	}
	return 1
}
