package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wyfcoding/bstlca/xerrors"
	"google.golang.org/grpc/codes"
)

var version = "dev"

func main() {
	err := newCLI(os.Stdout, os.Stderr).execute(context.Background(), os.Args[1:])
	if err != nil {
		report(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

// exitCode 以 gRPC 状态码作为进程退出码；非结构化错误记为 Unknown.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if e, ok := xerrors.FromError(err); ok {
		return int(e.ToGRPCStatus().Code())
	}
	return int(codes.Unknown)
}

func report(w io.Writer, err error) {
	e, ok := xerrors.FromError(err)
	if !ok {
		fmt.Fprintln(w, "Error:", err)
		return
	}
	fmt.Fprintf(w, "Error: %v (status %s, http %d)\n", err, e.GRPCCode(), e.HTTPStatus())
	if e.Detail != "" {
		fmt.Fprintln(w, "  detail:", e.Detail)
	}
}
