package main

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSignalContext(t *testing.T) {
	Convey("SIGTERM should cancel the command context instead of killing the process", t, func() {
		ctx, stop := signalContext(context.Background())
		defer stop()
		So(syscall.Kill(os.Getpid(), syscall.SIGTERM), ShouldBeNil)

		var cancelled bool
		select {
		case <-ctx.Done():
			cancelled = true
		case <-time.After(time.Second):
		}
		So(cancelled, ShouldBeTrue)
	})
}
