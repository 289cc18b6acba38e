/*
Example program that tracks people and their personal protective equipment.

	epp replay detections.jsonl           replay recorded detector output
	epp stream -m model.onnx -v cam.mp4   run a YOLO model over a video and
	                                      serve the annotated stream over HTTP
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
