package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ViceAguilera/go-epptrack/compliance"
	"github.com/ViceAguilera/go-epptrack/detector"
	"github.com/ViceAguilera/go-epptrack/postprocess"
)

func newReplayCommand(ctx *commandContext) *cobra.Command {

	var table bool
	var labelFile string

	cmd := &cobra.Command{
		Use:   "replay <detections.jsonl>",
		Short: "Track recorded detections and print the report of every frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			engine, _, err := ctx.newEngine()

			if err != nil {
				return err
			}

			var classes []postprocess.Label

			if labelFile != "" {
				names, err := postprocess.LoadLabels(labelFile)

				if err != nil {
					return fmt.Errorf("load labels: %w", err)
				}

				classes = postprocess.ClassLabels(names)
			}

			replay, err := detector.OpenReplay(args[0], classes)

			if err != nil {
				return err
			}

			defer replay.Close()

			out := cmd.OutOrStdout()

			for {
				rec, err := replay.Next(cmd.Context())

				if errors.Is(err, io.EOF) {
					return nil
				}

				if err != nil {
					return err
				}

				frame, err := engine.Process(rec.Detections)

				if err != nil {
					// the tracker keeps its state so the next frame can
					// still be processed
					ctx.logger.Warn("skipping frame", zap.Int("frame", rec.Index), zap.Error(err))
					continue
				}

				fmt.Fprintf(out, "== frame %d ==\n", rec.Index)

				if table {
					fmt.Fprintln(out, compliance.FormatTable(frame.Records))
				} else {
					fmt.Fprintln(out, frame.Report())
				}
			}
		},
	}

	cmd.Flags().BoolVar(&table, "table", false, "Print the report as a table")
	cmd.Flags().StringVarP(&labelFile, "labels", "l", "", "Model labels file used for class indexes")

	return cmd
}
