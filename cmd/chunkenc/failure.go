package main

import (
	"fmt"
	"io"
	"strings"

	"chunkenc/internal/services"
	"chunkenc/internal/stageexec"
)

// printFailure writes err for the operator. Pipeline failures include the
// stage, error kind, and failed segment ids.
func printFailure(w io.Writer, err error) {
	if err == nil {
		return
	}
	details := services.Details(err)
	stageName := stageexec.StageOf(err)
	if stageName == "" && details.Kind == "unknown" {
		fmt.Fprintln(w, err)
		return
	}
	colorize := shouldColorize(w)
	fmt.Fprintln(w, strings.Join(renderSectionHeader("Encode failed", colorize), "\n"))
	if stageName != "" {
		fmt.Fprintln(w, renderStatusLine("Stage", statusError, stageName, colorize))
	}
	fmt.Fprintln(w, renderStatusLine("Kind", statusError, details.Kind, colorize))
	fmt.Fprintln(w, renderStatusLine("Message", statusError, details.Message, colorize))
	if len(details.FailedSegments) > 0 {
		fmt.Fprintln(w, renderStatusLine("Failed segments", statusError, strings.Join(details.FailedSegments, ", "), colorize))
	}
}
