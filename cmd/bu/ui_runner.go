package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"bu/internal/buildpipeline"
	"bu/internal/ui"
)

// runBuildWithUI runs the build next to the progress UI. Program output is
// held back until the UI has quit.
func runBuildWithUI(ctx context.Context, title string, req *buildpipeline.BuildRequest, stdout io.Writer) (buildpipeline.BuildResult, error) {
	if req == nil {
		return buildpipeline.BuildResult{}, fmt.Errorf("missing build request")
	}
	events := make(chan buildpipeline.Event, 256)
	var held bytes.Buffer

	reqCopy := *req
	reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
	reqCopy.Stdout = &held

	var (
		result   buildpipeline.BuildResult
		buildErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		result, buildErr = buildpipeline.Build(gctx, &reqCopy)
		return nil
	})
	g.Go(func() error {
		program := tea.NewProgram(ui.NewProgressModel(title, events), tea.WithOutput(os.Stdout), tea.WithContext(gctx))
		_, err := program.Run()
		return err
	})
	uiErr := g.Wait()

	if _, err := held.WriteTo(stdout); err != nil && buildErr == nil {
		buildErr = fmt.Errorf("failed to write output: %w", err)
	}
	if uiErr != nil {
		return result, fmt.Errorf("progress UI: %w", uiErr)
	}
	return result, buildErr
}
