package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/sync/errgroup"

	"github.com/wdkclient/stepanalysis/internal/plugin"
	"github.com/wdkclient/stepanalysis/internal/wdk"
)

// List prints the analyses applied to a step and the analysis types it
// offers.
func List(ctx context.Context, w io.Writer, opts Options) error {
	if opts.StepID <= 0 {
		return errors.New("step id is required")
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, nil)
	if err != nil {
		return err
	}
	return writeListing(ctx, w, client, plugin.Default(), opts.StepID)
}

func writeListing(ctx context.Context, w io.Writer, svc wdk.AnalysisService, plugins *plugin.Registry, stepID int64) error {
	var (
		applied []wdk.AnalysisConfig
		types   []wdk.AnalysisType
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		applied, err = svc.AppliedAnalyses(gctx, stepID)
		if err != nil {
			return fmt.Errorf("list applied analyses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		types, err = svc.AnalysisTypes(gctx, stepID)
		if err != nil {
			return fmt.Errorf("list analysis types: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	heading := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(w, heading.Render(fmt.Sprintf("Analyses on step %d", stepID)))
	if len(applied) == 0 {
		fmt.Fprintln(w, "  none")
	} else {
		t := table.New().Headers("ID", "Name", "Type", "Status")
		for _, a := range applied {
			t.Row(strconv.FormatInt(a.AnalysisID, 10), a.DisplayName, a.AnalysisName, string(a.Status))
		}
		fmt.Fprintln(w, t.Render())
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, heading.Render("Available analysis types"))
	if len(types) == 0 {
		fmt.Fprintln(w, "  none")
		return nil
	}
	dedicated := plugins.Names()
	t := table.New().Headers("Type", "Name", "Parameters", "Results")
	for _, at := range types {
		params := "no"
		if at.HasParameters {
			params = "yes"
		}
		results := "generic"
		if _, ok := slices.BinarySearch(dedicated, at.Name); ok {
			results = "dedicated"
		}
		t.Row(at.Name, at.DisplayName, params, results)
	}
	fmt.Fprintln(w, t.Render())
	return nil
}
