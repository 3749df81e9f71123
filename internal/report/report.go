package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sgdatalabs/btopricer/internal/config"
	"github.com/sgdatalabs/btopricer/internal/model"
	"github.com/sgdatalabs/btopricer/internal/narrate"
	"github.com/sgdatalabs/btopricer/internal/store"
)

// Analysis is the banded result for one town and flat type, with its
// narrative attached.
type Analysis struct {
	Town      string `json:"town"`
	FlatType  string `json:"flat_type"`
	Bands     []Band `json:"bands"`
	Narrative string `json:"narrative"`
}

// Options control report generation.
type Options struct {
	// Towns to analyze. Empty means auto-recommend up to Limit towns.
	Towns     []string
	FlatTypes []string
	Floors    Floors
	Limit     int
	// OutputPath, when non-empty, receives the rendered Markdown.
	OutputPath string
}

// Generator produces BTO analyses and Markdown reports. The model
// artifact is re-read on every invocation, so a retrain between calls
// takes effect without restarting.
type Generator struct {
	cfg       *config.Config
	explainer narrate.Explainer
	logger    *slog.Logger
}

// NewGenerator creates a report generator. A nil logger discards output.
func NewGenerator(cfg *config.Config, explainer narrate.Explainer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{cfg: cfg, explainer: explainer, logger: logger}
}

// Analyze computes bands for every (town, flat type) pair. An empty
// towns slice auto-recommends up to limit towns by ascending recent
// volume. areaOverride > 0 pins the floor area for all queries.
// Returns model.ErrNotTrained when no model artifact exists.
func (g *Generator) Analyze(ctx context.Context, towns, flatTypes []string, floors Floors, limit int, areaOverride float64) ([]Analysis, error) {
	pipe, err := model.Load(model.PipelinePath(g.cfg.Paths.ModelDir))
	if err != nil {
		return nil, err
	}

	st, err := store.OpenReadOnly(ctx, g.cfg.Paths)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	if len(towns) == 0 {
		ranked, err := st.RecommendTowns(ctx, flatTypes, limit)
		if err != nil {
			return nil, err
		}
		for _, tv := range ranked {
			towns = append(towns, tv.Town)
		}
	}

	medians, err := st.MedianAreas(ctx)
	if err != nil {
		return nil, err
	}

	bander := NewBander(pipe, g.cfg.Training.DiscountRate, medians)
	out := make([]Analysis, 0, len(towns)*len(flatTypes))
	for _, town := range towns {
		for _, ft := range flatTypes {
			bands := bander.Bands(town, ft, floors, areaOverride)
			narrative := g.explainer.Explain(ctx, town, ft, narrate.Bands{
				Low:  bands[0].BTOPrice,
				Mid:  bands[1].BTOPrice,
				High: bands[2].BTOPrice,
			})
			out = append(out, Analysis{Town: town, FlatType: ft, Bands: bands, Narrative: narrative})
		}
	}
	return out, nil
}

// Generate runs Analyze with the given options, renders the Markdown
// report and, when OutputPath is set, writes it to disk.
func (g *Generator) Generate(ctx context.Context, opts Options) (string, error) {
	analyses, err := g.Analyze(ctx, opts.Towns, opts.FlatTypes, opts.Floors, opts.Limit, 0)
	if err != nil {
		return "", err
	}

	md := RenderMarkdown(analyses, g.cfg.Training.DiscountRate)
	if opts.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o750); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
		if err := os.WriteFile(opts.OutputPath, []byte(md), 0o644); err != nil {
			return "", fmt.Errorf("failed to write report: %w", err)
		}
		g.logger.Info("report written", "path", opts.OutputPath, "analyses", len(analyses))
	}
	return md, nil
}

// RenderMarkdown renders the analyses as a Markdown document with one
// band table per town and flat type.
func RenderMarkdown(analyses []Analysis, discount float64) string {
	var b strings.Builder
	b.WriteString("# BTO Price Analysis Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "Discount rate applied to resale predictions: %.0f%%\n", discount*100)

	for _, a := range analyses {
		fmt.Fprintf(&b, "\n## %s / %s\n\n", a.Town, a.FlatType)

		tw := table.NewWriter()
		tw.AppendHeader(table.Row{"Band", "Floor", "Predicted Resale", "Est. BTO Price", "Monthly Income Required"})
		for _, band := range a.Bands {
			tw.AppendRow(table.Row{
				band.Label,
				fmt.Sprintf("%.0f", band.FloorMid),
				narrate.FormatCurrency(band.PredictedResalePrice),
				narrate.FormatCurrency(band.BTOPrice),
				narrate.FormatCurrency(band.MonthlyIncome),
			})
		}
		b.WriteString(tw.RenderMarkdown())
		b.WriteString("\n")

		if a.Narrative != "" {
			fmt.Fprintf(&b, "\n%s\n", a.Narrative)
		}
	}
	return b.String()
}
