package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/tipgen/internal/analysis"
	"github.com/nvandessel/tipgen/internal/constants"
	"github.com/nvandessel/tipgen/internal/dataset"
	"github.com/nvandessel/tipgen/internal/export"
	"github.com/nvandessel/tipgen/internal/logging"
	"github.com/nvandessel/tipgen/internal/pathutil"
	"github.com/nvandessel/tipgen/internal/ratelimit"
	"github.com/nvandessel/tipgen/internal/sanitize"
	"github.com/nvandessel/tipgen/internal/store"
)

const (
	toolGenerate = "tipgen_generate"
	toolDescribe = "tipgen_describe"
	toolList     = "tipgen_list"
)

// registerTools registers all tipgen MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        toolGenerate,
		Description: "Generate a synthetic delivery-tipping dataset, record it in the catalog, and optionally write it to a file",
	}, s.handleGenerate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        toolDescribe,
		Description: "Describe a cataloged dataset: count, mean, std, min, quartiles and max of every numeric column",
	}, s.handleDescribe)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        toolList,
		Description: "List cataloged datasets, newest first",
	}, s.handleList)
}

// handleGenerate implements the tipgen_generate tool.
func (s *Server) handleGenerate(ctx context.Context, req *sdk.CallToolRequest, args GenerateInput) (_ *sdk.CallToolResult, _ GenerateOutput, retErr error) {
	start := time.Now()
	ev := logging.RunEvent{Source: store.SourceMCP, Seed: args.Seed}
	defer func() {
		s.auditTool(toolGenerate, start, retErr, sanitizeToolParams(map[string]any{
			"rows": args.Rows, "seed": args.Seed, "name": args.Name, "format": args.Format, "output_path": args.OutputPath,
		}))
		ev.ElapsedMS = time.Since(start).Milliseconds()
		if retErr != nil {
			ev.Error = retErr.Error()
		}
		s.runLog.Log(ev)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, toolGenerate); err != nil {
		return nil, GenerateOutput{}, err
	}

	format := constants.Format(args.Format)
	if format != "" && !format.Valid() {
		return nil, GenerateOutput{}, fmt.Errorf("unsupported format %q (want one of %v)", args.Format, constants.Formats)
	}

	// Validate the path before doing any work.
	var outputPath string
	if args.OutputPath != "" {
		resolved, err := pathutil.ResolveOutputPath(args.OutputPath, pathutil.AllowedOutputDirs(s.dataDir, s.workDir))
		if err != nil {
			return nil, GenerateOutput{}, fmt.Errorf("output path rejected: %w", err)
		}
		outputPath = resolved
		format = export.OutputFormat(outputPath, format)
	}

	var opts []dataset.Option
	if args.Rows != nil {
		opts = append(opts, dataset.WithRows(*args.Rows))
	}
	if args.Seed != nil {
		opts = append(opts, dataset.WithSeed(*args.Seed))
	}
	res, err := dataset.Generate(s.generator, opts...)
	if err != nil {
		return nil, GenerateOutput{}, fmt.Errorf("generation failed: %w", err)
	}
	ev.Rows = res.Table.Len()
	ev.Seed = res.Seed

	if outputPath != "" {
		if err := export.WriteFile(outputPath, format, res.Table); err != nil {
			return nil, GenerateOutput{}, fmt.Errorf("writing dataset: %w", err)
		}
		ev.Format = format.String()
		ev.Output = outputPath
	}

	cfg := s.generator.Clone()
	cfg.Rows = res.Table.Len()
	cfg.Seed = res.Seed
	meta, err := s.store.SaveDataset(ctx, store.DatasetMeta{
		Name:   sanitize.Label(args.Name),
		Source: store.SourceMCP,
		Seed:   res.Seed,
		Config: cfg,
	}, res.Table)
	if err != nil {
		if outputPath != "" {
			if rmErr := os.Remove(outputPath); rmErr != nil {
				s.logger.Warn("failed to remove output after catalog error", "path", pathutil.RedactPath(outputPath), "error", rmErr)
			}
		}
		return nil, GenerateOutput{}, fmt.Errorf("recording dataset: %w", err)
	}
	ev.DatasetID = meta.ID

	tips, err := res.Table.Floats(dataset.ColTipPercent)
	if err != nil {
		return nil, GenerateOutput{}, err
	}

	s.logger.Info("generated dataset", "id", meta.ID, "rows", meta.Rows, "output", pathutil.RedactPath(outputPath))

	message := fmt.Sprintf("Generated %d orders as %s", meta.Rows, meta.ID)
	if outputPath != "" {
		message += fmt.Sprintf(" → %s", outputPath)
	}

	return nil, GenerateOutput{
		DatasetID:  meta.ID,
		Rows:       meta.Rows,
		Seed:       meta.Seed,
		OutputPath: outputPath,
		Format:     ev.Format,
		TipPercent: columnStats(analysis.Summarize(dataset.ColTipPercent, tips)),
		Message:    message,
	}, nil
}

// handleDescribe implements the tipgen_describe tool.
func (s *Server) handleDescribe(ctx context.Context, req *sdk.CallToolRequest, args DescribeInput) (_ *sdk.CallToolResult, _ DescribeOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(toolDescribe, start, retErr, sanitizeToolParams(map[string]any{
			"dataset_id": args.DatasetID,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, toolDescribe); err != nil {
		return nil, DescribeOutput{}, err
	}
	if args.DatasetID == "" {
		return nil, DescribeOutput{}, fmt.Errorf("'dataset_id' parameter is required")
	}

	meta, err := s.store.GetDataset(ctx, args.DatasetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, DescribeOutput{}, fmt.Errorf("dataset %q not found; use tipgen_list to see cataloged datasets", args.DatasetID)
		}
		return nil, DescribeOutput{}, fmt.Errorf("looking up dataset: %w", err)
	}
	t, err := s.store.LoadTable(ctx, meta.ID)
	if err != nil {
		return nil, DescribeOutput{}, fmt.Errorf("loading dataset: %w", err)
	}

	summaries, err := analysis.Describe(t)
	if err != nil {
		return nil, DescribeOutput{}, err
	}
	groups, err := analysis.GroupMeans(t, dataset.ColWeather)
	if err != nil {
		return nil, DescribeOutput{}, err
	}

	out := DescribeOutput{
		Dataset: datasetItem(*meta),
		Columns: make([]ColumnStats, 0, len(summaries)),
		Weather: make([]GroupStats, 0, len(groups)),
	}
	for _, sm := range summaries {
		out.Columns = append(out.Columns, columnStats(sm))
	}
	for _, g := range groups {
		out.Weather = append(out.Weather, GroupStats{
			Category: g.Category,
			Count:    g.Count,
			Mean:     analysis.Finite(g.Mean),
			Median:   analysis.Finite(g.Median),
		})
	}
	return nil, out, nil
}

// handleList implements the tipgen_list tool.
func (s *Server) handleList(ctx context.Context, req *sdk.CallToolRequest, args ListInput) (_ *sdk.CallToolResult, _ ListOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(toolList, start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, toolList); err != nil {
		return nil, ListOutput{}, err
	}

	metas, err := s.store.ListDatasets(ctx)
	if err != nil {
		return nil, ListOutput{}, fmt.Errorf("listing datasets: %w", err)
	}

	items := make([]DatasetItem, 0, len(metas))
	for _, m := range metas {
		items = append(items, datasetItem(m))
	}
	return nil, ListOutput{Datasets: items, Count: len(items)}, nil
}

func datasetItem(m store.DatasetMeta) DatasetItem {
	return DatasetItem{
		ID:          m.ID,
		Name:        m.Name,
		Source:      m.Source,
		Rows:        m.Rows,
		Seed:        m.Seed,
		ContentHash: m.ContentHash,
		CreatedAt:   m.CreatedAt,
	}
}

func columnStats(sm analysis.Summary) ColumnStats {
	return ColumnStats{
		Column: sm.Column,
		Count:  sm.Count,
		Mean:   analysis.Finite(sm.Mean),
		Std:    analysis.Finite(sm.Std),
		Min:    analysis.Finite(sm.Min),
		Q25:    analysis.Finite(sm.Q25),
		Median: analysis.Finite(sm.Median),
		Q75:    analysis.Finite(sm.Q75),
		Max:    analysis.Finite(sm.Max),
	}
}
