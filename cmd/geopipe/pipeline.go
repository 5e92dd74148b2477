package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/golang/geo/s2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/twpayne/go-geom"

	"github.com/jobrunner/geopipe/internal/adapters/codec"
	"github.com/jobrunner/geopipe/internal/application"
	"github.com/jobrunner/geopipe/internal/config"
	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/spatial/builder"
	"github.com/jobrunner/geopipe/internal/spatial/emit"
	"github.com/jobrunner/geopipe/internal/spatial/pipeline"
	"github.com/jobrunner/geopipe/internal/spatial/trace"
	"github.com/jobrunner/geopipe/internal/spatial/validator"
)

// errRejected is returned when at least one document failed validation.
var errRejected = errors.New("documents rejected")

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Validate spatial documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := documentOptions(cmd, false)
		if err != nil {
			return err
		}
		return validateFiles(cmd.Context(), newDocumentService(opts), opts, args, cmd.OutOrStdout())
	},
}

var buildCmd = &cobra.Command{
	Use:   "build FILE...",
	Short: "Build the shapes of spatial documents and print them re-encoded",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := documentOptions(cmd, true)
		if err != nil {
			return err
		}
		return buildFiles(cmd.Context(), newDocumentService(opts), opts, args, cmd.OutOrStdout())
	},
}

var traceCmd = &cobra.Command{
	Use:   "trace FILE",
	Short: "Print the construction calls a document replays",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := documentOptions(cmd, false)
		if err != nil {
			return err
		}
		return traceFile(opts, args[0], cmd.OutOrStdout())
	},
}

var measureCmd = &cobra.Command{
	Use:   "measure FILE...",
	Short: "Print the spherical area, length and bounds of geography shapes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := documentOptions(cmd, false)
		if err != nil {
			return err
		}
		for _, path := range args {
			if err := measureFile(opts, path, cmd.OutOrStdout()); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{validateCmd, buildCmd, traceCmd, measureCmd} {
		cmd.Flags().String("format", "", "input format (geojson, wkt, wkb, wkbhex); default from file extension")
	}
	buildCmd.Flags().String("output", "", "output format (geojson, wkt, wkb, wkbhex); default from pipeline.output_format")
}

// cliOptions are the pipeline settings of the offline commands.
type cliOptions struct {
	Format           domain.Format // empty derives the format from the file name
	Topology         domain.Topology
	SRID             *int
	Output           domain.Format
	MaxDecimalDigits int
}

func documentOptions(cmd *cobra.Command, build bool) (*cliOptions, error) {
	if cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	pipelineCfg := config.PipelineConfig{
		Topology:         viper.GetString("pipeline.topology"),
		SRID:             viper.GetInt("pipeline.srid"),
		OutputFormat:     viper.GetString("pipeline.output_format"),
		MaxDecimalDigits: viper.GetInt("pipeline.max_decimal_digits"),
	}
	topology, ok := config.ParseTopology(pipelineCfg.Topology)
	if !ok {
		return nil, &domain.ConfigError{Field: "pipeline.topology", Message: fmt.Sprintf("unknown topology %q", pipelineCfg.Topology)}
	}
	if pipelineCfg.SRID < 0 {
		return nil, &domain.ConfigError{Field: "pipeline.srid", Message: fmt.Sprintf("invalid SRID %d", pipelineCfg.SRID)}
	}

	opts := &cliOptions{
		Topology:         topology,
		SRID:             pipelineCfg.SRIDOverride(),
		MaxDecimalDigits: pipelineCfg.MaxDecimalDigits,
	}

	if f, _ := cmd.Flags().GetString("format"); f != "" {
		format, ok := domain.ParseFormat(f)
		if !ok {
			return nil, errors.Wrapf(domain.ErrUnsupportedFormat, "input format %q", f)
		}
		opts.Format = format
	}

	if build {
		output := pipelineCfg.OutputFormat
		if o, _ := cmd.Flags().GetString("output"); o != "" {
			output = o
		}
		format, ok := domain.ParseFormat(output)
		if !ok {
			return nil, errors.Wrapf(domain.ErrUnsupportedFormat, "output format %q", output)
		}
		opts.Output = format
	}

	return opts, nil
}

func newDocumentService(opts *cliOptions) *application.DocumentService {
	return application.NewDocumentService(codec.New(opts.MaxDecimalDigits), nil, nil, slog.Default())
}

// readDocument reads a file and resolves its format.
func readDocument(opts *cliOptions, path string) ([]byte, domain.Format, error) {
	format := opts.Format
	if format == "" {
		f, ok := domain.FormatFromPath(path)
		if !ok {
			return nil, "", errors.Wrapf(domain.ErrUnsupportedFormat, "%s: use --format", path)
		}
		format = f
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, format, nil
}

func process(ctx context.Context, svc *application.DocumentService, opts *cliOptions, path string) (*domain.ProcessResult, error) {
	data, format, err := readDocument(opts, path)
	if err != nil {
		return nil, err
	}
	return svc.Process(ctx, domain.ProcessRequest{
		DocumentID: domain.DocumentID(path),
		Payload:    data,
		Format:     format,
		Topology:   opts.Topology,
		SRID:       opts.SRID,
		Output:     opts.Output,
	})
}

// validateFiles prints one line per file and fails if any file is rejected.
func validateFiles(ctx context.Context, svc *application.DocumentService, opts *cliOptions, paths []string, w io.Writer) error {
	rejected := 0
	for _, path := range paths {
		result, err := process(ctx, svc, opts, path)
		if err != nil {
			rejected++
			if kind, ok := application.FormatErrorKind(err); ok {
				fmt.Fprintf(w, "%s: invalid [%s]: %v\n", path, kind, err)
			} else {
				fmt.Fprintf(w, "%s: invalid: %v\n", path, err)
			}
			continue
		}
		fmt.Fprintf(w, "%s: valid (%s)\n", path, describeShapes(result.Shapes))
	}
	if rejected > 0 {
		return errors.Wrapf(errRejected, "%d of %d", rejected, len(paths))
	}
	return nil
}

// buildFiles prints every built shape in the output format, one per line.
// Binary WKB is written as hex.
func buildFiles(ctx context.Context, svc *application.DocumentService, opts *cliOptions, paths []string, w io.Writer) error {
	if opts.Output == domain.FormatWKB {
		opts.Output = domain.FormatWKBHex
	}
	for _, path := range paths {
		result, err := process(ctx, svc, opts, path)
		if err != nil {
			return err
		}
		for _, data := range result.Encoded {
			fmt.Fprintf(w, "%s\n", data)
		}
	}
	return nil
}

// traceFile replays a document through a call log into the validator and
// prints the calls up to the first rejected one.
func traceFile(opts *cliOptions, path string, w io.Writer) error {
	data, format, err := readDocument(opts, path)
	if err != nil {
		return err
	}
	shapes, err := codec.New(opts.MaxDecimalDigits).Decode(format, data)
	if err != nil {
		return err
	}

	calls := trace.NewCallLog()
	head := pipeline.Chain(calls, validator.New())
	var target pipeline.TypeWashedPipeline
	if opts.Topology == domain.TopologyGeometry {
		target = pipeline.NewGeometryAdapter(head.GeometryPipeline())
	} else {
		target = pipeline.NewGeographyLongLatAdapter(head.GeographyPipeline())
	}

	err = replay(target, shapes, opts.SRID)
	if _, werr := calls.WriteTo(w); werr != nil {
		return werr
	}
	return err
}

// measureFile builds the geographies of a document and prints one line per
// shape: type, area in square metres, length in metres and the bounding
// box as min longitude, min latitude, max longitude, max latitude.
func measureFile(opts *cliOptions, path string, w io.Writer) error {
	if opts.Topology != domain.TopologyGeography {
		return &domain.ConfigError{Field: "pipeline.topology", Message: "measure needs geography shapes"}
	}
	data, format, err := readDocument(opts, path)
	if err != nil {
		return err
	}
	shapes, err := codec.New(opts.MaxDecimalDigits).Decode(format, data)
	if err != nil {
		return err
	}

	var built []*builder.Geography
	b := builder.New(builder.OnGeography(func(g *builder.Geography) { built = append(built, g) }))
	head := pipeline.Chain(validator.New(), b)
	if err := replay(pipeline.NewGeographyLongLatAdapter(head.GeographyPipeline()), shapes, opts.SRID); err != nil {
		return errors.Wrap(err, path)
	}

	for _, g := range built {
		area, err := g.Area()
		if err != nil {
			return err
		}
		length, err := g.Length()
		if err != nil {
			return err
		}
		bound, err := g.Bound()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %s area=%.0f length=%.0f bbox=%s\n", path, g.Type(), area, length, formatBound(bound))
	}
	return nil
}

func formatBound(r s2.Rect) string {
	if r.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%g,%g,%g,%g",
		r.Lo().Lng.Degrees(), r.Lo().Lat.Degrees(),
		r.Hi().Lng.Degrees(), r.Hi().Lat.Degrees())
}

func replay(target pipeline.TypeWashedPipeline, shapes []geom.T, srid *int) error {
	for i, g := range shapes {
		if err := emit.Emit(target, g, srid); err != nil {
			return errors.Wrapf(err, "shape %d", i)
		}
	}
	return nil
}

func describeShapes(shapes []domain.ShapeSummary) string {
	parts := make([]string, len(shapes))
	for i, s := range shapes {
		parts[i] = fmt.Sprintf("%s %d", s.Type, s.SRID)
	}
	return strings.Join(parts, ", ")
}
