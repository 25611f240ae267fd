package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/morphotools/morphoverify/internal/conf"
	"github.com/morphotools/morphoverify/internal/errors"
	"github.com/morphotools/morphoverify/internal/logging"
	"github.com/morphotools/morphoverify/internal/morphosource"
)

// RunFile reconciles one input table against the registry and writes the
// annotated output next to a printed summary. This is the verify command's
// entry point.
func RunFile(ctx context.Context, settings *conf.Settings) error {
	log := logging.ForService("reconcile")
	if log == nil {
		log = slog.Default()
	}

	// Structural failures surface before any row is processed: the input must
	// be readable with all required columns, and a credential must be set.
	t, err := ReadTable(settings.InputFile)
	if err != nil {
		return err
	}
	if err := conf.RequireAPIKey(settings); err != nil {
		return err
	}

	clientOpts := []morphosource.Option{
		morphosource.WithDebug(settings.MorphoSource.Debug || settings.Debug),
	}
	if settings.Dump.Enabled && settings.Dump.Count > 0 {
		clientOpts = append(clientOpts,
			morphosource.WithDumpSink(morphosource.DirSink{Dir: settings.Dump.Path}, settings.Dump.Count))
	}

	client, err := morphosource.NewClient(morphosource.Config{
		APIKey:    settings.MorphoSource.APIKey,
		BaseURL:   settings.MorphoSource.Endpoint,
		Timeout:   settings.RequestTimeout(),
		RateLimit: settings.RateLimit(),
		PerPage:   settings.MorphoSource.PerPage,
	}, clientOpts...)
	if err != nil {
		return err
	}
	defer client.Close()

	reconciler := NewRowReconciler(client, settings.MorphoSource.Tolerance, log)
	batch := NewBatch(reconciler, log)

	records, summary, err := batch.Run(ctx, t)
	if err != nil {
		return err
	}

	outputPath := OutputPath(settings.Output.Dir, settings.InputFile)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return errors.Newf("cannot create output directory: %w", err).
			Category(errors.CategoryFileIO).
			Context("path", filepath.Dir(outputPath)).
			Component("reconcile").
			Build()
	}
	if err := WriteTable(outputPath, t, records); err != nil {
		return err
	}

	log.Info("Annotated table written", "path", outputPath)

	fmt.Println(summary.Render())
	fmt.Printf("Output file: %s\n", outputPath)

	return nil
}

// OutputPath derives the annotated output file path from the input file name.
func OutputPath(dir, inputPath string) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(dir, "matched-"+stem+".csv")
}
