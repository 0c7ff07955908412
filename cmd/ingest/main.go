package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tutanak-ai/tutanak/internal/buildconfig"
	"github.com/tutanak-ai/tutanak/internal/config"
	"github.com/tutanak-ai/tutanak/internal/domain"
	"github.com/tutanak-ai/tutanak/internal/embedding"
	"github.com/tutanak-ai/tutanak/internal/parser"
	"github.com/tutanak-ai/tutanak/internal/resolver"
	"github.com/tutanak-ai/tutanak/internal/service"
	"github.com/tutanak-ai/tutanak/internal/store"
)

var (
	dryRun    bool
	kindFlag  string
	minLength int
)

var rootCmd = &cobra.Command{
	Use:   "tutanak-ingest [paths...]",
	Short: "Ingest proceeding transcripts into the statement store",
	Long: `Parses plain-text proceeding transcripts, resolves speakers, embeds
statements, and stores them for contradiction detection.

Each argument is a .txt file or a directory scanned recursively for .txt
files. Pages inside a file are separated by form-feed characters; a file
without form feeds is a single page. Session dates and kinds are recovered
from file names (e.g. komisyon_2641_20240312.txt) unless --kind overrides
the kind.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tutanak-ingest %s (%s)\n", buildconfig.Version(), buildconfig.Commit())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and report without storing anything")
	rootCmd.Flags().StringVar(&kindFlag, "kind", "", "session kind override (commission, general_assembly, interview, social)")
	rootCmd.Flags().IntVar(&minLength, "min-length", 0, "minimum statement length in runes (0 uses the default)")
}

func run(cmd *cobra.Command, args []string) error {
	if kindFlag != "" && !domain.ValidSessionKind(kindFlag) {
		return fmt.Errorf("invalid kind: %s", kindFlag)
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .txt files found under %s", strings.Join(args, ", "))
	}

	if dryRun {
		return runDry(files)
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		return err
	}
	dbURL := config.DatabaseURL()
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx := cmd.Context()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	embedder, err := embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey())
	if err != nil {
		return err
	}

	identityStore := store.NewIdentityStore(pool)
	speakerResolver := resolver.New(identityStore, logger)
	svc := service.NewIngestService(store.NewStatementStore(pool), speakerResolver, embedder, logger)
	svc.SetMinStatementLen(minLength)

	var totalStatements int
	for _, f := range files {
		doc, err := loadDocument(f)
		if err != nil {
			return err
		}
		stats, err := svc.IngestDocument(ctx, doc)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", f, err)
		}
		totalStatements += stats.Statements
		fmt.Printf("%s: %d statements, %d speakers\n", stats.SourceID, stats.Statements, stats.Speakers)
	}

	fmt.Printf("done: %d documents, %d statements\n", len(files), totalStatements)
	return nil
}

func runDry(files []string) error {
	opts := parser.Options{MinStatementLen: minLength}
	for _, f := range files {
		doc, err := loadDocument(f)
		if err != nil {
			return err
		}
		records, err := parser.Parse(doc, opts)
		if err != nil {
			return fmt.Errorf("parse %s: %w", f, err)
		}

		speakers := make(map[string]struct{})
		for _, r := range records {
			speakers[r.RawSpeaker] = struct{}{}
		}
		fmt.Printf("%s: %d statements, %d speakers (dry run)\n", doc.ID, len(records), len(speakers))
	}
	return nil
}

func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".txt") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// loadDocument reads a transcript file into a source document. Form feeds
// mark page boundaries; page numbers are positional starting at 1.
func loadDocument(path string) (domain.SourceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SourceDocument{}, err
	}

	doc := domain.SourceDocument{
		ID:   filepath.Base(path),
		Kind: domain.SessionKind(kindFlag),
	}
	for i, page := range strings.Split(string(data), "\f") {
		doc.Pages = append(doc.Pages, domain.SourcePage{Number: i + 1, Text: page})
	}
	return doc, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
