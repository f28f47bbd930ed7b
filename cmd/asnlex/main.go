// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mdhender/asnlex"
	"github.com/mdhender/asnlex/model"
	"github.com/mdhender/asnlex/pipelines/stages"
	store "github.com/mdhender/asnlex/stores/sqlite"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func main() {
	addFlags := func(cmd *cobra.Command) error {
		cmd.PersistentFlags().String("config-file", "", "load defaults from a YAML file")
		cmd.PersistentFlags().Bool("debug", false, "log debugging information")
		cmd.PersistentFlags().Bool("log-with-default-flags", false, "log with default flags")
		cmd.PersistentFlags().Bool("log-with-shortfile", false, "log with short file name")
		cmd.PersistentFlags().Bool("log-with-timestamp", false, "log with timestamp")
		cmd.PersistentFlags().Bool("quiet", false, "log less information")
		cmd.PersistentFlags().Bool("show-version", false, "show version")
		cmd.PersistentFlags().Bool("verbose", false, "log more information")
		return nil
	}
	var cmdRoot = &cobra.Command{
		Use:   "asnlex",
		Short: "ASN.1 lexical analysis utility",
		Long:  `Tokenize ASN.1 modules, check identifiers and resolve ambiguous literals`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logWithDefaultFlags, _ := cmd.Flags().GetBool("log-with-default-flags")
			logWithShortFileName, _ := cmd.Flags().GetBool("log-with-shortfile")
			logWithTimestamp, _ := cmd.Flags().GetBool("log-with-timestamp")
			logFlags := 0
			if logWithShortFileName {
				logFlags |= log.Lshortfile
			}
			if logWithTimestamp {
				logFlags |= log.Ltime
			}
			if logWithDefaultFlags {
				logFlags = log.LstdFlags
			}
			log.SetFlags(logFlags)

			if showVersion, _ := cmd.Flags().GetBool("show-version"); showVersion {
				fmt.Printf("asnlex: version %q\n", asnlex.Version().Core())
			}

			if configFile, _ := cmd.Flags().GetString("config-file"); configFile != "" {
				cfg, err := loadConfig(configFile)
				if err != nil {
					return err
				}
				if err := cfg.apply(cmd); err != nil {
					return err
				}
			}

			return nil
		},
	}
	cmdRoot.AddCommand(cmdCanon())
	cmdRoot.AddCommand(cmdCompactDB())
	cmdRoot.AddCommand(cmdInitDB())
	cmdRoot.AddCommand(cmdLex())
	cmdRoot.AddCommand(cmdQuery())
	cmdRoot.AddCommand(cmdResolve())
	cmdRoot.AddCommand(cmdScan())
	cmdRoot.AddCommand(cmdVersion())
	if err := addFlags(cmdRoot); err != nil {
		log.Fatal(err)
	}

	if err := cmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger returns the logger handed to the lexer.
// It is nil unless --verbose or --debug is set.
func newLogger(cmd *cobra.Command) *slog.Logger {
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	if quiet || !(verbose || debug) {
		return nil
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// tokenize reads a file and scans it. Diagnostics are printed to stderr.
func tokenize(ctx context.Context, path string, options ...asnlex.Option) (*asnlex.Result, []byte, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	res, err := asnlex.Tokenize(ctx, path, input, options...)
	if res == nil {
		return nil, nil, err
	}
	text := input
	if res.Source != nil {
		text = res.Source.Text()
	}
	for _, diag := range res.Diagnostics {
		asnlex.PrintDiagnostic(os.Stderr, diag, path, text)
	}
	return res, text, err
}

func cmdLex() *cobra.Command {
	showTiming := false
	strict := false
	unknownOnly := false
	watch := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&showTiming, "show-timing", showTiming, "show timing for each file")
		cmd.Flags().BoolVar(&strict, "strict", strict, "allow only ASCII identifiers")
		cmd.Flags().BoolVar(&unknownOnly, "unknown-only", unknownOnly, "list only UNKNOWN tokens")
		cmd.Flags().BoolVar(&watch, "watch", watch, "scan again whenever a file changes")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "lex <asn1-file> [<asn1-file>...]",
		Short:        "list the tokens of ASN.1 files",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			lexFile := func(ctx context.Context, path string) error {
				started := time.Now()
				res, text, err := tokenize(ctx, path, asnlex.WithLogger(logger), asnlex.WithASCIIIdentifiers(strict))
				if res == nil {
					return err
				}
				for n, tok := range res.Tokens {
					if unknownOnly && tok.IsNot(asnlex.UNKNOWN) {
						continue
					}
					fmt.Printf("%-35s %5d %-24s %q\n", fmt.Sprintf("%s:%d:%d:", path, tok.Line, tok.Column), n+1, tok.Kind, tok.Lexeme(text))
				}
				if showTiming {
					log.Printf("%s: %s tokens, %s diagnostics in %v\n", path,
						humanize.Comma(int64(len(res.Tokens))), humanize.Comma(int64(len(res.Diagnostics))), time.Since(started))
				}
				return err
			}

			ctx := cmd.Context()
			var errs []error
			for _, path := range args {
				if err := lexFile(ctx, path); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", path, err))
				}
			}
			if !watch {
				return errors.Join(errs...)
			}
			for _, err := range errs {
				log.Printf("error: %v\n", err)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchFiles(ctx, args, func(path string) {
				if err := lexFile(ctx, path); err != nil {
					log.Printf("error: %s: %v\n", path, err)
				}
			})
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdResolve() *cobra.Command {
	oidIRI := false
	relative := false
	strict := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&oidIRI, "oid-iri", oidIRI, "resolve every literal as an OID-IRI")
		cmd.Flags().BoolVar(&relative, "relative", relative, "resolve every literal as a relative OID-IRI")
		cmd.Flags().BoolVar(&strict, "strict", strict, "allow only ASCII identifiers")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "resolve <asn1-file>",
		Short:        "resolve the quoted literals of an ASN.1 file",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := asnlex.TargetCharacterString
			if relative {
				target = asnlex.TargetRelativeOidIri
			} else if oidIRI {
				target = asnlex.TargetOidIri
			}

			path := args[0]
			res, text, err := tokenize(cmd.Context(), path, asnlex.WithLogger(newLogger(cmd)), asnlex.WithASCIIIdentifiers(strict))
			if res == nil || res.Fatal != nil {
				return err
			}

			failed := 0
			for _, tok := range res.Tokens {
				if tok.IsNot(asnlex.CharacterOrOidIriLiteral) {
					continue
				}
				v, err := res.Literals.ResolveAs(tok.Handle, tok.Text, target)
				if err != nil {
					if diag, ok := asnlex.NewLiteralDiagnostic(err); ok {
						asnlex.PrintDiagnostic(os.Stderr, diag, path, text)
						failed++
						continue
					}
					return err
				}
				value := v.String
				if v.Kind != asnlex.CharacterStringValue {
					value = v.IRI.String()
				}
				fmt.Printf("%s:%d:%d: %4d %-16s %q\n", path, v.Span.Line, v.Span.Column, v.Handle, v.Kind, value)
			}
			if failed != 0 {
				return fmt.Errorf("%s: %d literals could not be resolved as %s", path, failed, target)
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdCanon() *cobra.Command {
	strict := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&strict, "strict", strict, "allow only ASCII identifiers")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "canon <identifier> [<identifier>...]",
		Short:        "show the canonical form of identifiers",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := asnlex.UnicodeProfile
			if strict {
				profile = asnlex.ASCIIProfile
			}
			var errs []error
			for _, arg := range args {
				id, err := profile.Classify(asnlex.CandidateFromString(arg))
				if err != nil {
					errs = append(errs, err)
					fmt.Printf("%q: %v\n", arg, err)
					continue
				}
				kind := "identifier"
				if asnlex.IsKeyword(id.Text) {
					kind = "keyword"
				}
				fmt.Printf("%q: %q %s %s\n", arg, id.Text, id.Case, kind)
			}
			return errors.Join(errs...)
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdScan() *cobra.Command {
	var dbPath string
	dataDir := "data"
	label := ""
	resetFailed := false
	showDBStats := false
	showTiming := false
	strict := false
	workers := 4
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&dbPath, "db", dbPath, "database file (default in-memory)")
		cmd.Flags().StringVar(&dataDir, "data-dir", dataDir, "directory for stored source units")
		cmd.Flags().StringVar(&label, "label", label, "label for the upload batch")
		cmd.Flags().BoolVar(&resetFailed, "reset-failed", resetFailed, "requeue failed scans before running")
		cmd.Flags().BoolVar(&showDBStats, "show-db-stats", showDBStats, "dump row counts from each table")
		cmd.Flags().BoolVar(&showTiming, "show-timing", showTiming, "show timing for each stage")
		cmd.Flags().BoolVar(&strict, "strict", strict, "allow only ASCII identifiers")
		cmd.Flags().IntVar(&workers, "workers", workers, "number of concurrent scanners")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "scan [<asn1-file>...]",
		Short:        "ingest ASN.1 files and store their scans",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var sqlStore *store.SQLiteStore
			var fs afero.Fs
			var err error
			if dbPath == "" {
				sqlStore, err = store.NewSQLiteStore()
				// nothing outlives the run, so stored copies stay in memory
				fs = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(afero.NewOsFs()), afero.NewMemMapFs())
			} else {
				sqlStore, err = store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: dbPath})
				fs = afero.NewOsFs()
			}
			if err != nil {
				return fmt.Errorf("create store: %w", err)
			}
			defer sqlStore.Close()

			startedPipeline, startedStage := time.Now(), time.Now()

			if len(args) != 0 {
				ingest := stages.NewIngestService(sqlStore, dataDir)
				ingest.SetFS(fs)
				createdBy := os.Getenv("USER")
				batchID, results, err := ingest.IngestPaths(ctx, label, createdBy, args)
				if err != nil {
					return err
				}
				duplicates := 0
				for _, r := range results {
					if r.Duplicate {
						duplicates++
					}
				}
				log.Printf("batch %d: %d files, %d already ingested\n", batchID, len(results), duplicates)
				if showTiming {
					log.Printf("ingest completed in %v\n", time.Since(startedStage))
				}
			}

			if resetFailed {
				n, err := sqlStore.ResetFailedWork(ctx, model.WorkStageScan)
				if err != nil {
					return err
				}
				log.Printf("requeued %d failed scans\n", n)
			}

			startedStage = time.Now()
			worker := stages.NewWorkerService(sqlStore, dataDir, "")
			worker.SetFS(fs)
			worker.SetLogger(newLogger(cmd))
			worker.SetLexerOptions(asnlex.WithASCIIIdentifiers(strict))
			result, err := worker.Drain(ctx, model.WorkStageScan, workers)
			if err != nil {
				return err
			}
			for _, err := range result.Errors {
				log.Printf("error: %v\n", err)
			}
			log.Printf("scanned %d source units, %d failed\n", result.Processed, result.Failed)
			if showTiming {
				log.Printf("scan completed in %v\n", time.Since(startedStage))
			}

			stats, err := sqlStore.Stats(ctx)
			if err != nil {
				return err
			}
			log.Printf("store: %s source units, %s scans, %s diagnostics, %s literals\n",
				humanize.Comma(int64(stats.SourceUnits)), humanize.Comma(int64(stats.Scans)),
				humanize.Comma(int64(stats.Diagnostics)), humanize.Comma(int64(stats.Literals)))

			if showDBStats {
				tableStats, err := sqlStore.TableStats(ctx)
				if err != nil {
					return fmt.Errorf("get table stats: %w", err)
				}
				log.Println("database stats:")
				tables := make([]string, 0, len(tableStats))
				for table := range tableStats {
					tables = append(tables, table)
				}
				sort.Strings(tables)
				for _, table := range tables {
					if tableStats[table] > 0 {
						log.Printf("  %-20s %s rows\n", table, humanize.Comma(tableStats[table]))
					}
				}
				if dbPath != "" {
					if fi, err := os.Stat(dbPath); err == nil {
						log.Printf("  %-20s %s\n", "file size", humanize.Bytes(uint64(fi.Size())))
					}
				}
			}

			if showTiming {
				log.Printf("pipeline completed in %v\n", time.Since(startedPipeline))
			}
			if result.Failed != 0 {
				return fmt.Errorf("%d scans failed", result.Failed)
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdInitDB() *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "init-db <database-file>",
		Short:        "create a database file with the schema applied",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.InitDatabase(args[0]); err != nil {
				return err
			}
			log.Printf("%s: created\n", args[0])
			return nil
		},
	}
	return cmd
}

func cmdCompactDB() *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "compact-db <database-file>",
		Short:        "checkpoint and vacuum a database file",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.CompactDatabase(args[0]); err != nil {
				return err
			}
			if fi, err := os.Stat(args[0]); err == nil {
				log.Printf("%s: compacted to %s\n", args[0], humanize.Bytes(uint64(fi.Size())))
			}
			return nil
		},
	}
	return cmd
}

func cmdQuery() *cobra.Command {
	var dbPath string
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&dbPath, "db", dbPath, "database file")
		return cmd.MarkFlagRequired("db")
	}
	var cmd = &cobra.Command{
		Use:          "query <sql>",
		Short:        "run a raw SQL query against a database file",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlStore, err := store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: dbPath})
			if err != nil {
				return err
			}
			defer sqlStore.Close()

			result := sqlStore.ExecRawQuery(cmd.Context(), args[0])
			if result.Error != "" {
				return errors.New(result.Error)
			}
			fmt.Println(strings.Join(result.Columns, "\t"))
			for _, row := range result.Rows {
				fmt.Println(strings.Join(row, "\t"))
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdVersion() *cobra.Command {
	showBuildInfo := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&showBuildInfo, "build-info", showBuildInfo, "show build information")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "display the application's version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showBuildInfo {
				fmt.Println(asnlex.Version().String())
				return nil
			}
			fmt.Println(asnlex.Version().Core())
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}
