// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mdhender/phylotree"
	"github.com/mdhender/phylotree/config"
	"github.com/mdhender/phylotree/nexus"
	"github.com/mdhender/phylotree/pipelines/stages"
	store "github.com/mdhender/phylotree/stores/sqlite"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// loadTree returns tree cfg.Index of the source. With a file ID the tree
// is read from the database, otherwise the NEXUS file at path is parsed
// and its translate-table tokens are replaced with taxon names.
func loadTree(cmd *cobra.Command, cfg *config.Config, fileID int64, path string) (*phylotree.Tree, error) {
	if fileID > 0 {
		s, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return stages.NewLoadService(s, cfg.Workers).LoadTree(context.Background(), fileID, cfg.Index)
	}
	f, err := nexus.ReadFile(afero.NewOsFs(), path)
	if err != nil {
		return nil, err
	}
	rec, err := f.Tree(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	source := fmt.Sprintf("%s:%s", path, rec.Name)
	tree, err := rec.Parse(phylotree.WithLogger(newLogger(cmd)), phylotree.WithSourceName(source))
	if err != nil {
		if text, textErr := phylotree.RecordText(rec.Text); textErr == nil {
			return nil, reportError(err, source, []byte(text))
		}
		return nil, err
	}
	f.Translate(tree)
	return tree, nil
}

// loadTrees returns every tree of the source, from the database when a
// file ID is given.
func loadTrees(cmd *cobra.Command, cfg *config.Config, fileID int64, path string) ([]*phylotree.Tree, error) {
	ctx := context.Background()
	if fileID > 0 {
		s, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return stages.NewLoadService(s, cfg.Workers).LoadFile(ctx, fileID)
	}
	parser := stages.NewParseService(cfg.Workers, newLogger(cmd))
	return stages.NewIngestService(nil, parser).ParseFile(ctx, path)
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("--file-id needs a database (--db or the configuration file)")
	}
	return store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: cfg.Database})
}

// splitSource separates the NEXUS file argument from the rest. There is
// no file argument when the trees come from the database.
func splitSource(fileID int64, args []string, rest int) (path string, others []string, err error) {
	if fileID <= 0 {
		if len(args) == 0 {
			return "", nil, fmt.Errorf("missing NEXUS file (or --file-id)")
		}
		path, args = args[0], args[1:]
	}
	if len(args) > rest {
		return "", nil, fmt.Errorf("too many arguments")
	}
	return path, args, nil
}

func cmdLex() *cobra.Command {
	index := -1
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().IntVar(&index, "index", index, "use the n-th tree, -1 for the last")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "lex <nexus-file>",
		Short:        "print the tokens of one tree",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			f, err := nexus.ReadFile(afero.NewOsFs(), args[0])
			if err != nil {
				return err
			}
			rec, err := f.Tree(cfg.Index)
			if err != nil {
				return err
			}
			text, err := phylotree.RecordText(rec.Text)
			if err != nil {
				return err
			}
			input := []byte(text)
			tokens, err := phylotree.NewLexer(context.Background(), rec.Name, input, newLogger(cmd)).All()
			if err != nil {
				return reportError(err, rec.Name, input)
			}
			for n, tok := range tokens {
				fmt.Printf("%-20s %5d %-12s %4d %q\n", fmt.Sprintf("%s:%d:%d:", rec.Name, tok.Line, tok.Column), n+1, tok.Kind, tok.Length(), tok.Lexeme(input))
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdParse() *cobra.Command {
	var dbPath string
	var outputFile string
	workers := 0
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&dbPath, "db", dbPath, "store the trees in this SQLite database")
		cmd.Flags().StringVarP(&outputFile, "output", "o", outputFile, "save the parsed trees as JSON")
		cmd.Flags().IntVar(&workers, "workers", workers, "trees parsed at the same time, 0 for one per CPU")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "parse <nexus-file>",
		Short:        "parse every tree of a NEXUS file",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			started := time.Now()
			parser := stages.NewParseService(cfg.Workers, newLogger(cmd))

			if cfg.Database != "" {
				s, err := store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: cfg.Database})
				if err != nil {
					return err
				}
				defer s.Close()
				result, err := stages.NewIngestService(s, parser).IngestFile(ctx, args[0])
				if err != nil {
					return err
				}
				if result.Duplicate {
					log.Printf("%s: already stored as file %d\n", args[0], result.TreeFileID)
					return nil
				}
				stats, err := s.TableStats(ctx)
				if err != nil {
					return err
				}
				log.Printf("%s: stored %s trees from %s as file %d in %v\n", args[0], humanize.Comma(int64(result.Trees)), humanize.Bytes(uint64(result.Bytes)), result.TreeFileID, time.Since(started))
				log.Printf("%s: %s files, %s trees, %s nodes, %s annotations\n", cfg.Database,
					humanize.Comma(int64(stats.TreeFiles)), humanize.Comma(int64(stats.Trees)),
					humanize.Comma(int64(stats.Nodes)), humanize.Comma(int64(stats.Annotations)))
				return nil
			}

			trees, err := stages.NewIngestService(nil, parser).ParseFile(ctx, args[0])
			if err != nil {
				return err
			}
			log.Printf("%s: parsed %s trees in %v\n", args[0], humanize.Comma(int64(len(trees))), time.Since(started))
			if outputFile == "" {
				return nil
			}
			buf := &bytes.Buffer{}
			enc := json.NewEncoder(buf)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			if err := enc.Encode(trees); err != nil {
				return err
			}
			data := buf.Bytes()
			if err := os.WriteFile(outputFile, data, 0o644); err != nil {
				return err
			}
			log.Printf("%s: wrote %s\n", outputFile, humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdClades() *cobra.Command {
	index := -1
	var dbPath string
	var fileID int64
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().IntVar(&index, "index", index, "use the n-th tree, -1 for the last")
		cmd.Flags().StringVar(&dbPath, "db", dbPath, "SQLite database holding the trees")
		cmd.Flags().Int64Var(&fileID, "file-id", fileID, "read the trees of this stored file instead of a NEXUS file")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "clades [nexus-file]",
		Short:        "print the clade labels of one tree",
		SilenceUsage: true,
		Args:         cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path, _, err := splitSource(fileID, args, 0)
			if err != nil {
				return err
			}
			tree, err := loadTree(cmd, cfg, fileID, path)
			if err != nil {
				return err
			}
			clades := phylotree.LabelClades(tree)
			labels := make([]string, 0, len(clades))
			for label := range clades {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			for _, label := range labels {
				fmt.Printf("%5d %s\n", clades[label], label)
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdCombine() *cobra.Command {
	index := -1
	workers := 0
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().IntVar(&index, "index", index, "use the n-th tree of each file, -1 for the last")
		cmd.Flags().IntVar(&workers, "workers", workers, "files read at the same time, 0 for one per CPU")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "combine <template> <items> <tag> [output]",
		Short: "merge one annotation across runs that share a topology",
		Long: `Each line of the items file replaces {} in the template to name one NEXUS file.
The output defaults to the "output" value of the configuration file.`,
		SilenceUsage: true,
		Args:         cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			output := cfg.Output
			if len(args) == 4 {
				output = args[3]
			}
			if output == "" {
				return fmt.Errorf("combine: no output file")
			}
			svc := stages.NewCombineService(stages.NewParseService(cfg.Workers, newLogger(cmd)))
			items, err := svc.ReadItems(args[1])
			if err != nil {
				return err
			}
			tree, err := svc.Combine(context.Background(), stages.CombineRequest{
				Template: args[0],
				Items:    items,
				Tag:      args[2],
				Index:    cfg.Index,
			})
			if err != nil {
				return err
			}
			if err := svc.WriteTree(output, "combined", tree); err != nil {
				return err
			}
			log.Printf("%s: combined %q across %d trees\n", output, phylotree.NormalizeKey(args[2]), len(items))
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdTrack() *cobra.Command {
	burnin := 0
	coding := "standard"
	workers := 0
	var dbPath string
	var fileID int64
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().IntVar(&burnin, "burnin", burnin, "discard the first n samples")
		cmd.Flags().StringVar(&coding, "coding", coding, "standard, covarion or pdcovarion")
		cmd.Flags().IntVar(&workers, "workers", workers, "trees parsed at the same time, 0 for one per CPU")
		cmd.Flags().StringVar(&dbPath, "db", dbPath, "SQLite database holding the trees")
		cmd.Flags().Int64Var(&fileID, "file-id", fileID, "read the trees of this stored file instead of a NEXUS file")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "track [nexus-file] <tag> <clade>",
		Short: "follow a clade through a sample of trees",
		Long: `The clade is a list of taxa separated by ':' in any order, or ROOT.
With --file-id the sample is read from the database and the file argument is omitted.`,
		SilenceUsage: true,
		Args:         cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path, rest, err := splitSource(fileID, args, 2)
			if err != nil {
				return err
			} else if len(rest) != 2 {
				return fmt.Errorf("track: want <tag> <clade>")
			}
			trees, err := loadTrees(cmd, cfg, fileID, path)
			if err != nil {
				return err
			}
			track, err := stages.TrackClade(trees, rest[1], rest[0], cfg.CodingValue(), cfg.Burnin)
			if err != nil {
				return err
			}
			for _, sample := range track.Samples {
				fmt.Printf("%6d %s\n", sample.Index, joinStates(sample.States))
			}
			source := path
			if fileID > 0 {
				source = fmt.Sprintf("%s:%d", cfg.Database, fileID)
			}
			log.Printf("%s: clade %s in %d of %d trees (%.3f)\n", source, track.Clade, track.Matched, track.Total, track.Frequency())
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdStates() *cobra.Command {
	index := -1
	coding := "standard"
	leavesOnly := false
	var dbPath string
	var fileID int64
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().IntVar(&index, "index", index, "use the n-th tree, -1 for the last")
		cmd.Flags().StringVar(&coding, "coding", coding, "standard, covarion or pdcovarion")
		cmd.Flags().BoolVar(&leavesOnly, "leaves", leavesOnly, "print leaves only")
		cmd.Flags().StringVar(&dbPath, "db", dbPath, "SQLite database holding the trees")
		cmd.Flags().Int64Var(&fileID, "file-id", fileID, "read the trees of this stored file instead of a NEXUS file")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "states [nexus-file] [tag]",
		Short: "print the state matrix of one tree",
		Long: `The tag defaults to the "tag" value of the configuration file.
With --file-id the tree is read from the database and the file argument is omitted.`,
		SilenceUsage: true,
		Args:         cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path, rest, err := splitSource(fileID, args, 1)
			if err != nil {
				return err
			}
			tag := cfg.Tag
			if len(rest) == 1 {
				tag = rest[0]
			}
			if tag == "" {
				return fmt.Errorf("states: no tag")
			}
			tree, err := loadTree(cmd, cfg, fileID, path)
			if err != nil {
				return err
			}
			if leavesOnly {
				matrix, ids, err := phylotree.LeafMatrix(tree, tag, cfg.CodingValue())
				if err != nil {
					return err
				}
				for i, row := range matrix {
					fmt.Printf("%5d %-20s %s\n", ids[i], tree.Node(ids[i]).Name, joinStates(row))
				}
				return nil
			}
			matrix, err := phylotree.StateMatrix(tree, tag, cfg.CodingValue())
			if err != nil {
				return err
			}
			for id, row := range matrix {
				fmt.Printf("%5d %-20s %s\n", id, tree.Node(id).Name, joinStates(row))
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func joinStates(states []int) string {
	var sb strings.Builder
	for i, state := range states {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", state)
	}
	return sb.String()
}
