package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lazypower/docrank/internal/engine"
	"github.com/lazypower/docrank/internal/server"
	"github.com/lazypower/docrank/internal/store"
)

// --- learn command ---

var learnFile string

var learnCmd = &cobra.Command{
	Use:   "learn [name[:score]...]",
	Short: "Learn from a ranked result list",
	Long: `Learn from a ranked result list, best first.

Results come from arguments (name or name:score, score defaults to 0)
or from a JSON file given with -f ("-" reads stdin). The JSON shapes are
the same ones POST /api/learn accepts.`,
	RunE: runLearn,
}

func runLearn(cmd *cobra.Command, args []string) error {
	var in engine.Input
	switch {
	case learnFile != "" && len(args) > 0:
		return fmt.Errorf("use either arguments or --file, not both")
	case learnFile != "":
		body, err := readInput(cmd, learnFile)
		if err != nil {
			return err
		}
		in, err = server.DecodeBatch(body)
		if err != nil {
			return err
		}
	default:
		pairs, err := parsePairs(args)
		if err != nil {
			return err
		}
		in = pairs
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	eng, err := openEngine(db)
	if err != nil {
		return err
	}

	stats, err := eng.Learn(cmd.Context(), in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "accepted %d, malformed %d, non-positive %d, decayed %d, relations %d\n",
		stats.Accepted, stats.Malformed, stats.NonPositive, stats.Decayed, stats.Relations)
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return body, nil
}

// parsePairs turns "name" and "name:score" arguments into ranked pairs.
// The last colon splits, so names may contain colons when a score is given.
func parsePairs(args []string) (engine.Pairs, error) {
	pairs := make(engine.Pairs, 0, len(args))
	for _, arg := range args {
		name, score := arg, 0.0
		if i := strings.LastIndex(arg, ":"); i >= 0 {
			f, err := strconv.ParseFloat(arg[i+1:], 64)
			if err == nil {
				name, score = arg[:i], f
			}
		}
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("empty document name in %q", arg)
		}
		pairs = append(pairs, engine.Pair{Document: engine.Ref(name), Score: score})
	}
	return pairs, nil
}

// --- recommend command ---

var recommendN int

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Show recommended documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		eng, err := openEngine(db)
		if err != nil {
			return err
		}

		docs, err := eng.Recommend(cmd.Context(), recommendN)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(docs) == 0 {
			fmt.Fprintln(out, "No recommendations yet.")
			return nil
		}
		for i, d := range docs {
			line := d.Identifier()
			if sd, ok := d.(*store.Document); ok && sd.Title != "" {
				line += "  " + sd.Title
			}
			fmt.Fprintf(out, "%d. %s\n", i+1, line)
		}
		return nil
	},
}

// --- rank command ---

var rankN int

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Show blended ranking values",
	Long:  "Show the candidate ranking behind recommend, including relation boosts, without resolving documents.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		eng, err := openEngine(db)
		if err != nil {
			return err
		}

		ranked, err := eng.Rank(cmd.Context(), rankN)
		if err != nil {
			return err
		}
		if rankN > 0 && len(ranked) > rankN {
			ranked = ranked[:rankN]
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tVALUE\tDIRECT\tBOOST")
		for _, c := range ranked {
			fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\n", c.Name, c.Value, c.Direct, c.Boost)
		}
		return tw.Flush()
	},
}

// --- scores command ---

var (
	scoresLimit int
	scoresMin   float64
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "List stored scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		var entries []store.ScoreEntry
		err = db.View(cmd.Context(), func(s store.Stores) error {
			var err error
			entries, err = s.TopScores(cmd.Context(), scoresLimit, scoresMin)
			return err
		})
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSCORE\tVIEWS\tLAST")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%.4f\t%d\t%.4f\n", e.Name, e.Score, e.ViewCount, e.LastScore)
		}
		return tw.Flush()
	},
}

// --- related command ---

var relatedLimit int

var relatedCmd = &cobra.Command{
	Use:   "related NAME",
	Short: "List the strongest relations of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		var rels []store.Relation
		err = db.View(cmd.Context(), func(s store.Stores) error {
			var err error
			rels, err = s.TopRelated(cmd.Context(), args[0], relatedLimit)
			return err
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(rels) == 0 {
			fmt.Fprintf(out, "No relations for %s.\n", args[0])
			return nil
		}
		for _, r := range rels {
			fmt.Fprintf(out, "%.4f  %s\n", r.Strength, r.To)
		}
		return nil
	},
}

// --- doc commands ---

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage the document directory",
}

var (
	docTitle    string
	docBodyFile string
	docLimit    int
)

var docAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add or replace a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc := &store.Document{Name: args[0], Title: docTitle}
		if docBodyFile != "" {
			body, err := readInput(cmd, docBodyFile)
			if err != nil {
				return err
			}
			doc.Body = string(body)
		}

		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		if err := db.PutDocument(cmd.Context(), doc); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", doc.Name)
		return nil
	},
}

var docGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		doc, err := db.GetDocumentByName(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("document %q not found", args[0])
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", doc.Name)
		if doc.Title != "" {
			fmt.Fprintf(out, "title: %s\n", doc.Title)
		}
		if doc.Body != "" {
			fmt.Fprintf(out, "\n%s\n", doc.Body)
		}
		return nil
	},
}

var docRmCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Remove a document",
	Long:  "Remove a document from the directory. Its learned score and relations stay; recommend skips it until it is added again.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		removed, err := db.DeleteDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("document %q not found", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
		return nil
	},
}

var docLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		docs, err := db.ListDocuments(cmd.Context(), docLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, d := range docs {
			fmt.Fprintf(out, "%s\t%s\n", d.Name, d.Title)
		}
		return nil
	},
}

func init() {
	learnCmd.Flags().StringVarP(&learnFile, "file", "f", "", `JSON batch file ("-" for stdin)`)
	recommendCmd.Flags().IntVarP(&recommendN, "top", "n", 5, "Number of documents")
	rankCmd.Flags().IntVarP(&rankN, "top", "n", 5, "Number of candidates")
	scoresCmd.Flags().IntVarP(&scoresLimit, "limit", "n", 20, "Maximum number of scores")
	scoresCmd.Flags().Float64Var(&scoresMin, "min", 0, "Only show scores above this value")
	relatedCmd.Flags().IntVarP(&relatedLimit, "limit", "n", 10, "Maximum number of relations")

	docAddCmd.Flags().StringVarP(&docTitle, "title", "t", "", "Document title")
	docAddCmd.Flags().StringVarP(&docBodyFile, "body", "b", "", `Body file ("-" for stdin)`)
	docLsCmd.Flags().IntVarP(&docLimit, "limit", "n", 0, "Maximum number of documents (0 for all)")

	docCmd.AddCommand(docAddCmd)
	docCmd.AddCommand(docGetCmd)
	docCmd.AddCommand(docRmCmd)
	docCmd.AddCommand(docLsCmd)
}
