package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/mtgrules/pkg/config"
	"github.com/coolbeans/mtgrules/pkg/glossary"
	"github.com/coolbeans/mtgrules/pkg/history"
	"github.com/coolbeans/mtgrules/pkg/reference"
	"github.com/coolbeans/mtgrules/pkg/render"
	"github.com/coolbeans/mtgrules/pkg/rules"
	"github.com/coolbeans/mtgrules/pkg/search"
)

var version = "0.1.0"

// Global state set up before every command
var (
	cfg        *config.Config
	logger     *zap.Logger
	versionKey rules.VersionKey
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mtgrules",
		Short: "Magic: The Gathering comprehensive rules explorer",
		Long: `mtgrules browses the Magic: The Gathering comprehensive rules.

It resolves rule citations such as "See rule 704" to the subsection that
owns them and offers:
  - Ranked search over subsections and subrules
  - A flat rule index with highlighted matches
  - The glossary and the change history between editions
  - A JSON API (serve) and an interactive terminal explorer (explore)`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Configuration file")
	rootCmd.PersistentFlags().String("data", "", "Rules document (default: bundled rules)")
	rootCmd.PersistentFlags().String("version-key", "", "Rules edition (current, previous)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(versionsCmd())
	rootCmd.AddCommand(sectionsCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(refsCmd())
	rootCmd.AddCommand(glossaryCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exploreCmd())

	return rootCmd
}

// setup loads the configuration, applies flag overrides and builds the
// logger.
func setup(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dataPath, _ := cmd.Flags().GetString("data")
	key, _ := cmd.Flags().GetString("version-key")
	verbose, _ := cmd.Flags().GetBool("verbose")

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dataPath != "" {
		loaded.Data = dataPath
	}
	if key != "" {
		loaded.DefaultVersion = key
	}
	if versionKey, err = loaded.Version(); err != nil {
		return err
	}

	// The explorer owns the terminal.
	if cmd.Name() == "explore" {
		logger = zap.NewNop()
	} else if logger, err = loaded.Logger(verbose); err != nil {
		return err
	}

	cfg = loaded
	return nil
}

func openRegistry() (*rules.Registry, error) {
	registry, err := rules.NewRegistry(cfg.Data, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return registry, nil
}

func openVersion() (*rules.Store, *rules.Version, error) {
	registry, err := openRegistry()
	if err != nil {
		return nil, nil, err
	}
	store := registry.Store()
	v, err := store.GetVersion(versionKey)
	if err != nil {
		return nil, nil, err
	}
	return store, v, nil
}

func printJSON(out io.Writer, v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize JSON: %w", err)
	}
	fmt.Fprintln(out, string(jsonData))
	return nil
}

func unknownFormat(format string, valid ...string) error {
	return fmt.Errorf("unknown format: %s (use %s)", format, strings.Join(valid, " or "))
}

func versionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List the rules editions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")
			registry, err := openRegistry()
			if err != nil {
				return err
			}
			versions := registry.Store().Versions()
			out := cmd.OutOrStdout()

			switch formatStr {
			case "table":
				fmt.Fprintf(out, "%-10s %-36s %-20s %s\n", "KEY", "EDITION", "DATE", "SUBSECTIONS")
				for _, v := range versions {
					fmt.Fprintf(out, "%-10s %-36s %-20s %d\n", v.Key, v.Label, v.Date, v.SubsectionCount())
				}
			case "json":
				return printJSON(out, versions)
			default:
				return unknownFormat(formatStr, "table", "json")
			}
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
	return cmd
}

func sectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List sections and their subsections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, v, err := openVersion()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(v.Sections) == 0 {
				fmt.Fprintf(out, "No rules are loaded for %s.\n", v.Label)
				return nil
			}
			for _, section := range v.Sections {
				fmt.Fprintln(out, section.Title())
				for _, sub := range section.Subsections {
					fmt.Fprintf(out, "  %s\n", sub.Title())
				}
			}
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <rule>",
		Short: "Show the subsection that owns a rule",
		Long: `Show the subsection that owns a rule number.

Example:
  mtgrules show 101.2
  mtgrules show 704 --format markdown
  mtgrules show 201 --version-key previous`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")
			style, _ := cmd.Flags().GetString("style")
			width, _ := cmd.Flags().GetInt("width")

			store, v, err := openVersion()
			if err != nil {
				return err
			}
			subID, ok := rules.SubsectionOf(args[0])
			if !ok {
				return fmt.Errorf("not a rule number: %q", args[0])
			}
			section, ok := v.Locate(subID)
			if !ok {
				return fmt.Errorf("rule %s is not part of the %s edition: %w", args[0], v.Key, rules.ErrNotFound)
			}
			sub, _ := section.Subsection(subID)
			out := cmd.OutOrStdout()

			switch formatStr {
			case "markdown":
				fmt.Fprint(out, render.Subsection(store, v, sub))
			case "terminal":
				term, err := render.NewTerminal(width, style)
				if err != nil {
					return err
				}
				rendered, err := term.Render(render.Subsection(store, v, sub))
				if err != nil {
					return err
				}
				fmt.Fprint(out, rendered)
			case "json":
				return printJSON(out, sub)
			default:
				return unknownFormat(formatStr, "terminal", "markdown", "json")
			}
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "terminal", "Output format (terminal, markdown, json)")
	cmd.Flags().String("style", "", "Terminal style (dark, light, notty; default: detect)")
	cmd.Flags().Int("width", 80, "Terminal word wrap width")
	return cmd
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search subsections and subrules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")
			limit, _ := cmd.Flags().GetInt("limit")

			_, v, err := openVersion()
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			results := search.Search(v, query)
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}
			out := cmd.OutOrStdout()

			switch formatStr {
			case "table":
				if len(results) == 0 {
					fmt.Fprintf(out, "No results for %q.\n", query)
					return nil
				}
				for _, result := range results {
					fmt.Fprintf(out, "%-34s %-10s %d  %s\n",
						truncateString(result.Title, 34), result.Type, result.Relevance, truncateString(result.Content, 60))
				}
			case "json":
				return printJSON(out, results)
			default:
				return unknownFormat(formatStr, "table", "json")
			}
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
	cmd.Flags().IntP("limit", "n", 0, "Maximum number of results (0 for all)")
	return cmd
}

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <query>",
		Short: "Look up rules by number or text in the flat rule index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, v, err := openVersion()
			if err != nil {
				return err
			}
			query := strings.TrimSpace(strings.Join(args, " "))
			entries, err := search.NewFlatIndex(v).Search(query)
			if err != nil {
				return err
			}

			match := lipgloss.NewStyle().Bold(true).Underline(true)
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				var b strings.Builder
				for _, span := range search.Highlight(entry.Text, query) {
					if span.Match {
						b.WriteString(match.Render(span.Text))
					} else {
						b.WriteString(span.Text)
					}
				}
				fmt.Fprintf(out, "%-8s %s\n", entry.ID, b.String())
			}
			fmt.Fprintf(out, "\n%d of %d rules match\n", len(entries), search.NewFlatIndex(v).Len())
			return nil
		},
	}
}

func refsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refs <text>",
		Short: "Find rule citations in text",
		Long: `Find rule citations such as "See rule 704" in a piece of text.

Example:
  mtgrules refs 'See rule 113, "Abilities," and rule 602.'
  mtgrules refs --glossary 'See rule 102.1.' --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")
			glossaryRules, _ := cmd.Flags().GetBool("glossary")

			parser := reference.NewParser()
			if glossaryRules {
				parser = reference.NewGlossaryParser()
			}
			segments := parser.Parse(strings.Join(args, " "))
			out := cmd.OutOrStdout()

			switch formatStr {
			case "table":
				refs := reference.References(segments)
				for _, ref := range refs {
					fmt.Fprintf(out, "%-10s %-6d %s\n", ref.Rule, ref.Offset, ref.Text)
				}
				fmt.Fprintf(out, "\n%d references\n", len(refs))
			case "json":
				return printJSON(out, segments)
			default:
				return unknownFormat(formatStr, "table", "json")
			}
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
	cmd.Flags().Bool("glossary", false, "Use the glossary citation pattern")
	return cmd
}

func glossaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary [term]",
		Short: "Browse the glossary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			letter, _ := cmd.Flags().GetString("letter")
			query, _ := cmd.Flags().GetString("query")

			registry, err := openRegistry()
			if err != nil {
				return err
			}
			g := registry.Store().Glossary()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				term, ok := g.Lookup(args[0])
				if !ok {
					return fmt.Errorf("glossary term %q: %w", args[0], rules.ErrNotFound)
				}
				fmt.Fprintf(out, "%s\n\n%s\n", term.Name, term.Definition)
				if refs := reference.References(g.Segments(term)); len(refs) > 0 {
					cited := make([]string, len(refs))
					for i, ref := range refs {
						cited[i] = ref.Rule
					}
					fmt.Fprintf(out, "\nSee: %s\n", strings.Join(cited, ", "))
				}
				return nil
			}

			var terms []glossary.Term
			if query != "" {
				if terms, err = g.Search(query); err != nil {
					return err
				}
			} else {
				terms = g.ByLetter(letter)
			}
			for _, term := range terms {
				fmt.Fprintf(out, "%-24s %s\n", term.Name, truncateString(term.Definition, 70))
			}
			fmt.Fprintf(out, "\n%d of %d terms · letters: %s\n", len(terms), g.Len(), strings.Join(g.Letters(), " "))
			return nil
		},
	}
	cmd.Flags().StringP("letter", "l", glossary.AllLetters, "Show terms starting with this letter")
	cmd.Flags().StringP("query", "q", "", "Search names and definitions")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show rule changes between editions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			edition, _ := cmd.Flags().GetString("edition")
			query, _ := cmd.Flags().GetString("query")
			rule, _ := cmd.Flags().GetString("rule")

			registry, err := openRegistry()
			if err != nil {
				return err
			}
			h := registry.Store().History()
			out := cmd.OutOrStdout()

			if rule != "" {
				changes := h.ForRule(rule)
				if len(changes) == 0 {
					fmt.Fprintf(out, "No recorded changes to rule %s.\n", rule)
					return nil
				}
				for _, change := range changes {
					printChange(out, change.Version, change.Date, change.Change)
				}
				return nil
			}

			for _, entry := range h.Filter(edition, query) {
				for _, change := range entry.Changes {
					printChange(out, entry.Version, entry.Date, change)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("edition", history.AllVersions, "Only show changes of this edition")
	cmd.Flags().StringP("query", "q", "", "Filter by rule number or text")
	cmd.Flags().StringP("rule", "r", "", "Show every change to one rule")
	return cmd
}

func printChange(out io.Writer, edition, date string, change history.Change) {
	fmt.Fprintf(out, "%s (%s) rule %s\n", edition, date, change.Rule)
	fmt.Fprintf(out, "  - %s\n", change.Old)
	fmt.Fprintf(out, "  + %s\n\n", change.New)
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a rules document",
		Long: `Validate a rules document and print what it contains.

Without a path the configured document (or the bundled one) is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.Data
			if len(args) == 1 {
				path = args[0]
			}

			var (
				store *rules.Store
				err   error
			)
			if path == "" {
				store, err = rules.Default()
			} else {
				store, err = rules.LoadFile(path)
			}
			out := cmd.OutOrStdout()

			var invalid *rules.ValidationError
			if errors.As(err, &invalid) {
				fmt.Fprintf(out, "%d problems:\n", len(invalid.Problems))
				for _, problem := range invalid.Problems {
					fmt.Fprintf(out, "  - %s\n", problem)
				}
				return fmt.Errorf("rules document is invalid")
			}
			if err != nil {
				return err
			}

			stats := store.Stats()
			fmt.Fprintln(out, "Rules document is valid")
			fmt.Fprintf(out, "  Editions:         %d\n", stats.Versions)
			fmt.Fprintf(out, "  Sections:         %d\n", stats.Sections)
			fmt.Fprintf(out, "  Subsections:      %d\n", stats.Subsections)
			fmt.Fprintf(out, "  Subrules:         %d\n", stats.Subrules)
			fmt.Fprintf(out, "  Cross references: %d\n", stats.CrossReferences)
			fmt.Fprintf(out, "  Glossary terms:   %d\n", stats.GlossaryTerms)
			fmt.Fprintf(out, "  History entries:  %d\n", stats.HistoryEntries)
			return nil
		},
	}
}

func truncateString(inputStr string, maxLength int) string {
	runes := []rune(inputStr)
	if len(runes) <= maxLength {
		return inputStr
	}
	return string(runes[:maxLength-3]) + "..."
}
