// Package main provides the retrieval engine CLI entrypoint.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/phonify-ai/retrieval-engine/internal/config"
	"github.com/phonify-ai/retrieval-engine/internal/embedding"
	"github.com/phonify-ai/retrieval-engine/internal/intent"
	"github.com/phonify-ai/retrieval-engine/internal/observability"
	"github.com/phonify-ai/retrieval-engine/internal/policy"
	"github.com/phonify-ai/retrieval-engine/pkg/engine"
)

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	mockEmbed  bool

	// Configuration and logger
	cfg    *config.Config
	logger *observability.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "retrieval-cli",
	Short: "Retrieval engine CLI for querying the retail chatbot core",
	Long: `Retrieval CLI exercises the chatbot retrieval core from the command line.

Use this tool to:
- Run a full retrieval for a customer message and inspect the context
- Parse intent (brand phrase, price condition) without touching the backend
- Load and search policy documents

All commands support --json for automation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real deployments use the environment directly.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logFormat := cfg.Observability.LogFormat
		if outputJSON {
			logFormat = "json"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       cfg.Observability.LogLevel,
			Format:      logFormat,
			ServiceName: "retrieval-cli",
		})

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&mockEmbed, "mock-embeddings", false, "use deterministic mock embeddings instead of the encoder")

	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newIntentCmd())
	rootCmd.AddCommand(newPoliciesCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newEmbedder creates the encoder client, or the mock when requested or
// when no encoder endpoint is configured.
func newEmbedder() embedding.Embedder {
	if mockEmbed || cfg.Embedding.BaseURL == "" {
		return embedding.NewMockClient(cfg.Embedding.Dimension)
	}

	client, err := embedding.NewClient(embedding.Config{
		BaseURL:   cfg.Embedding.BaseURL,
		APIKey:    cfg.Embedding.APIKey,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
		Timeout:   cfg.Embedding.Timeout,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("encoder client unavailable, using mock embeddings")
		return embedding.NewMockClient(cfg.Embedding.Dimension)
	}
	return client
}

// buildEngine wires the full retrieval chain from configuration.
func buildEngine(ctx context.Context) (*engine.Engine, error) {
	opts := engine.Options{Logger: logger}
	if mockEmbed || cfg.Embedding.BaseURL == "" {
		opts.Embedder = embedding.NewMockClient(cfg.Embedding.Dimension)
	}
	return engine.New(ctx, cfg, opts)
}

// newQueryCmd creates the query subcommand.
func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [message]",
		Short: "Run the full retrieval chain for a customer message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			message := strings.Join(args, " ")

			eng, err := buildEngine(ctx)
			if err != nil {
				return err
			}

			var sp *spinner.Spinner
			if !outputJSON {
				sp = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Suffix = " retrieving context..."
				sp.Start()
			}

			result := eng.Retrieve(ctx, message)

			if sp != nil {
				sp.Stop()
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"query":              result.Query,
					"resolvedSearchTerm": result.ResolvedSearchTerm,
					"intent": map[string]interface{}{
						"isPurchase":     result.Intent.IsPurchase,
						"brandPhrase":    result.Intent.BrandPhrase,
						"priceCondition": result.Intent.PriceCondition.String(),
						"priceValue":     result.Intent.PriceValue,
					},
					"products": result.Products,
					"reviews":  result.Reviews,
					"faqs":     result.FAQs,
					"policies": result.Policies,
				})
			}

			bold := color.New(color.Bold)
			green := color.New(color.FgGreen)
			yellow := color.New(color.FgYellow)

			bold.Printf("Query: %s\n", result.Query)
			fmt.Printf("Search term: %q | Intent: purchase=%v brand=%q price=%s/%d\n\n",
				result.ResolvedSearchTerm, result.Intent.IsPurchase, result.Intent.BrandPhrase,
				result.Intent.PriceCondition, result.Intent.PriceValue)

			if result.Empty() {
				yellow.Println("Nothing retrieved for this message.")
				return nil
			}

			green.Printf("✓ %d products | %d reviews | %d FAQs | %d policy chunks\n\n",
				len(result.Products), len(result.Reviews), len(result.FAQs), len(result.Policies))
			fmt.Println(result.Format())
			return nil
		},
	}

	return cmd
}

// newIntentCmd creates the intent subcommand.
func newIntentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "intent [message]",
		Short: "Parse purchase intent without touching the backend",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			parsed := intent.ExtractIntent(message)
			term := intent.ResolveSearchTerm(message)

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"isPurchase":     parsed.IsPurchase,
					"brandPhrase":    parsed.BrandPhrase,
					"priceCondition": parsed.PriceCondition.String(),
					"priceValue":     parsed.PriceValue,
					"searchTerm":     term,
					"searchProducts": intent.ShouldSearchProducts(message),
					"searchPolicies": intent.ShouldSearchPolicies(message),
				})
			}

			fmt.Printf("Purchase intent: %v\n", parsed.IsPurchase)
			fmt.Printf("Brand phrase:    %q\n", parsed.BrandPhrase)
			fmt.Printf("Price:           %s %d\n", parsed.PriceCondition, parsed.PriceValue)
			fmt.Printf("Search term:     %q\n", term)
			fmt.Printf("Search products: %v | Search policies: %v\n",
				intent.ShouldSearchProducts(message), intent.ShouldSearchPolicies(message))
			return nil
		},
	}
}

// newPoliciesCmd creates the policies subcommand.
func newPoliciesCmd() *cobra.Command {
	var (
		dir   string
		query string
		topK  int
	)

	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Load policy documents and search them",
		Long: `Policies chunks every text document in the policy directory, embeds the
chunks, and answers a query against them. Useful for tuning chunk sizes
and thresholds before wiring a new document set into the engine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			if dir == "" {
				dir = cfg.Policy.Dir
			}

			emb := newEmbedder()
			loader := embedding.NewLoader(emb, cfg.Embedding.RetryAfter, logger)
			store := policy.NewStore(loader, policy.Config{
				ChunkSize:    cfg.Policy.ChunkSize,
				ChunkOverlap: cfg.Policy.ChunkOverlap,
				TopK:         cfg.Policy.TopK,
				MinScore:     cfg.Policy.MinScore,
			}, logger)

			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("read policy dir: %w", err)
			}

			var docs []string
			for _, entry := range entries {
				ext := strings.ToLower(filepath.Ext(entry.Name()))
				if entry.IsDir() || (ext != ".txt" && ext != ".md") {
					continue
				}
				docs = append(docs, entry.Name())
			}
			if len(docs) == 0 {
				return fmt.Errorf("no policy documents in %s", dir)
			}

			bar := progressbar.NewOptions(len(docs),
				progressbar.OptionSetDescription("chunking documents"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			for _, name := range docs {
				data, err := os.ReadFile(filepath.Join(dir, name))
				if err != nil {
					return fmt.Errorf("read policy document %s: %w", name, err)
				}
				store.AddDocument(name, string(data))
				_ = bar.Add(1)
			}

			if err := store.EmbedAll(ctx); err != nil {
				return fmt.Errorf("embed policy chunks: %w", err)
			}

			fmt.Printf("✓ Loaded %d documents into %d chunks\n", len(docs), store.Len())

			if query == "" {
				return nil
			}

			results := store.Search(ctx, query, topK)
			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			if len(results) == 0 {
				fmt.Println("No matching policy chunks.")
				return nil
			}
			for i, r := range results {
				fmt.Printf("%d. [%s] (score: %.3f)\n   %s\n", i+1, r.Chunk.Source, r.Score, r.Chunk.Content)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "policy document directory (default: from config)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "search the loaded chunks")
	cmd.Flags().IntVar(&topK, "top-k", 0, "maximum chunks to return (default: from config)")

	return cmd
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				_ = enc.Encode(map[string]string{"version": "0.1.0"})
				return
			}
			fmt.Println("retrieval-cli v0.1.0")
		},
	}
}
