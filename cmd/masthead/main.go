package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/masthead/internal/cms"
	"github.com/abdul-hamid-achik/masthead/internal/config"
	"github.com/abdul-hamid-achik/masthead/internal/content"
	"github.com/abdul-hamid-achik/masthead/internal/logging"
	"github.com/abdul-hamid-achik/masthead/internal/mcp"
	"github.com/abdul-hamid-achik/masthead/internal/overview"
	"github.com/abdul-hamid-achik/masthead/internal/query"
	"github.com/abdul-hamid-achik/masthead/internal/textview"
	"github.com/abdul-hamid-achik/masthead/internal/version"
	"github.com/abdul-hamid-achik/masthead/internal/web"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "masthead",
	Short:   "Sections overview for the magazine's published content",
	Version: version.Full(),
	Long: `masthead serves the sections overview of the magazine: the latest
items of every section and a live title and author search, read from the
hosted content store.

It also exposes the same content as MCP tools and on the command line.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("masthead %s\n", version.Version)
		fmt.Printf("  commit:  %s\n", version.Commit)
		fmt.Printf("  built:   %s\n", version.Date)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server and/or MCP server",
	Long: `Start the sections page over HTTP, the MCP tools over stdio, or both.
Without flags the web server is started. Changes to the config file are
picked up without a restart.`,
	RunE: runServe,
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Print the latest items of every section",
	RunE:  runOverview,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search items by title or author",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print the query and parameters sent to the content store",
	RunE:  runQuery,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().Bool("mcp", false, "start MCP server (stdio)")
	serveCmd.Flags().Bool("web", false, "start web server")

	overviewCmd.Flags().StringP("format", "f", "default", "output format (default, json)")
	searchCmd.Flags().StringP("format", "f", "default", "output format (default, json)")

	queryCmd.Flags().String("section", "", "build the query for a section")
	queryCmd.Flags().String("search", "", "build the query for a search")
	queryCmd.MarkFlagsMutuallyExclusive("section", "search")
	queryCmd.MarkFlagsOneRequired("section", "search")

	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(configCmd)
}

// env is what every content command needs.
type env struct {
	resolved *config.ResolvedConfig
	cfg      *config.Config
	log      zerolog.Logger
	close    func()
}

func loadConfig(cmd *cobra.Command) (*config.ResolvedConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	configFile, _ := cmd.Flags().GetString("config")

	resolved, err := config.LoadResolved(cwd, configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		resolved.Config.Log.Level = level
	}
	return resolved, nil
}

func setup(cmd *cobra.Command) (*env, error) {
	resolved, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg := resolved.Config

	if cmd.Flags().Lookup("port") != nil && cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Lookup("host") != nil && cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, closer, err := logging.New(cfg.Log.Level, cfg.Log.File, cfg.Log.Pretty)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &env{resolved: resolved, cfg: cfg, log: log, close: closer}, nil
}

// signalContext is canceled on interrupt or SIGTERM.
func signalContext(log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func runServe(cmd *cobra.Command, args []string) error {
	mcpMode, _ := cmd.Flags().GetBool("mcp")
	webMode, _ := cmd.Flags().GetBool("web")

	// Default to web mode if neither is specified
	if !mcpMode && !webMode {
		webMode = true
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := signalContext(e.log)
	defer cancel()

	client := cms.NewClient(e.cfg.CMSClientConfig())
	e.log.Info().Str("endpoint", client.Endpoint()).Msg("content source configured")

	var webServer *web.Server
	var mcpServer *mcp.Server
	errChan := make(chan error, 2)

	if webMode {
		webServer = web.NewServer(web.ServerConfig{
			Host:     e.cfg.Server.Host,
			Port:     e.cfg.Server.Port,
			Fetcher:  client,
			Debounce: e.cfg.Search.Debounce,
			Logger:   e.log,
		})
		go func() { errChan <- webServer.Run(ctx) }()
	}

	if mcpMode {
		mcpServer = mcp.NewServer(mcp.ServerConfig{Fetcher: client, Logger: e.log})
		go func() { errChan <- mcpServer.Run(ctx) }()
	}

	if path := e.resolved.Primary(); path != "" {
		go watchConfig(ctx, cmd, path, e.log, webServer, mcpServer)
	}

	// The first server to stop takes the others down with it.
	err = <-errChan
	interrupted := ctx.Err() != nil
	cancel()
	if webMode && mcpMode {
		if other := <-errChan; err == nil {
			err = other
		}
	}
	if interrupted {
		return nil
	}
	return err
}

func watchConfig(ctx context.Context, cmd *cobra.Command, path string, log zerolog.Logger, webServer *web.Server, mcpServer *mcp.Server) {
	reload := func() (*config.Config, error) {
		resolved, err := loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		return resolved.Config, nil
	}

	apply := func(cfg *config.Config) {
		client := cms.NewClient(cfg.CMSClientConfig())
		if webServer != nil {
			webServer.Handler().Reconfigure(client, cfg.Search.Debounce)
		}
		if mcpServer != nil {
			mcpServer.Reconfigure(client)
		}
		log.Info().Str("endpoint", client.Endpoint()).Dur("debounce", cfg.Search.Debounce).Msg("config reloaded")
	}

	if err := config.Watch(ctx, path, reload, apply, log); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config watch disabled")
	}
}

// SectionOutput is one section in the JSON output of the overview command.
type SectionOutput struct {
	Section string         `json:"section"`
	Path    string         `json:"path"`
	Layout  string         `json:"layout"`
	Loaded  bool           `json:"loaded"`
	Items   []content.Item `json:"items"`
}

// SearchOutput is the JSON output of the search command.
type SearchOutput struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Results []content.Item `json:"results"`
}

func runOverview(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := signalContext(e.log)
	defer cancel()

	c := overview.New(cms.NewClient(e.cfg.CMSClientConfig()), overview.WithLogger(logging.Component(e.log, "overview")))
	defer c.Unmount()
	c.Mount(ctx)
	c.Wait()

	return printView(cmd.OutOrStdout(), c.View(), format)
}

func runSearch(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	q := strings.Join(args, " ")

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := signalContext(e.log)
	defer cancel()

	client := cms.NewClient(e.cfg.CMSClientConfig())
	items, err := client.Fetch(ctx, query.BuildSearch(q))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	state, token := overview.NewState().SearchChanged(q)
	state, _ = state.SearchResolved(token, items)

	return printView(cmd.OutOrStdout(), state.View(), format)
}

func printView(w io.Writer, v overview.View, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(viewOutput(v))
	case "default", "":
		_, err := io.WriteString(w, textview.Render(v))
		return err
	default:
		return fmt.Errorf("unknown format %q (want default or json)", format)
	}
}

func viewOutput(v overview.View) any {
	if v.Mode == overview.ModeSearch {
		results := v.Results
		if results == nil {
			results = []content.Item{}
		}
		return SearchOutput{Query: v.Query, Count: len(results), Results: results}
	}

	out := make([]SectionOutput, 0, len(v.Sections))
	for _, sv := range v.Sections {
		out = append(out, SectionOutput{
			Section: sv.Section.String(),
			Path:    sv.Section.Path(),
			Layout:  sv.Layout.String(),
			Loaded:  sv.Results.Loaded,
			Items:   sv.Results.Items,
		})
	}
	return out
}

func runQuery(cmd *cobra.Command, args []string) error {
	sectionName, _ := cmd.Flags().GetString("section")
	searchText, _ := cmd.Flags().GetString("search")

	var d query.Descriptor
	if cmd.Flags().Changed("section") {
		section, err := content.ParseSection(sectionName)
		if err != nil {
			return err
		}
		d = query.BuildSection(section)
	} else {
		d = query.BuildSearch(searchText)
	}

	out, err := formatQuery(d)
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}

// formatQuery prints the query text followed by one $name=value line per
// parameter, in the form the query API receives them.
func formatQuery(d query.Descriptor) (string, error) {
	params, err := d.EncodedParams()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(d.GROQ())
	sb.WriteString("\n")

	for _, name := range d.ParamNames() {
		fmt.Fprintf(&sb, "$%s=%s\n", name, params[name])
	}
	return sb.String(), nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	resolved, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out, err := resolved.Config.YAML()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprint(w, out)

	if len(resolved.Files) > 0 || len(resolved.EnvOverrides) > 0 {
		fmt.Fprintln(w, "\n# Config sources (in order of loading):")
		for _, f := range resolved.Files {
			fmt.Fprintf(w, "#   - %s\n", f)
		}
		for _, key := range resolved.EnvOverrides {
			fmt.Fprintf(w, "#   - environment (%s)\n", key)
		}
	}
	if err := resolved.Config.Validate(); err != nil {
		fmt.Fprintf(w, "\n# warning: %v\n", err)
	}
	return nil
}
