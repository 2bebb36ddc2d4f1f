package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nvaldez/news-agent-go/agent"
	"github.com/nvaldez/news-agent-go/config"
	"github.com/nvaldez/news-agent-go/llm"
	"github.com/nvaldez/news-agent-go/llm/ollama"
	"github.com/nvaldez/news-agent-go/llm/openai"
	"github.com/nvaldez/news-agent-go/newsapi"
	"github.com/nvaldez/news-agent-go/server"
	"github.com/nvaldez/news-agent-go/tools"
	"github.com/nvaldez/news-agent-go/tools/registry"
	"github.com/nvaldez/news-agent-go/tui"
)

var version = "dev"

var (
	// Flags
	provider string
	model    string
	addr     string
	verbose  bool

	rootCmd = &cobra.Command{
		Use:   "news-agent",
		Short: "News chat agent gateway",
		Long:  "News Agent - a chat gateway that answers questions about the news through a tool-using LLM agent",
		RunE:  runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/WebSocket gateway",
		RunE:  runServe,
	}

	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Open a terminal chat against a running gateway",
		RunE:  runChat,
	}

	toolsCmd = &cobra.Command{
		Use:   "tools",
		Short: "Tool management commands",
	}

	listToolsCmd = &cobra.Command{
		Use:   "list",
		Short: "List available tools",
		Run:   listTools,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("news-agent %s\n", version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider (openai, ollama)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Model to use")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "Listen address (serve) or gateway address (chat)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(versionCmd)
	toolsCmd.AddCommand(listToolsCmd)

	viper.BindPFlags(rootCmd.PersistentFlags())
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	settings := config.LoadSettings()

	configManager, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}

	// Provider/model resolution: flag > persisted default > env default
	if provider == "" {
		provider = settings.Provider
		if persisted := configManager.GetDefaultProvider(); persisted != "" {
			provider = persisted
		}
	}
	if model == "" {
		model = settings.Model
		if persisted := configManager.GetDefaultModel(); persisted != "" {
			model = persisted
		}
	}
	provider = strings.ToLower(provider)
	if model == "" {
		model = getDefaultModel(provider)
	}
	if addr == "" {
		addr = settings.Addr
	}

	llmClient, err := createLLMClient(provider, model)
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	defer llmClient.Close()

	if missing := settings.Credentials.Missing(); len(missing) > 0 {
		logger.Warn("news API credentials incomplete, news tools will report unavailability",
			"missing", strings.Join(missing, ", "))
	}

	cache := newsapi.NewTokenCache(settings.TokenCachePath, logger)
	auth := newsapi.NewAuthProvider(settings.NewsBaseURL, settings.Credentials, cache, logger)
	if info := auth.Info(); info.HasAccessToken {
		logger.Info("reusing cached auth token", "valid", info.IsValid, "expires_at", info.ExpiresAt)
	}
	newsClient := newsapi.NewClient(auth, logger)

	reg, err := buildRegistry(newsClient, settings.NewsBaseURL)
	if err != nil {
		return err
	}

	agentConfig := agent.DefaultConfig()
	agentConfig.Model = model
	agentInstance := agent.New(llmClient, reg, agentConfig, logger)

	logger.Info("agent ready", "provider", provider, "model", model, "tools", len(reg.List()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(agentInstance, logger).WithTokenStatus(auth.Info).Run(ctx, addr)
}

func runChat(cmd *cobra.Command, args []string) error {
	if addr == "" {
		addr = config.LoadSettings().Addr
	}

	p := tea.NewProgram(tui.New(addr))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running chat: %w", err)
	}
	return nil
}

func listTools(cmd *cobra.Command, args []string) {
	settings := config.LoadSettings()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	cache := newsapi.NewTokenCache(settings.TokenCachePath, logger)
	auth := newsapi.NewAuthProvider(settings.NewsBaseURL, settings.Credentials, cache, logger)
	newsClient := newsapi.NewClient(auth, logger)

	reg, err := buildRegistry(newsClient, settings.NewsBaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	fmt.Println("Available tools:")
	for _, d := range reg.Descriptors() {
		summary := d.Description
		if i := strings.IndexByte(summary, '\n'); i >= 0 {
			summary = summary[:i]
		}
		fmt.Printf("  📰 %-16s - %s\n", d.Name, summary)
	}
}

func buildRegistry(client *newsapi.Client, baseURL string) (*registry.Registry, error) {
	reg := registry.New()

	headlines := tools.NewHeadlinesTool(client, baseURL)
	if err := reg.Register(headlines.Name(), func() tools.Tool { return headlines }); err != nil {
		return nil, err
	}

	story := tools.NewStoryTool(client, baseURL)
	if err := reg.Register(story.Name(), func() tools.Tool { return story }); err != nil {
		return nil, err
	}

	return reg, nil
}

func createLLMClient(provider, model string) (llm.Client, error) {
	switch strings.ToLower(provider) {
	case "openai":
		return openai.NewClient(llm.WithModel(model))

	case "ollama":
		return ollama.NewClient(llm.WithModel(model))

	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

func getDefaultModel(provider string) string {
	defaults := map[string]string{
		"openai": "gpt-4o-mini",
		"ollama": "llama3.2",
	}

	if model, ok := defaults[provider]; ok {
		return model
	}
	return "default"
}
