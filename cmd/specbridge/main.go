package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/specbridge/specbridge/internal/auth"
	"github.com/specbridge/specbridge/internal/common"
	"github.com/specbridge/specbridge/internal/config"
	"github.com/specbridge/specbridge/internal/dispatch"
	"github.com/specbridge/specbridge/internal/registry"
	"github.com/specbridge/specbridge/internal/spec"
	"github.com/specbridge/specbridge/internal/whitelist"
)

func main() {
	stdio := flag.Bool("stdio", false, "Use stdio transport (for MCP clients like Claude Desktop)")
	simple := flag.Bool("simple", false, "Expose list_functions/call_function instead of one tool per operation")
	configFile := flag.String("config", "specbridge.toml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Load version
	common.LoadVersionFromFile()

	// Setup logging — always stderr/file so stdout stays clean for stdio framing
	logger := common.NewLoggerFromConfig(cfg.Logging)

	if cfg.Spec.URL == "" {
		logger.Error().Msg("No spec source configured (set spec.url or OPENAPI_SPEC_URL)")
		os.Exit(1)
	}

	// Fetch and parse the spec. No spec means no catalog, so fail here.
	loader := spec.NewLoader(spec.LoaderOptions{
		Retries:            cfg.Spec.Retries,
		Timeout:            cfg.Spec.GetTimeout(),
		InsecureSkipVerify: cfg.Spec.InsecureSkipVerify,
	}, logger)

	doc, err := loader.Load(context.Background(), cfg.Spec.URL)
	if err != nil {
		logger.Error().Err(err).Str("source", cfg.Spec.URL).Msg("Failed to load spec")
		os.Exit(1)
	}
	logger.Info().Str("source", doc.Source).Msg("Spec loaded")

	rules := whitelist.Parse(cfg.Tools.Whitelist)

	reg := registry.New(logger)
	count := reg.Rebuild(doc, rules, registry.Options{
		NamePrefix:    cfg.Tools.NamePrefix,
		NameMaxLength: cfg.Tools.NameMaxLength,
	})
	logger.Info().Int("tools", count).Msg("Tool catalog built")

	resolver, err := auth.New(auth.Config{
		Mode:         cfg.API.AuthType,
		Secret:       cfg.API.Key,
		Header:       cfg.API.AuthHeader,
		Location:     cfg.API.KeyLocation,
		ExtraHeaders: cfg.API.ExtraHeaders,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Credential injection disabled")
	}

	dispatcher := dispatch.New(reg, doc, resolver, dispatch.Options{
		BaseURLOverride:    cfg.API.BaseURLCandidates(),
		StripParam:         cfg.API.StripParam,
		Timeout:            cfg.API.GetTimeout(),
		InsecureSkipVerify: cfg.API.InsecureSkipVerify,
		MaxResponseBytes:   cfg.API.MaxResponseBytes,
	}, logger)

	// Create MCP server with tool definitions
	mcpServer := server.NewMCPServer(
		cfg.Server.Name,
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	if *simple {
		registerSimpleTools(mcpServer, reg, dispatcher, logger)
	} else {
		registerCatalogTools(mcpServer, reg, dispatcher, logger)
	}

	if *stdio {
		// Stdio transport — reads stdin, writes stdout
		if err := server.ServeStdio(mcpServer); err != nil {
			fmt.Fprintf(os.Stderr, "stdio server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	port := cfg.Server.Port

	// Streamable HTTP transport — listens on configured port
	httpServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithStateLess(true),
	)

	logger.Info().Str("port", port).Msg("Starting MCP Streamable HTTP")
	fmt.Fprintf(os.Stderr, "Starting MCP Streamable HTTP on :%s\n", port)

	if err := httpServer.Start(":" + port); err != nil {
		fmt.Fprintf(os.Stderr, "http server error: %v\n", err)
		os.Exit(1)
	}
}
