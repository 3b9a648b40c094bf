// Package main is the osusume CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/cli"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/importer"
	"github.com/hyperjump/osusume/internal/matching"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/server"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/hyperjump/osusume/internal/watcher"
	"github.com/hyperjump/osusume/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/osusume/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used instead.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "recommend":
		runRecommend()
	case "match":
		runMatch()
	case "search":
		runSearch()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("osusume version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if len(cfg.Seed.Directories) > 0 {
		stats, err := components.Importer.ImportAll(ctx)
		if err != nil {
			logger.Warn("initial seed import failed", zap.Error(err))
		} else if stats.Files > 0 {
			logger.Info("seed data imported",
				zap.Int("files", stats.Files),
				zap.Int("courses", stats.Courses),
				zap.Int("users", stats.Users),
				zap.Int("enrollments", stats.Enrollments),
			)
			components.Recommender.Invalidate()
		}
	}

	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(
		cfg.Seed.Directories,
		cfg.Seed.Extensions,
		func(path string) {
			if _, err := components.Importer.ImportFile(ctx, path); err != nil {
				logger.Warn("seed import failed", zap.String("path", path), zap.Error(err))
				return
			}
			components.Recommender.Invalidate()
		},
		func(path string) {
			// Imported rows are kept; a removed seed file only means no
			// future re-imports from it.
			logger.Info("seed file removed", zap.String("path", path))
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()
	if len(cfg.Seed.Directories) > 0 {
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start seed watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.Recommender,
		components.Matcher,
		components.Storage,
		cfg,
		logger,
		server.WithCatalog(components.Catalog),
		server.WithImporter(components.Importer),
		server.WithWatcher(watchSvc),
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	watchSvc.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runRecommend() {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct storage)")
	userID := fs.Int64("user", 0, "requesting user ID")
	title := fs.String("title", "", "course title to find similar courses for")
	level := fs.String("level", "", "filter by course level")
	category := fs.String("category", "", "filter by course category")
	limit := fs.Int("limit", 0, "number of recommendations (0 = server default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *userID <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: osusume recommend --user <id> [--title <course title>] [flags]")
		os.Exit(1)
	}
	query := &models.RecommendationQuery{
		UserID:      *userID,
		CourseTitle: *title,
		Level:       *level,
		Category:    *category,
		NumRec:      *limit,
	}

	var response *models.RecommendationResponse
	if *serverURL != "" {
		response, err = recommendViaHTTP(*serverURL, query)
	} else {
		response, err = recommendDirect(*configPath, query)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommendation failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRecommendations(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func recommendViaHTTP(serverURL string, query *models.RecommendationQuery) (*models.RecommendationResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/recommendations", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.RecommendationResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func recommendDirect(configPath string, query *models.RecommendationQuery) (*models.RecommendationResponse, error) {
	components, cfg, cleanup, err := directComponents(configPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	if query.NumRec <= 0 {
		query.NumRec = cfg.Recommend.DefaultLimit
	}
	return components.Recommender.Recommend(context.Background(), query)
}

func runMatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: osusume match <matching|complementary|mentor> --user <id> [flags]")
		os.Exit(1)
	}
	policy := os.Args[2]
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct storage)")
	userID := fs.Int64("user", 0, "requesting user ID")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[3:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *userID <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: osusume match <matching|complementary|mentor> --user <id> [flags]")
		os.Exit(1)
	}

	var endpoint string
	switch policy {
	case matching.PolicyMatching:
		endpoint = "matches"
	case matching.PolicyComplementary:
		endpoint = "complementary"
	case matching.PolicyMentor:
		endpoint = "mentors"
	default:
		fmt.Fprintf(os.Stderr, "Unknown match policy %q; use matching, complementary, or mentor\n", policy)
		os.Exit(1)
	}

	var response *models.MatchResponse
	if *serverURL != "" {
		response, err = matchViaHTTP(*serverURL, *userID, endpoint)
	} else {
		response, err = matchDirect(*configPath, *userID, policy)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Matching failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteMatches(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func matchViaHTTP(serverURL string, userID int64, endpoint string) (*models.MatchResponse, error) {
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/users/%d/%s", serverURL, userID, endpoint))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.MatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func matchDirect(configPath string, userID int64, policy string) (*models.MatchResponse, error) {
	components, _, cleanup, err := directComponents(configPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	ctx := context.Background()
	switch policy {
	case matching.PolicyComplementary:
		return components.Matcher.Complementary(ctx, userID)
	case matching.PolicyMentor:
		return components.Matcher.Mentors(ctx, userID)
	default:
		return components.Matcher.Matches(ctx, userID)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct storage)")
	limit := fs.Int("limit", 10, "number of results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "Usage: osusume search [flags] <query>")
		os.Exit(1)
	}

	var response *models.CourseSearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, query, *limit)
	} else {
		response, err = searchDirect(*configPath, query, *limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL, query string, limit int) (*models.CourseSearchResponse, error) {
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/courses/search?q=%s&limit=%d", serverURL, url.QueryEscape(query), limit))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.CourseSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func searchDirect(configPath, query string, limit int) (*models.CourseSearchResponse, error) {
	components, _, cleanup, err := directComponents(configPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	ctx := context.Background()
	startTime := time.Now()
	hits, err := components.Catalog.Search(ctx, query, limit, 2.0)
	if err != nil {
		return nil, err
	}
	results := make([]*models.CourseSearchResult, 0, len(hits))
	for _, hit := range hits {
		course, err := components.Storage.GetCourse(ctx, hit.CourseID)
		if err != nil {
			continue
		}
		results = append(results, &models.CourseSearchResult{
			Course: course,
			Score:  hit.Score,
			Rank:   len(results) + 1,
		})
	}
	return &models.CourseSearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(startTime).Milliseconds(),
		Query:     query,
	}, nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	components, cfg, cleanup, err := directComponents(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx := context.Background()
	var stats *importer.Stats
	if fs.NArg() > 0 {
		stats, err = components.Importer.ImportDirectory(ctx, fs.Arg(0))
	} else {
		if len(cfg.Seed.Directories) == 0 {
			fmt.Fprintln(os.Stderr, "No seed directories configured; pass a directory: osusume import <dir>")
			os.Exit(1)
		}
		stats, err = components.Importer.ImportAll(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d file(s): %d course(s), %d user(s), %d enrollment(s)\n",
		stats.Files, stats.Courses, stats.Users, stats.Enrollments)
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Courses        int64                  `json:"courses"`
	Users          int64                  `json:"users"`
	Enrollments    int64                  `json:"enrollments"`
	CorpusSize     int                    `json:"corpus_size"`
	IndexedCourses *uint64                `json:"indexed_courses,omitempty"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		components, cfg, cleanup, err := directComponents(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		ctx := context.Background()
		courseCount, err := components.Storage.CountCourses(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count courses failed: %v\n", err)
			os.Exit(1)
		}
		userCount, err := components.Storage.CountUsers(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count users failed: %v\n", err)
			os.Exit(1)
		}
		enrollmentCount, err := components.Storage.CountEnrollments(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count enrollments failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Courses:     courseCount,
			Users:       userCount,
			Enrollments: enrollmentCount,
			Config: map[string]interface{}{
				"database_path":    cfg.Storage.DatabasePath,
				"bleve_index_path": cfg.Storage.BleveIndexPath,
			},
		}
		if docCount, err := components.Catalog.DocCount(); err == nil {
			status.IndexedCourses = &docCount
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("courses:      %d\n", status.Courses)
		fmt.Printf("users:        %d\n", status.Users)
		fmt.Printf("enrollments:  %d\n", status.Enrollments)
		fmt.Printf("corpus_size:  %d\n", status.CorpusSize)
		if status.IndexedCourses != nil {
			fmt.Printf("indexed:      %d\n", *status.IndexedCourses)
		}
		if status.Config != nil {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{"database_path", "bleve_index_path", "default_limit"} {
				if v, ok := status.Config[key]; ok {
					fmt.Printf("%-18s %v\n", key+":", v)
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Storage     storage.Storage
	Catalog     *catalog.Catalog
	Recommender *recommend.Engine
	Matcher     *matching.Engine
	Importer    *importer.Importer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	cat, err := catalog.Open(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	recommender := recommend.NewEngine(store, &cfg.Recommend, logger)
	matcher := matching.NewEngine(store, &cfg.Matching, logger)

	impOpts := []importer.Option{importer.WithCatalog(cat)}
	if debug {
		impOpts = append(impOpts, importer.WithLogger(logger))
	}
	imp := importer.NewImporter(store, &cfg.Seed, impOpts...)

	return &Components{
		Storage:     store,
		Catalog:     cat,
		Recommender: recommender,
		Matcher:     matcher,
		Importer:    imp,
	}, nil
}

// directComponents loads config and initializes components for commands that
// bypass the HTTP server.
func directComponents(configPath string) (*Components, *config.Config, func(), error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create logger: %w", err)
	}
	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, err
	}
	cleanup := func() {
		components.Close()
		_ = logger.Sync()
	}
	return components, cfg, cleanup, nil
}

func printUsage() {
	fmt.Println(`osusume - course recommendation and skill matching engine

Usage:
  osusume server [flags]                     Start the HTTP server
  osusume recommend --user <id> [flags]      Recommend courses for a user
  osusume match <policy> --user <id>         Match users (matching, complementary, mentor)
  osusume search [flags] <query>             Search the course catalog
  osusume import [dir]                       Import seed data files
  osusume status [flags]                     Show storage and corpus status
  osusume version                            Show version
  osusume help                               Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/osusume/config.yaml)
  --debug            Enable debug logging

Recommend Flags:
  --user int         Requesting user ID (required)
  --title string     Course title to find similar courses for (omit to use the user's enrollments)
  --level string     Filter by course level
  --category string  Filter by course category
  --limit int        Number of recommendations
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json

Match Flags:
  --user int         Requesting user ID (required)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json

Examples:
  osusume server
  osusume recommend --user 1 --title "Intro to Python" --limit 5
  osusume recommend --user 1 --level Beginner
  osusume match matching --user 1
  osusume match mentor --user 1 --output json
  osusume search machine learning
  osusume import ./seed
  osusume status --output json`)
}
