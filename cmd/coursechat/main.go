package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coursechat/internal/chunker"
	"coursechat/internal/completion/anthropic"
	"coursechat/internal/config"
	"coursechat/internal/docparser"
	"coursechat/internal/embedding"
	"coursechat/internal/embedding/openai"
	"coursechat/internal/embedding/tfidf"
	"coursechat/internal/ingest"
	"coursechat/internal/logging"
	"coursechat/internal/orchestrator"
	"coursechat/internal/server"
	"coursechat/internal/session"
	"coursechat/internal/tools"
	"coursechat/internal/tui"
	"coursechat/internal/vectorstore"
	"coursechat/internal/vectorstore/memory"
	"coursechat/internal/vectorstore/qdrant"
	"coursechat/internal/watcher"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var verbose bool
	root := &cobra.Command{
		Use:          "coursechat",
		Short:        "Chat with your course materials",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(serveCmd(&cfgPath, &verbose), chatCmd(&cfgPath, &verbose), ingestCmd(&cfgPath, &verbose))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.AppConfig
	log      *zap.Logger
	index    vectorstore.Index
	ingest   *ingest.Service
	sessions *session.Store
	orch     *orchestrator.Orchestrator
}

func buildApp(cfgPath string, verbose bool) (*app, error) {
	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logging.New(verbose)

	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init: %w", err)
		}
		emb = client
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var index vectorstore.Index
	switch cfg.VectorStore.Type {
	case "memory", "":
		index = memory.NewIndex(emb)
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		index = qdrant.NewIndex(qdrant.Config{
			URL:              cfg.VectorStore.Qdrant.URL,
			APIKey:           cfg.VectorStore.Qdrant.APIKey,
			CollectionPrefix: cfg.VectorStore.Qdrant.CollectionPrefix,
			Timeout:          time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		}, emb)
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	svc, err := anthropic.NewClient(anthropic.Config{
		BaseURL:     cfg.Completion.BaseURL,
		APIKeyEnv:   cfg.Completion.APIKeyEnv,
		Model:       cfg.Completion.Model,
		MaxTokens:   cfg.Completion.MaxTokens,
		Temperature: cfg.Completion.Temperature,
		Timeout:     time.Duration(cfg.Completion.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("completion init: %w", err)
	}

	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewCourseSearchTool(index, cfg.Search.TopK)); err != nil {
		return nil, err
	}

	sessions := session.NewStore(cfg.Session.MaxHistory)
	parser := docparser.NewParser(chunker.NewSentenceChunker(cfg.Chunker.MaxChunkChars, cfg.Chunker.OverlapChars))

	return &app{
		cfg:      cfg,
		log:      log,
		index:    index,
		ingest:   ingest.NewService(parser, index, log),
		sessions: sessions,
		orch:     orchestrator.New(svc, registry, sessions, log),
	}, nil
}

func (a *app) loadDocs(ctx context.Context) {
	if a.cfg.Server.DocsDir == "" {
		return
	}
	if _, err := os.Stat(a.cfg.Server.DocsDir); err != nil {
		a.log.Warn("docs directory unavailable",
			zap.String("dir", a.cfg.Server.DocsDir),
			zap.Error(err))
		return
	}
	courses, chunks, err := a.ingest.AddCourseFolder(ctx, a.cfg.Server.DocsDir)
	if err != nil {
		a.log.Warn("initial ingest incomplete", zap.Error(err))
		return
	}
	a.log.Info("initial ingest complete",
		zap.Int("courses", courses),
		zap.Int("chunks", chunks))
}

func serveCmd(cfgPath *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*cfgPath, *verbose)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a.loadDocs(ctx)

			if a.cfg.Server.WatchDocs && a.cfg.Server.DocsDir != "" {
				w, err := watcher.New(a.ingest, a.log)
				if err != nil {
					return err
				}
				defer w.Close()
				go func() {
					if err := w.Watch(ctx, a.cfg.Server.DocsDir); err != nil && ctx.Err() == nil {
						a.log.Error("docs watcher stopped", zap.Error(err))
					}
				}()
			}

			srv := server.New(a.orch, a.sessions, a.index, a.log)
			a.log.Info("serving", zap.String("addr", a.cfg.Server.Addr))
			return srv.Run(a.cfg.Server.Addr, a.cfg.Server.StaticDir)
		},
	}
}

func chatCmd(cfgPath *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with course materials in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*cfgPath, *verbose)
			if err != nil {
				return err
			}
			a.loadDocs(cmd.Context())

			m := tui.New(a.orch, a.sessions)
			_, err = tea.NewProgram(m).Run()
			return err
		},
	}
}

func ingestCmd(cfgPath *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [file or directory ...]",
		Short: "Parse course documents and report what would be indexed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*cfgPath, *verbose)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			for _, arg := range args {
				info, err := os.Stat(arg)
				if err != nil {
					return err
				}
				if info.IsDir() {
					courses, chunks, err := a.ingest.AddCourseFolder(ctx, arg)
					if err != nil {
						return err
					}
					fmt.Printf("%s: %d courses, %d chunks\n", arg, courses, chunks)
					continue
				}
				course, chunks, err := a.ingest.AddCourseDocument(ctx, arg)
				if err != nil {
					return err
				}
				fmt.Printf("%s: %q, %d chunks\n", arg, course.Title, chunks)
			}
			return nil
		},
	}
}
