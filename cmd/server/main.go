package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/knowbase/knowbase-go/pkg/core"
	"github.com/knowbase/knowbase-go/pkg/logger"
	"github.com/knowbase/knowbase-go/pkg/server"
)

func main() {
	cfg, err := core.LoadConfigFromEnv()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Server.Mode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting knowbase server",
		"llm_provider", cfg.LLM.Provider,
		"embedder_provider", cfg.Embedder.Provider,
		"storage_provider", cfg.Storage.Provider,
	)

	kb, err := core.New(cfg, log)
	if err != nil {
		log.Error("failed to init knowledge base", "error", err)
		os.Exit(1)
	}
	defer kb.Close()

	handler := server.NewKnowledgeHandler(log, kb)
	router, err := server.NewRouter(server.RouterConfig{
		KnowledgeHandler: handler,
		Log:              log,
		Mode:             cfg.Server.Mode,
	})
	if err != nil {
		log.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	log.Info("server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Error("server stopped", "error", err)
	}
}
