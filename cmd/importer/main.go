// cmd/importer/main.go
package main

import (
	"context"
	"io"
	"log"

	"import-service/internal/api/handlers"
	"import-service/internal/api/middleware"
	"import-service/internal/api/responses"
	"import-service/internal/config"
	"import-service/internal/core/importer"
	"import-service/internal/domain"
	"import-service/internal/store"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// --- Helper Functions ---

func initFirestoreClient(ctx context.Context, cfg *config.AppConfig) *firestore.Client {
	client, err := firestore.NewClientWithDatabase(ctx, cfg.FirestoreProjectID, cfg.FirestoreDatabaseID)
	if err != nil {
		log.Fatalf("Erro ao inicializar cliente Firestore: %v\n", err)
	}
	log.Printf("Conectado com sucesso ao Firestore")
	return client
}

// initStores devolve os backends do driver configurado e o que precisa ser
// fechado no fim.
func initStores(ctx context.Context, cfg *config.AppConfig) (store.Backend[domain.ParsedTransaction], store.Backend[domain.InvestmentOperation], io.Closer) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := store.OpenDB(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Erro ao abrir SQLite em %s: %v", cfg.SQLitePath, err)
		}
		txs, err := store.OpenSQLite[domain.ParsedTransaction](ctx, db, "transactions")
		if err != nil {
			log.Fatalf("Erro ao preparar tabela de transações: %v", err)
		}
		ops, err := store.OpenSQLite[domain.InvestmentOperation](ctx, db, "operations")
		if err != nil {
			log.Fatalf("Erro ao preparar tabela de operações: %v", err)
		}
		log.Printf("Usando SQLite em %s", cfg.SQLitePath)
		return txs, ops, db
	case config.DriverFirestore:
		client := initFirestoreClient(ctx, cfg)
		return store.NewFirestore[domain.ParsedTransaction](client, "transactions"),
			store.NewFirestore[domain.InvestmentOperation](client, "operations"),
			client
	}
	log.Print("Usando armazenamento em memória; os dados somem ao reiniciar")
	return store.NewMemory[domain.ParsedTransaction](), store.NewMemory[domain.InvestmentOperation](), io.NopCloser(nil)
}

// --- Main Service Runner ---
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: configuração inválida: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Print("JWT_SECRET não configurado; autenticação desligada")
	}

	logger := responses.InitLogger(cfg.LogLevel)
	defer logger.Sync()
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	txStore, opStore, closer := initStores(ctx, cfg)
	defer closer.Close()

	policy, err := importer.ParsePolicy(cfg.DuplicatePolicy)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	importService := importer.NewService(txStore, opStore, logger.Named("importer"))
	importHandler := handlers.NewImportHandler(importService, handlers.Config{
		MaxUploadSizeBytes: cfg.MaxUploadSizeBytes,
		CacheTTL:           cfg.ParseCacheTTL,
		DefaultPolicy:      policy,
		Logger:             logger.Named("parser"),
	})
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadSizeBytes

	apiV1 := router.Group("/api/v1")
	apiV1.Use(limiter.Middleware(), middleware.Auth(cfg.JWTSecret))
	importHandler.RegisterRoutes(apiV1)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": "import-service"})
	})

	logger.Info("configuração carregada",
		zap.String("store", cfg.StoreDriver),
		zap.String("policy", string(policy)),
		zap.Duration("cacheTTL", cfg.ParseCacheTTL))

	log.Printf("🚀 Import Service (Go) iniciado e escutando na porta %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Falha ao iniciar o servidor de importação: ", err)
	}
}
