package server

import (
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"accelodash/internal/config"
	"accelodash/internal/server/handlers"
	"accelodash/internal/service/board"
	"accelodash/internal/service/refresh"
	"accelodash/internal/store"
	"accelodash/internal/upstream"
)

// Server HTTP服务器
// 只提供 API 与上游 relay；界面由独立的前端工程消费这些接口
type Server struct {
	router *gin.Engine
	store  *store.Store
	boards *board.Manager
	api    *handlers.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) *Server {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化 SQLite Store
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		dataDir = cfg.Data.DataDir
	}
	dbPath := filepath.Join(dataDir, "accelodash.db")

	sqliteStore, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	boards, err := board.NewManager(sqliteStore)
	if err != nil {
		log.Fatalf("Failed to initialize dashboards: %v", err)
	}

	client := upstream.NewClient(sqliteStore.LoadSettings, upstream.Options{
		RequestTimeout: time.Duration(cfg.Upstream.RequestTimeoutSecs) * time.Second,
		CacheTTL:       time.Duration(cfg.Upstream.CacheTTLSecs) * time.Second,
		BatchDelay:     time.Duration(cfg.Upstream.BatchDelayMs) * time.Millisecond,
	})
	refresher := refresh.NewRefresher(client, boards)

	api := handlers.NewHandler(sqliteStore, boards, client, refresher, cfg.Upstream.AllowedHosts)

	s := &Server{
		router: gin.Default(),
		store:  sqliteStore,
		boards: boards,
		api:    api,
	}

	s.setupRoutes(devMode)

	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Relay-Url")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// API 路由
	api := s.router.Group("/api")
	{
		s.api.RegisterRoutes(api)
	}

	if devMode {
		// 开发模式：非 API 请求转给前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
	} else {
		s.router.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		})
	}
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 关闭底层存储（每次变更即时落库，无需额外保存）
func (s *Server) Close() error {
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
