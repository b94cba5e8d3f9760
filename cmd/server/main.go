package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fyerfyer/slide-gen-system/api"
	"github.com/fyerfyer/slide-gen-system/api/middleware"

	"github.com/fyerfyer/slide-gen-system/api/handler"
	slideconfig "github.com/fyerfyer/slide-gen-system/config"
	"github.com/fyerfyer/slide-gen-system/internal/cache"
	"github.com/fyerfyer/slide-gen-system/internal/database"
	"github.com/fyerfyer/slide-gen-system/internal/render"
	"github.com/fyerfyer/slide-gen-system/internal/repository"
	"github.com/fyerfyer/slide-gen-system/internal/services"
	"github.com/fyerfyer/slide-gen-system/pkg/storage"
	"github.com/fyerfyer/slide-gen-system/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// 配置选项
type config struct {
	Host         string        // 监听地址(仅通过配置文件设置)
	Port         int           // 服务端口
	Mode         string        // 运行模式 (debug/release)
	StoragePath  string        // 文件存储路径
	Format       string        // 默认输出格式 (pptx/pdf)
	PDFFont      string        // PDF渲染字体文件路径
	CacheType    string        // 缓存类型
	LogLevel     string        // 日志级别
	ReadTimeout  time.Duration // 读取超时
	WriteTimeout time.Duration // 写入超时
	DataDir      string        // 数据目录路径
	ConfigFile   string        // 配置文件路径
	// 任务队列相关配置
	QueueEnabled     bool          // 是否启用任务队列
	QueueType        string        // 任务队列类型
	RedisAddr        string        // Redis 地址
	RedisPassword    string        // Redis 密码
	RedisDB          int           // Redis 数据库编号
	QueueConcurrency int           // 任务队列处理并发数
	QueueRetryLimit  int           // 任务重试次数
	QueueRetryDelay  time.Duration // 任务重试延迟
}

func main() {
	// 加载.env文件(如果存在)，为后续环境变量读取做准备
	_ = godotenv.Load()

	// 解析命令行参数
	cfg := parseFlags()

	// 加载配置文件(如果指定)
	var appConfig *slideconfig.Config
	var err error
	if cfg.ConfigFile != "" {
		appConfig, err = slideconfig.Load(cfg.ConfigFile)
		if err != nil {
			log.Printf("Warning: Failed to load config file: %v, using command line args", err)
		} else {
			// 使用配置文件中的值更新相关设置
			updateConfigFromFile(&cfg, appConfig)
		}
	}

	// 设置Gin模式
	gin.SetMode(cfg.Mode)

	// 初始化日志
	logger := setupLogger(cfg.LogLevel)
	if appConfig != nil && appConfig.Log.File != "" {
		middleware.UseRotatingFile(middleware.LogRotationConfig{
			Filename:   appConfig.Log.File,
			MaxSize:    appConfig.Log.MaxSize,
			MaxBackups: appConfig.Log.MaxBackups,
			MaxAge:     appConfig.Log.MaxAge,
			Compress:   appConfig.Log.Compress,
		})
		logger.WithField("file", appConfig.Log.File).Info("Log rotation enabled")
	}
	logger.Info("Starting Slide Generation System...")

	// 初始化数据库
	if err := setupDatabase(cfg, appConfig, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// 创建文件存储服务
	fileStorage, err := setupStorage(cfg, appConfig)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// 创建缓存服务
	cacheService, err := setupCache(cfg, appConfig)
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}

	// 初始化任务队列（如果启用）
	var queue taskqueue.Queue
	if cfg.QueueEnabled {
		queue, err = setupTaskQueue(cfg, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()
		logger.Info("Task queue initialized successfully")
	}

	// 初始化业务服务
	var repo repository.JobRepository
	if queue != nil {
		// 如果启用了任务队列，使用带队列的仓储
		repo = repository.NewJobRepositoryWithQueue(database.MustDB(), queue)
		logger.Info("Using job repository with task queue")
	} else {
		repo = repository.NewJobRepository()
	}

	var statusManager *services.JobStatusManager
	if cacheService != nil {
		statusManager = services.NewJobStatusManagerWithCache(repo, cacheService, logger)
	} else {
		statusManager = services.NewJobStatusManager(repo, logger)
	}

	// 渲染样式：默认样式加上配置的PDF字体
	style := render.DefaultStyle()
	style.PDFFontFile = cfg.PDFFont

	// 创建生成服务，根据是否启用队列进行配置
	generationOptions := []services.GenerationOption{
		services.WithJobRepository(repo),
		services.WithStatusManager(statusManager),
		services.WithRenderFormat(cfg.Format),
		services.WithRenderStyle(style),
		services.WithLogger(logger),
	}

	if cacheService != nil {
		generationOptions = append(generationOptions,
			services.WithResultCache(cacheService),
		)
	}

	// 如果启用了队列，添加相关选项
	if queue != nil {
		generationOptions = append(generationOptions,
			services.WithTaskQueue(queue),
			services.WithAsyncProcessing(true),
		)
		logger.Info("Presentation generation will use async task queue")
	}

	generationService := services.NewGenerationService(
		fileStorage,
		generationOptions...,
	)

	// 启动任务工作者，在本进程内消费生成和清理任务
	if queue != nil {
		redisQueue, ok := queue.(*taskqueue.RedisQueue)
		if !ok {
			logger.Fatalf("Task worker requires a redis queue, got %T", queue)
		}

		worker := taskqueue.NewRedisWorker(redisQueue, nil)
		services.NewGenerationTaskHandler(generationService, logger).RegisterHandlers(worker)

		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		defer worker.Stop()
		logger.Info("Task worker started")
	}

	// 初始化API处理器
	jobHandler := handler.NewJobHandler(generationService)
	var taskHandler *handler.TaskHandler
	if queue != nil {
		taskHandler = handler.NewTaskHandler(queue)
	}

	// 设置路由
	r := api.SetupRouter(jobHandler, taskHandler)

	// 启动HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// 优雅关闭
	go func() {
		// 启动服务
		logger.Infof("Server is running on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// 创建带超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// parseFlags 解析命令行参数
func parseFlags() config {
	cfg := config{}

	// 服务配置
	flag.IntVar(&cfg.Port, "port", 8080, "Server port")
	flag.StringVar(&cfg.Mode, "mode", "debug", "Run mode (debug/release)")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug/info/warn/error)")
	flag.DurationVar(&cfg.ReadTimeout, "read-timeout", 30*time.Second, "Read timeout")
	flag.DurationVar(&cfg.WriteTimeout, "write-timeout", 30*time.Second, "Write timeout")

	// 存储配置
	flag.StringVar(&cfg.StoragePath, "storage", "./data/files", "File storage path")

	// 渲染配置
	flag.StringVar(&cfg.Format, "format", "pptx", "Default output format (pptx/pdf)")
	flag.StringVar(&cfg.PDFFont, "pdf-font", "", "TTF font file for PDF rendering (Cyrillic support)")

	// 缓存配置
	flag.StringVar(&cfg.CacheType, "cache", "memory", "Cache type (memory/redis)")

	// 数据目录配置
	flag.StringVar(&cfg.DataDir, "data-dir", "./data", "Data directory path")

	// 配置文件
	flag.StringVar(&cfg.ConfigFile, "config", "", "Path to config file")

	// 任务队列配置
	flag.BoolVar(&cfg.QueueEnabled, "queue", false, "Enable task queue")
	flag.StringVar(&cfg.QueueType, "queue-type", "redis", "Task queue type (redis)")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "Redis address for task queue")
	flag.StringVar(&cfg.RedisPassword, "redis-password", "", "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", 0, "Redis database number")
	flag.IntVar(&cfg.QueueConcurrency, "queue-concurrency", 10, "Task queue concurrency")
	flag.IntVar(&cfg.QueueRetryLimit, "queue-retry", 3, "Max retry attempts for failed tasks")
	flag.DurationVar(&cfg.QueueRetryDelay, "queue-retry-delay", time.Minute, "Delay between retry attempts")

	// 从环境变量获取Redis连接信息（优先级高于命令行参数默认值）
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cfg.RedisAddr = redisAddr
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}

	flag.Parse()
	return cfg
}

// updateConfigFromFile 从配置文件更新命令行参数
func updateConfigFromFile(cfg *config, appConfig *slideconfig.Config) {
	// 只更新未在命令行上明确设置的参数
	cfg.Host = appConfig.Server.Host

	if flag.Lookup("port").DefValue == fmt.Sprint(cfg.Port) && appConfig.Server.Port > 0 {
		cfg.Port = appConfig.Server.Port
	}
	if flag.Lookup("mode").DefValue == cfg.Mode && appConfig.Server.Mode != "" {
		cfg.Mode = appConfig.Server.Mode
	}
	if flag.Lookup("log-level").DefValue == cfg.LogLevel && appConfig.Log.Level != "" {
		cfg.LogLevel = appConfig.Log.Level
	}
	if flag.Lookup("storage").DefValue == cfg.StoragePath && appConfig.Storage.Path != "" {
		cfg.StoragePath = appConfig.Storage.Path
	}
	if flag.Lookup("cache").DefValue == cfg.CacheType && appConfig.Cache.Type != "" {
		cfg.CacheType = appConfig.Cache.Type
	}
	if flag.Lookup("format").DefValue == cfg.Format && appConfig.Render.Format != "" {
		cfg.Format = appConfig.Render.Format
	}
	if flag.Lookup("pdf-font").DefValue == cfg.PDFFont && appConfig.Render.PDFFontFile != "" {
		cfg.PDFFont = appConfig.Render.PDFFontFile
	}

	// 任务队列配置
	if flag.Lookup("queue").DefValue == fmt.Sprint(cfg.QueueEnabled) {
		cfg.QueueEnabled = appConfig.Queue.Enable
	}
	if flag.Lookup("queue-type").DefValue == cfg.QueueType && appConfig.Queue.Type != "" {
		cfg.QueueType = appConfig.Queue.Type
	}
	if flag.Lookup("redis-addr").DefValue == cfg.RedisAddr && appConfig.Queue.RedisAddr != "" {
		cfg.RedisAddr = appConfig.Queue.RedisAddr
	}
	if flag.Lookup("redis-password").DefValue == cfg.RedisPassword {
		cfg.RedisPassword = appConfig.Queue.RedisPassword
	}
	if flag.Lookup("redis-db").DefValue == fmt.Sprint(cfg.RedisDB) {
		cfg.RedisDB = appConfig.Queue.RedisDB
	}
	if flag.Lookup("queue-concurrency").DefValue == fmt.Sprint(cfg.QueueConcurrency) && appConfig.Queue.Concurrency > 0 {
		cfg.QueueConcurrency = appConfig.Queue.Concurrency
	}
	if flag.Lookup("queue-retry").DefValue == fmt.Sprint(cfg.QueueRetryLimit) && appConfig.Queue.RetryLimit > 0 {
		cfg.QueueRetryLimit = appConfig.Queue.RetryLimit
	}
	if appConfig.Queue.RetryDelay > 0 {
		cfg.QueueRetryDelay = time.Duration(appConfig.Queue.RetryDelay) * time.Second
	}
}

// setupLogger 设置日志系统
func setupLogger(level string) *logrus.Logger {
	logger := middleware.GetLogger()

	// 设置日志级别
	switch level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger
}

// setupStorage 设置文件存储服务
func setupStorage(cfg config, appConfig *slideconfig.Config) (storage.Storage, error) {
	// MinIO存储只能通过配置文件启用，凭证走配置文件或环境变量
	if appConfig != nil && appConfig.Storage.Type == "minio" {
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  appConfig.Storage.Endpoint,
			AccessKey: appConfig.Storage.AccessKey,
			SecretKey: appConfig.Storage.SecretKey,
			UseSSL:    appConfig.Storage.UseSSL,
			Bucket:    appConfig.Storage.Bucket,
		})
	}

	// 确保存储目录存在
	if err := os.MkdirAll(cfg.StoragePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}

	// 创建本地存储
	return storage.NewLocalStorage(storage.LocalConfig{
		Path: cfg.StoragePath,
	})
}

// setupCache 设置缓存服务
func setupCache(cfg config, appConfig *slideconfig.Config) (cache.Cache, error) {
	// 配置文件显式关闭缓存时不创建
	if appConfig != nil && !appConfig.Cache.Enable {
		return nil, nil
	}

	cacheConfig := cache.Config{
		Type:            cfg.CacheType,
		DefaultTTL:      24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
	if appConfig != nil && appConfig.Cache.TTL > 0 {
		cacheConfig.DefaultTTL = time.Duration(appConfig.Cache.TTL) * time.Second
	}

	// 如果配置了Redis，添加Redis配置
	if cacheConfig.Type == "redis" {
		cacheConfig.RedisAddr = cfg.RedisAddr
		cacheConfig.RedisPassword = cfg.RedisPassword
		if appConfig != nil && appConfig.Cache.Address != "" {
			cacheConfig.RedisAddr = appConfig.Cache.Address
			cacheConfig.RedisPassword = appConfig.Cache.Password
			cacheConfig.RedisDB = appConfig.Cache.DB
		}
	}

	return cache.NewCache(cacheConfig)
}

// setupDatabase 设置数据库
func setupDatabase(cfg config, appConfig *slideconfig.Config, logger *logrus.Logger) error {
	dbConfig := database.DefaultConfig()
	dbConfig.DSN = filepath.Join(cfg.DataDir, "slidegen.db")

	// 配置文件优先于默认路径
	if appConfig != nil && appConfig.Database.DSN != "" {
		dbConfig.Type = appConfig.Database.Type
		dbConfig.DSN = appConfig.Database.DSN
	}

	return database.Setup(dbConfig, logger)
}

// setupTaskQueue 设置任务队列
func setupTaskQueue(cfg config, logger *logrus.Logger) (taskqueue.Queue, error) {
	// 根据配置创建任务队列
	queueConfig := &taskqueue.Config{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Concurrency:   cfg.QueueConcurrency,
		RetryLimit:    cfg.QueueRetryLimit,
		RetryDelay:    cfg.QueueRetryDelay,
	}

	logger.WithFields(logrus.Fields{
		"type":        cfg.QueueType,
		"redis_addr":  cfg.RedisAddr,
		"concurrency": cfg.QueueConcurrency,
		"retry_limit": cfg.QueueRetryLimit,
	}).Info("Setting up task queue")

	queue, err := taskqueue.NewQueue(cfg.QueueType, queueConfig)
	if err != nil {
		return nil, err
	}

	return queue, nil
}
