package api

import (
	"github.com/fyerfyer/slide-gen-system/api/handler"
	"github.com/fyerfyer/slide-gen-system/api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRouter 组装全部API端点和中间件
// taskHandler可以为nil，此时不注册任务查询相关的路由
func SetupRouter(
	jobHandler *handler.JobHandler,
	taskHandler *handler.TaskHandler,
) *gin.Engine {
	router := gin.Default()

	// 全局中间件，顺序：访问日志 -> 错误兜底 -> 追踪ID -> 跨域
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(middleware.SetTraceID())
	router.Use(Cors())

	// 在调试模式下记录请求体和响应体
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
		router.Use(middleware.ResponseLogger())
	}

	api := router.Group("/api")
	{
		// 生成作业API
		jobGroup := api.Group("/jobs")
		{
			// 提交作业 - POST /api/jobs
			jobGroup.POST("", jobHandler.UploadJob)

			// 获取作业列表 - GET /api/jobs
			jobGroup.GET("", jobHandler.ListJobs)

			// 获取作业状态 - GET /api/jobs/:id
			jobGroup.GET("/:id", jobHandler.GetJobStatus)

			// 获取生成结果 - GET /api/jobs/:id/result
			jobGroup.GET("/:id/result", jobHandler.GetJobResult)

			// 获取产物列表 - GET /api/jobs/:id/artifacts
			jobGroup.GET("/:id/artifacts", jobHandler.ListArtifacts)

			// 下载产物文件 - GET /api/jobs/:id/artifacts/:position/download
			jobGroup.GET("/:id/artifacts/:position/download", jobHandler.DownloadArtifact)

			// 删除作业 - DELETE /api/jobs/:id
			jobGroup.DELETE("/:id", jobHandler.DeleteJob)

			// 作业任务列表（仅异步模式） - GET /api/jobs/:id/tasks
			if taskHandler != nil {
				jobGroup.GET("/:id/tasks", taskHandler.GetJobTasks)
			}
		}

		// 任务状态查询API（仅异步模式）
		if taskHandler != nil {
			api.GET("/tasks/:id", taskHandler.GetTaskStatus)
		}

		// 健康检查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors 跨域资源共享中间件
// 浏览器前端直接调用本API时需要这些响应头
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
