package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/fyerfyer/slide-gen-system/api/model"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 应用错误类型
const (
	ErrorTypeValidation = "VALIDATION_ERROR" // 输入验证错误
	ErrorTypeNotFound   = "NOT_FOUND_ERROR"  // 资源不存在错误
	ErrorTypeInternal   = "INTERNAL_ERROR"   // 内部服务器错误
	ErrorTypeBusiness   = "BUSINESS_ERROR"   // 业务逻辑错误
)

// AppError 带HTTP状态码的应用错误
// 处理器通过HandleError上报后由ErrorMiddleware统一转换为响应
type AppError struct {
	Type    string // 错误分类
	Message string // 返回给客户端的错误消息
	Details string // 详细错误信息，仅记录日志
	Code    int    // HTTP状态码
}

// Error 实现error接口
func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewValidationError 输入参数不合法
func NewValidationError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// NewNotFoundError 请求的资源不存在
func NewNotFoundError(message string) AppError {
	return AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    http.StatusNotFound,
	}
}

// NewInternalError 服务内部错误
func NewInternalError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusInternalServerError,
	}
}

// NewBusinessError 业务规则拒绝了本次请求
func NewBusinessError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeBusiness,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// HandleError 在处理器中上报错误，由ErrorMiddleware统一响应
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
}

// ErrorMiddleware 请求级的统一错误出口
// 恢复panic并将处理器上报的错误转换为标准错误响应
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					FieldError: r,
					FieldPath:  c.Request.URL.Path,
					"stack":    string(debug.Stack()),
				}).Error("Panic recovered in API request")

				resp := model.NewErrorResponse(
					http.StatusInternalServerError,
					"An unexpected error occurred",
				)
				// 开发环境下返回panic内容
				if gin.Mode() == gin.DebugMode {
					resp.Message = fmt.Sprintf("Panic: %v", r)
				}
				resp.TraceID = traceIDFrom(c)

				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// 只处理最后一个上报的错误
		err := c.Errors.Last().Err
		traceID := traceIDFrom(c)

		var appErr AppError
		if errors.As(err, &appErr) {
			log.WithFields(logrus.Fields{
				"error_type": appErr.Type,
				FieldTraceID: traceID,
				FieldPath:    c.Request.URL.Path,
				"details":    appErr.Details,
			}).Error(appErr.Message)

			resp := model.NewErrorResponse(appErr.Code, appErr.Message)
			resp.TraceID = traceID
			c.AbortWithStatusJSON(appErr.Code, resp)
			return
		}

		// 未分类错误按内部错误处理
		log.WithFields(logrus.Fields{
			FieldTraceID: traceID,
			FieldPath:    c.Request.URL.Path,
		}).Error(err.Error())

		resp := model.NewErrorResponse(
			http.StatusInternalServerError,
			"Internal server error",
		)
		if gin.Mode() == gin.DebugMode {
			resp.Message = err.Error()
		}
		resp.TraceID = traceID

		c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	}
}

// traceIDFrom 从请求上下文提取追踪ID
func traceIDFrom(c *gin.Context) string {
	if v, ok := c.Get("TraceID"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
