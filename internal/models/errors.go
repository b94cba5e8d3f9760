package models

import "errors"

var (
	// ErrJobNotFound 任务不存在错误
	ErrJobNotFound = errors.New("job not found")

	// ErrArtifactNotFound 产物不存在错误
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrInvalidJobStatus 无效的任务状态错误
	ErrInvalidJobStatus = errors.New("invalid job status")
)
