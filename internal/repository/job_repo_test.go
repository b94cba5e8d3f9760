package repository

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/fyerfyer/slide-gen-system/internal/database"
	"github.com/fyerfyer/slide-gen-system/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	// 使用唯一的内存数据库标识符
	dbName := fmt.Sprintf("file:memdb_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")

	// 运行迁移以创建所需的表
	err = db.AutoMigrate(&models.GenerationJob{}, &models.Artifact{})
	require.NoError(t, err, "Failed to run migrations")

	// 保存原始全局DB引用
	originalDB := database.DB

	// 替换全局DB为测试DB
	database.DB = db

	// 返回测试DB和清理函数
	cleanup := func() {
		// 恢复原始DB引用
		database.DB = originalDB
	}

	return db, cleanup
}

func TestJobRepository_Create(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()

	// 创建测试作业
	job := &models.GenerationJob{
		ID:         "test-job-1",
		SourceName: "lecture.txt",
		SourceType: "txt",
		SourcePath: "/path/to/lecture.txt",
		SourceSize: 1024,
		Format:     "pptx",
		Status:     models.JobStatusPending,
		UpdatedAt:  time.Now(),
	}

	// 测试创建
	err := repo.Create(job)
	assert.NoError(t, err, "Job creation should succeed")

	// 验证作业已创建
	savedJob, err := repo.GetByID(job.ID)
	assert.NoError(t, err, "Should be able to retrieve created job")
	assert.Equal(t, job.ID, savedJob.ID, "Job ID should match")
	assert.Equal(t, job.SourceName, savedJob.SourceName, "Job source name should match")
	assert.Equal(t, job.Status, savedJob.Status, "Job status should match")
	assert.False(t, savedJob.SubmittedAt.IsZero(), "SubmittedAt should be set by hook")

	// 空ID应被拒绝
	err = repo.Create(&models.GenerationJob{})
	assert.Error(t, err, "Creating a job without ID should fail")
}

func TestJobRepository_Update(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()

	// 创建测试作业
	job := &models.GenerationJob{
		ID:         "test-job-2",
		SourceName: "lecture.txt",
		SourceType: "txt",
		Format:     "pptx",
		Status:     models.JobStatusPending,
		UpdatedAt:  time.Now(),
	}

	err := repo.Create(job)
	require.NoError(t, err, "Job creation should succeed")

	// 更新作业
	job.Status = models.JobStatusProcessing
	job.PresentationCount = 3
	job.CurrentTaskID = "task-abc"

	err = repo.Update(job)
	assert.NoError(t, err, "Job update should succeed")

	// 验证更新
	updatedJob, err := repo.GetByID(job.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, updatedJob.Status, "Status should be updated")
	assert.Equal(t, 3, updatedJob.PresentationCount, "Presentation count should be updated")
	assert.Equal(t, "task-abc", updatedJob.CurrentTaskID, "Task ID should be updated")
}

func TestJobRepository_GetByID(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()

	// 测试获取不存在的作业
	job, err := repo.GetByID("non-existing")
	assert.Error(t, err, "Should return error for non-existing job")
	assert.ErrorIs(t, err, models.ErrJobNotFound, "Error should wrap ErrJobNotFound")
	assert.Nil(t, job, "Should return nil for non-existing job")

	// 创建测试作业
	testJob := &models.GenerationJob{
		ID:         "test-job-3",
		SourceName: "lecture.md",
		SourceType: "md",
		Format:     "pdf",
		Status:     models.JobStatusPending,
	}
	err = repo.Create(testJob)
	require.NoError(t, err)

	// 测试获取存在的作业
	job, err = repo.GetByID("test-job-3")
	assert.NoError(t, err, "Should retrieve existing job without error")
	assert.NotNil(t, job, "Should return job object")
	assert.Equal(t, "lecture.md", job.SourceName, "Job properties should match")
}

func TestJobRepository_List(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()

	// 创建测试作业
	jobs := []*models.GenerationJob{
		{
			ID:          "test-job-4",
			SourceName:  "intro.txt",
			SourceType:  "txt",
			Format:      "pptx",
			Status:      models.JobStatusPending,
			SubmittedAt: time.Now().Add(-2 * time.Hour),
		},
		{
			ID:          "test-job-5",
			SourceName:  "loops.md",
			SourceType:  "md",
			Format:      "pptx",
			Status:      models.JobStatusProcessing,
			SubmittedAt: time.Now().Add(-1 * time.Hour),
		},
		{
			ID:          "test-job-6",
			SourceName:  "functions.txt",
			SourceType:  "txt",
			Format:      "pdf",
			Status:      models.JobStatusCompleted,
			SubmittedAt: time.Now(),
		},
	}

	for _, job := range jobs {
		err := repo.Create(job)
		require.NoError(t, err)
	}

	// 测试无过滤器列表
	resultJobs, total, err := repo.List(0, 10, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), total, "Total count should be 3")
	assert.Len(t, resultJobs, 3, "Should return 3 jobs")

	// 最新提交的作业排在最前
	assert.Equal(t, "test-job-6", resultJobs[0].ID, "Jobs should be ordered by submission time descending")

	// 测试分页
	resultJobs, total, err = repo.List(1, 2, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), total, "Total count should still be 3")
	assert.Len(t, resultJobs, 2, "Should return 2 jobs with offset 1")

	// 测试状态过滤器
	filters := map[string]interface{}{
		"status": string(models.JobStatusProcessing),
	}
	resultJobs, total, err = repo.List(0, 10, filters)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total, "Total count should be 1")
	assert.Len(t, resultJobs, 1, "Should return 1 job")
	assert.Equal(t, "test-job-5", resultJobs[0].ID, "Should return the processing job")

	// 测试格式过滤器
	filters = map[string]interface{}{
		"format": "pptx",
	}
	resultJobs, total, err = repo.List(0, 10, filters)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total, "Total count should be 2")
	assert.Len(t, resultJobs, 2, "Should return 2 pptx jobs")

	// 测试源文件名过滤器
	filters = map[string]interface{}{
		"source_name": "loops",
	}
	resultJobs, total, err = repo.List(0, 10, filters)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total, "Total count should be 1")
	assert.Equal(t, "test-job-5", resultJobs[0].ID, "Should return the matching job")
}

func TestJobRepository_Delete(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()

	// 创建测试作业
	job := &models.GenerationJob{
		ID:         "test-job-7",
		SourceName: "lecture.txt",
		SourceType: "txt",
		Format:     "pptx",
		Status:     models.JobStatusCompleted,
	}

	err := repo.Create(job)
	require.NoError(t, err)

	// 添加一些产物记录
	artifact := &models.Artifact{
		JobID:       job.ID,
		Position:    1,
		Title:       "Практическая работа 1",
		FileName:    "presentation_01_praktika.pptx",
		StoragePath: "jobs/test-job-7/presentation_01_praktika.pptx",
		Format:      "pptx",
		SlideCount:  4,
	}
	err = repo.SaveArtifact(artifact)
	require.NoError(t, err)

	// 测试删除
	err = repo.Delete(job.ID)
	assert.NoError(t, err, "Delete should succeed")

	// 验证作业已删除
	_, err = repo.GetByID(job.ID)
	assert.Error(t, err, "Job should no longer exist")

	// 验证产物记录已删除
	artifacts, err := repo.GetArtifacts(job.ID)
	assert.NoError(t, err, "GetArtifacts should not error even if job is deleted")
	assert.Empty(t, artifacts, "Artifacts should be deleted along with the job")
}

func TestJobRepository_UpdateStatus(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()

	// 创建测试作业
	job := &models.GenerationJob{
		ID:         "test-job-8",
		SourceName: "lecture.txt",
		SourceType: "txt",
		Format:     "pptx",
		Status:     models.JobStatusPending,
	}

	err := repo.Create(job)
	require.NoError(t, err)

	// 测试更新状态
	err = repo.UpdateStatus(job.ID, models.JobStatusProcessing, "")
	assert.NoError(t, err, "Status update should succeed")

	// 验证状态已更新
	updatedJob, err := repo.GetByID(job.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, updatedJob.Status, "Status should be updated")

	// 测试带错误消息的状态更新
	err = repo.UpdateStatus(job.ID, models.JobStatusFailed, "failed to parse source file")
	assert.NoError(t, err)

	updatedJob, err = repo.GetByID(job.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, updatedJob.Status, "Status should be updated to failed")
	assert.Equal(t, "failed to parse source file", updatedJob.Error, "Error message should be set")
	assert.NotNil(t, updatedJob.ProcessedAt, "ProcessedAt should be set for failed status")
}

func TestJobRepository_UpdateResult(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()

	// 创建测试作业
	job := &models.GenerationJob{
		ID:         "test-job-9",
		SourceName: "lecture.txt",
		SourceType: "txt",
		Format:     "pptx",
		Status:     models.JobStatusProcessing,
	}

	err := repo.Create(job)
	require.NoError(t, err)

	// 测试更新结果统计
	err = repo.UpdateResult(job.ID, 5)
	assert.NoError(t, err, "Result update should succeed")

	// 验证统计已更新
	updatedJob, err := repo.GetByID(job.ID)
	assert.NoError(t, err)
	assert.Equal(t, 5, updatedJob.PresentationCount, "Presentation count should be updated to 5")

	// 测试负数被调整为0
	err = repo.UpdateResult(job.ID, -3)
	assert.NoError(t, err)

	updatedJob, err = repo.GetByID(job.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, updatedJob.PresentationCount, "Negative count should be adjusted to 0")
}

func TestJobRepository_ArtifactOperations(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()

	// 创建测试作业
	job := &models.GenerationJob{
		ID:         "test-job-10",
		SourceName: "lecture.txt",
		SourceType: "txt",
		Format:     "pptx",
		Status:     models.JobStatusProcessing,
	}

	err := repo.Create(job)
	require.NoError(t, err)

	// 测试保存产物
	artifact1 := &models.Artifact{
		JobID:       job.ID,
		Position:    1,
		Title:       "Практическая работа 1",
		FileName:    "presentation_01_praktika.pptx",
		StoragePath: "jobs/test-job-10/presentation_01_praktika.pptx",
		Format:      "pptx",
		SlideCount:  3,
	}

	artifact2 := &models.Artifact{
		JobID:       job.ID,
		Position:    2,
		Title:       "Практическая работа 2",
		FileName:    "presentation_02_praktika.pptx",
		StoragePath: "jobs/test-job-10/presentation_02_praktika.pptx",
		Format:      "pptx",
		SlideCount:  5,
	}

	// 单个保存
	err = repo.SaveArtifact(artifact1)
	assert.NoError(t, err, "SaveArtifact should succeed")

	// 批量保存
	err = repo.SaveArtifacts([]*models.Artifact{artifact2})
	assert.NoError(t, err, "SaveArtifacts should succeed")

	// 测试获取产物
	artifacts, err := repo.GetArtifacts(job.ID)
	assert.NoError(t, err)
	assert.Len(t, artifacts, 2, "Should return 2 artifacts")
	assert.Equal(t, "Практическая работа 1", artifacts[0].Title, "Artifact title should match")
	assert.Equal(t, "Практическая работа 2", artifacts[1].Title, "Artifact title should match")

	// 测试按序号获取产物
	artifact, err := repo.GetArtifactByPosition(job.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, "presentation_02_praktika.pptx", artifact.FileName, "Artifact filename should match")

	// 不存在的序号应返回错误
	_, err = repo.GetArtifactByPosition(job.ID, 99)
	assert.Error(t, err, "Should return error for missing position")
	assert.ErrorIs(t, err, models.ErrArtifactNotFound, "Error should wrap ErrArtifactNotFound")

	// 测试统计产物数量
	count, err := repo.CountArtifacts(job.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, count, "Should count 2 artifacts")

	// 测试删除产物
	err = repo.DeleteArtifacts(job.ID)
	assert.NoError(t, err, "DeleteArtifacts should succeed")

	// 验证产物已删除
	artifacts, err = repo.GetArtifacts(job.ID)
	assert.NoError(t, err)
	assert.Empty(t, artifacts, "Artifacts should be deleted")

	count, err = repo.CountArtifacts(job.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, count, "Artifact count should be 0 after deletion")
}

func TestMain(m *testing.M) {
	// 确保测试目录存在
	os.MkdirAll("../../data", 0755)

	// 运行测试
	exitCode := m.Run()

	// 退出
	os.Exit(exitCode)
}
