package jobqueue

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/vidscribe/VidScribe/internal/pkg/s3backup"
)

// Uploader is the slice of the S3 backup client the queue needs.
type Uploader interface {
	UploadFile(localFilePath, objectKey string) (*s3backup.UploadResult, error)
}

// SetUploader wires the S3 backup client into the queue. Without one, backup
// jobs complete as no-ops so the pipeline never blocks on storage config.
func (q *Queue) SetUploader(u Uploader) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.uploader = u
}

func (q *Queue) getUploader() Uploader {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.uploader
}

// EnqueueArtifactBackup queues a completed conversion artifact for upload.
func (q *Queue) EnqueueArtifactBackup(payload ArtifactBackupJobPayload) (*Job, error) {
	return q.EnqueueJob(JobTypeArtifactBackup, payload.ToMap())
}

// processArtifactBackupJob uploads one artifact file to S3-compatible storage.
func (q *Queue) processArtifactBackupJob(ctx context.Context, job *Job) error {
	payload, err := ArtifactBackupJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid artifact backup payload: %w", err)
	}

	uploader := q.getUploader()
	if uploader == nil {
		log.Debugf("[JobQueue] Backup disabled, skipping artifact %s", payload.FileName)
		return nil
	}

	if _, err := os.Stat(payload.FilePath); err != nil {
		// The artifact can be gone by the time the job runs (user reset or
		// workspace cleanup); not worth retrying.
		log.Warnf("[JobQueue] Artifact %s no longer on disk, skipping backup", payload.FilePath)
		return nil
	}

	cfg, err := s3backup.LoadConfig()
	if err != nil {
		return fmt.Errorf("backup config: %w", err)
	}

	now := time.Now()
	objectKey := cfg.GetObjectKey(payload.SessionID, payload.FileName, now.Year(), int(now.Month()))

	result, err := uploader.UploadFile(payload.FilePath, objectKey)
	if err != nil {
		return fmt.Errorf("artifact upload: %w", err)
	}

	log.Infof("[JobQueue] Backed up artifact for session %s to s3://%s/%s (%d bytes)",
		payload.SessionID, result.BucketName, result.ObjectKey, result.Size)
	return nil
}
