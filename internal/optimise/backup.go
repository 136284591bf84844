package optimise

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/ldubois/optimg/internal/logger"
)

// outputPatterns are the globs matched when counting images in an
// optimised output set.
var outputPatterns = []string{"*.jpg", "*.webp", "*.avif"}

// s3API is the subset of the S3 client the backup uses.
type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Backup defines the interface for backing up optimised output sets to S3.
type Backup interface {
	// BackupOutputs archives each first-level subdirectory of outDir
	// (or outDir itself when it has no subdirectories) and uploads the
	// archives to the bucket, skipping archives that already exist
	// remotely with the same content.
	BackupOutputs(ctx context.Context, outDir, bucket string, maxConcurrent int) error
}

// s3Backup implements the Backup interface.
type s3Backup struct {
	client s3API
}

// NewBackup creates a new Backup instance using the default AWS
// credential chain.
func NewBackup(ctx context.Context) (Backup, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &s3Backup{client: s3.NewFromConfig(cfg)}, nil
}

// newBackupWithClient allows tests to inject a fake client.
func newBackupWithClient(client s3API) Backup {
	return &s3Backup{client: client}
}

// BackupOutputs archives and uploads optimised output sets in parallel.
func (b *s3Backup) BackupOutputs(ctx context.Context, outDir, bucket string, maxConcurrent int) error {
	if maxConcurrent < 1 {
		return fmt.Errorf("max concurrent uploads must be at least 1, got %d", maxConcurrent)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	var sets []string
	for _, entry := range entries {
		if entry.IsDir() {
			sets = append(sets, entry.Name())
		}
	}
	// A flat output tree is a single set.
	flat := len(sets) == 0
	if flat {
		sets = []string{"."}
	}

	logger.Info("Starting S3 backup", "sets", len(sets), "bucket", bucket, "concurrency", maxConcurrent)

	jobs := make(chan string, len(sets))
	results := make(chan error, len(sets))
	var wg sync.WaitGroup

	for i := 0; i < maxConcurrent; i++ {
		wg.Add(1)
		go b.backupWorker(ctx, i, outDir, bucket, jobs, results, &wg)
	}

	for _, setName := range sets {
		jobs <- setName
	}
	close(jobs)

	wg.Wait()
	close(results)

	var failures []error
	successCount := 0
	for err := range results {
		if err != nil {
			failures = append(failures, err)
		} else {
			successCount++
		}
	}

	if len(failures) > 0 {
		logger.Error("Backup completed with errors", "successful", successCount, "failed", len(failures))
		return fmt.Errorf("backup failed for %d output sets", len(failures))
	}

	logger.Info("Backup completed successfully", "sets_backed_up", successCount)
	return nil
}

// backupWorker processes backup jobs from the jobs channel.
func (b *s3Backup) backupWorker(ctx context.Context, workerID int, outDir, bucket string, jobs <-chan string, results chan<- error, wg *sync.WaitGroup) {
	defer wg.Done()
	for setName := range jobs {
		logger.Debug("Worker processing output set", "worker", workerID, "set", setName)
		if err := b.backupSet(ctx, outDir, setName, bucket); err != nil {
			logger.Error("Failed to back up output set", "set", setName, "error", err)
			results <- fmt.Errorf("output set %s: %w", setName, err)
		} else {
			results <- nil
		}
	}
}

// backupSet archives a single output set and uploads it to S3.
func (b *s3Backup) backupSet(ctx context.Context, outDir, setName, bucket string) error {
	setPath := filepath.Join(outDir, setName)

	imageCount, err := countOutputImages(setPath)
	if err != nil {
		return fmt.Errorf("failed to count images: %w", err)
	}

	keyName := setName
	if setName == "." {
		keyName = filepath.Base(outDir)
	}
	s3Key := fmt.Sprintf("%s (%d images).tar.gz", keyName, imageCount)

	tmpDir, err := os.MkdirTemp("", "optimg_backup_")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logger.Error("Failed to remove temporary directory", "path", tmpDir, "error", err)
		}
	}()

	archivePath := filepath.Join(tmpDir, filepath.Base(s3Key))
	logger.Info("Creating archive", "set", keyName, "images", imageCount)

	if err := createTarGz(setPath, archivePath); err != nil {
		return fmt.Errorf("failed to create tar.gz: %w", err)
	}

	localHash, err := calculateMD5(archivePath)
	if err != nil {
		return fmt.Errorf("failed to calculate MD5: %w", err)
	}

	headOutput, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(s3Key),
	})

	if err == nil {
		remoteETag := ""
		if headOutput.ETag != nil {
			remoteETag = strings.Trim(*headOutput.ETag, `"`)
		}

		if remoteETag == localHash {
			logger.Info("Archive already in S3 with matching hash, skipping", "set", keyName, "key", s3Key, "hash", localHash)
			return nil
		}
		return fmt.Errorf("hash mismatch for '%s': S3 object exists with different content (local: %s, remote: %s). Manual intervention required", s3Key, localHash, remoteETag)
	} else if !isNotFoundError(err) {
		return fmt.Errorf("failed to check S3 object existence: %w", err)
	}

	logger.Info("Uploading to S3", "set", keyName, "bucket", bucket, "key", s3Key, "hash", localHash)
	if err := b.uploadToS3(ctx, archivePath, bucket, s3Key); err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	logger.Info("Successfully backed up output set", "set", keyName, "key", s3Key)
	return nil
}

// uploadToS3 uploads a file to S3.
func (b *s3Backup) uploadToS3(ctx context.Context, filePath, bucket, key string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	return err
}

// countOutputImages counts optimised images in an output set directory.
func countOutputImages(dirPath string) (int, error) {
	count := 0
	for _, pattern := range outputPatterns {
		files, err := filepath.Glob(filepath.Join(dirPath, pattern))
		if err != nil {
			return 0, err
		}
		count += len(files)
	}
	return count, nil
}

// calculateMD5 calculates the MD5 hash of a file.
func calculateMD5(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// isNotFoundError checks if the error is a NotFound error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode() == "NotFound" {
			return true
		}
	}

	// Check error message as fallback
	errMsg := err.Error()
	return strings.Contains(errMsg, "NotFound") || strings.Contains(errMsg, "StatusCode: 404")
}

// createTarGz creates a tar.gz archive of a directory.
func createTarGz(sourceDir, targetFile string) error {
	file, err := os.Create(targetFile)
	if err != nil {
		return err
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	defer gzWriter.Close()

	tarWriter := tar.NewWriter(gzWriter)
	defer tarWriter.Close()

	return filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		header.Name = relPath

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		if _, err := io.Copy(tarWriter, f); err != nil {
			return err
		}

		return nil
	})
}
