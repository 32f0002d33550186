package controllers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/vidscribe/VidScribe/internal/pkg/fetch"
	"github.com/vidscribe/VidScribe/internal/pkg/pipeline"
	"github.com/vidscribe/VidScribe/internal/pkg/upload"
	"github.com/vidscribe/VidScribe/internal/pkg/usercontext"
)

var (
	convertManager *pipeline.Manager
	videoFetcher   *fetch.Fetcher
	workspaceDir   string
)

// InitializeConvertController wires the pipeline manager and source fetcher
// into the conversion endpoints.
func InitializeConvertController(m *pipeline.Manager, f *fetch.Fetcher, workDir string) {
	convertManager = m
	videoFetcher = f
	workspaceDir = workDir
}

// HandleConvertStart accepts a video (multipart upload or url form field) and
// starts a pipeline run with the selected stage toggles.
func HandleConvertStart(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	opts := pipeline.Options{
		Transcribe:   c.FormValue("transcribe") == "true" || c.FormValue("transcribe") == "on",
		WriteArticle: c.FormValue("write_article") == "true" || c.FormValue("write_article") == "on",
	}

	sourcePath, err := resolveSourceVideo(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_source",
			"message": err.Error(),
		})
	}

	sess, err := convertManager.Start(userID, sourcePath, opts)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunActive) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "conversion_active",
				"message": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "start_failed",
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":     sess.ID,
		"status": string(sess.Stage()),
	})
}

// resolveSourceVideo stores the uploaded file or downloads the given URL and
// returns a local path. Validation happens before anything touches the
// pipeline.
func resolveSourceVideo(c *fiber.Ctx) (string, error) {
	if rawURL := strings.TrimSpace(c.FormValue("url")); rawURL != "" {
		return videoFetcher.Download(c.Context(), rawURL)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return "", errors.New("provide a video file or a video url")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := src.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if _, err := upload.ValidateVideoBySniff(fileHeader.Filename, head[:n]); err != nil {
		return "", err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	if err := os.MkdirAll(workspaceDir, 0o755); err != nil {
		return "", fmt.Errorf("workspace: %w", err)
	}

	localPath := filepath.Join(workspaceDir, uuid.NewString()+"_"+filepath.Base(fileHeader.Filename))
	dst, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("store upload: %w", err)
	}

	log.Infof("[Convert] Stored upload %s (%d bytes)", fileHeader.Filename, fileHeader.Size)
	return localPath, nil
}

// ownedSession returns the caller's session if the path id matches it.
func ownedSession(c *fiber.Ctx) (*pipeline.Session, error) {
	sess := convertManager.Session(usercontext.GetUserID(c))
	if sess == nil || sess.ID != c.Params("id") {
		return nil, errors.New("conversion not found")
	}
	return sess, nil
}

// HandleConvertStatus returns the session snapshot for polling.
func HandleConvertStatus(c *fiber.Ctx) error {
	sess, err := ownedSession(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": err.Error(),
		})
	}
	return c.JSON(sess.Snapshot())
}

// HandleConvertCancel stops the caller's active run.
func HandleConvertCancel(c *fiber.Ctx) error {
	sess, err := ownedSession(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": err.Error(),
		})
	}

	if err := convertManager.Cancel(usercontext.GetUserID(c)); err != nil {
		if errors.Is(err, pipeline.ErrNoActiveRun) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "not_running",
				"message": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "cancel_failed",
			"message": err.Error(),
		})
	}

	return c.JSON(sess.Snapshot())
}

// HandleConvertReset discards the caller's session and its artifacts.
func HandleConvertReset(c *fiber.Ctx) error {
	convertManager.Reset(usercontext.GetUserID(c))
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleConvertAudio streams the audio artifact as a download.
func HandleConvertAudio(c *fiber.Ctx) error {
	sess, err := ownedSession(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": err.Error(),
		})
	}

	audio := sess.Audio()
	if audio == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "no_audio",
			"message": "no audio has been produced for this conversion",
		})
	}
	return c.Download(audio.Path, audio.FileName)
}

// HandleConvertTranscript returns the transcript as plain text.
func HandleConvertTranscript(c *fiber.Ctx) error {
	sess, err := ownedSession(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": err.Error(),
		})
	}

	transcript := sess.Transcript()
	if transcript == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "no_transcript",
			"message": "no transcript has been produced for this conversion",
		})
	}
	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="transcript.txt"`)
	return c.SendString(transcript)
}

// HandleConvertArticle returns the generated article as markdown.
func HandleConvertArticle(c *fiber.Ctx) error {
	sess, err := ownedSession(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": err.Error(),
		})
	}

	article := sess.Article()
	if article == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "no_article",
			"message": "no article has been generated for this conversion",
		})
	}
	c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="article.md"`)
	return c.SendString(article)
}
