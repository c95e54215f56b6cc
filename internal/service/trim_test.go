package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"video-trimmer/config"
	"video-trimmer/internal/appdirs"
	"video-trimmer/internal/dto"
	"video-trimmer/internal/jobcore"
	"video-trimmer/internal/storage"
	"video-trimmer/internal/types"
	"video-trimmer/log"
	apperrors "video-trimmer/pkg/errors"
	"video-trimmer/pkg/ffmpeg"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	if os.Getenv(appdirs.DataDirEnv) == "" {
		os.Setenv(appdirs.DataDirEnv, filepath.Join(os.TempDir(), "video-trimmer-test"))
	}
	log.InitLogger()
}

func openTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&types.Video{}, &types.TrimJob{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	original := storage.DB
	storage.DB = db
	t.Cleanup(func() { storage.DB = original })
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()

	openTestDB(t)
	dataDir := t.TempDir()
	setAppDirsResolverForTest(t, dataDir)
	if err := EnsureRuntimeDirs(); err != nil {
		t.Fatalf("EnsureRuntimeDirs() error: %v", err)
	}

	config.Conf = config.Config{}
	config.Conf.Server.RequestTimeout = 5
	config.Conf.Jobs.Concurrency = 2
	config.Conf.Preview.MaxHeight = 720
	config.Conf.Preview.Bitrate = "2000k"

	svc := NewService()
	return svc, dataDir
}

func seedVideo(t *testing.T, dataDir, videoID string, duration float64) *types.Video {
	t.Helper()

	path := filepath.Join(dataDir, "uploads", videoID+"_clip.mp4")
	if err := os.WriteFile(path, []byte("fake video bytes"), 0o644); err != nil {
		t.Fatalf("write fake upload: %v", err)
	}

	video := &types.Video{
		VideoId:  videoID,
		Filename: "clip.mp4",
		Filepath: path,
		Duration: duration,
	}
	if err := storage.SaveVideo(video); err != nil {
		t.Fatalf("seed video: %v", err)
	}
	return video
}

// instantDispatcher resolves jobs synchronously so StartTrim can be tested
// without a media toolchain.
type instantDispatcher struct {
	fail     bool
	failCode int
	dropped  bool // when set, Dispatch reports queue-full
	noop     bool // when set, the job is accepted but never progresses
}

func (d *instantDispatcher) Dispatch(_ context.Context, req jobcore.TrimRequest) error {
	if d.dropped {
		return jobcore.ErrQueueFull
	}
	if d.noop {
		return nil
	}

	job, err := storage.GetJob(req.JobID)
	if err != nil {
		return err
	}
	if d.fail {
		job.Status = types.TrimJobStatusFailed
		job.Stage = types.TrimJobStageFailed
		job.FailCode = d.failCode
		job.FailReason = "Trim failed"
	} else {
		job.Status = types.TrimJobStatusSuccess
		job.Stage = types.TrimJobStageSucceeded
		job.Progress = 100
	}
	return storage.SaveJob(job)
}

func TestStartTrimVideoNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	svc.SetDispatcher(&instantDispatcher{})

	_, err := svc.StartTrim(context.Background(), dto.TrimVideoReq{Id: "missing"})

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeVideoNotFound))
}

func TestStartTrimSourceFileMissing(t *testing.T) {
	svc, dataDir := newTestService(t)
	svc.SetDispatcher(&instantDispatcher{})

	video := seedVideo(t, dataDir, "vid-1", 60)
	if err := os.Remove(video.Filepath); err != nil {
		t.Fatalf("remove source: %v", err)
	}

	_, err := svc.StartTrim(context.Background(), dto.TrimVideoReq{Id: "vid-1", End: "5s"})

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeSourceMissing))
}

func TestStartTrimRejectsBadTimestamps(t *testing.T) {
	svc, dataDir := newTestService(t)
	svc.SetDispatcher(&instantDispatcher{})
	seedVideo(t, dataDir, "vid-1", 60)

	cases := []struct {
		name string
		req  dto.TrimVideoReq
		code int
	}{
		{"garbage start", dto.TrimVideoReq{Id: "vid-1", Start: "abc", End: "5s"}, apperrors.CodeInvalidTimestamp},
		{"garbage end", dto.TrimVideoReq{Id: "vid-1", Start: "0s", End: "later"}, apperrors.CodeInvalidTimestamp},
		{"negative start", dto.TrimVideoReq{Id: "vid-1", Start: "-2s", End: "5s"}, apperrors.CodeInvalidTimestamp},
		{"start after end", dto.TrimVideoReq{Id: "vid-1", Start: "10s", End: "5s"}, apperrors.CodeInvalidTimeRange},
		{"start equals end", dto.TrimVideoReq{Id: "vid-1", Start: "5s", End: "5s"}, apperrors.CodeInvalidTimeRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.StartTrim(context.Background(), tc.req)
			assert.Error(t, err)
			assert.True(t, apperrors.Is(err, tc.code), "got %v", err)
		})
	}
}

func TestStartTrimSucceeds(t *testing.T) {
	svc, dataDir := newTestService(t)
	svc.SetDispatcher(&instantDispatcher{})
	seedVideo(t, dataDir, "vid-1", 60)

	data, err := svc.StartTrim(context.Background(), dto.TrimVideoReq{
		Id:    "vid-1",
		Start: "1.5s",
		End:   "10s",
	})

	assert.NoError(t, err)
	assert.True(t, data.Success)
	assert.Equal(t, "vid-1", data.Id)
	assert.Equal(t, "clip_trimmed.mp4", data.OutputName)
	assert.NotEmpty(t, data.JobId)

	job, err := storage.GetJob(data.JobId)
	assert.NoError(t, err)
	assert.Equal(t, types.TrimJobStatusSuccess, job.Status)
	assert.Equal(t, 1.5, job.StartSec)
	assert.Equal(t, 10.0, job.EndSec)
}

func TestStartTrimCustomOutputName(t *testing.T) {
	svc, dataDir := newTestService(t)
	svc.SetDispatcher(&instantDispatcher{})
	seedVideo(t, dataDir, "vid-1", 60)

	data, err := svc.StartTrim(context.Background(), dto.TrimVideoReq{
		Id:         "vid-1",
		Start:      "0s",
		End:        "5s",
		OutputName: "my highlight",
	})

	assert.NoError(t, err)
	assert.Equal(t, "my_highlight.mp4", data.OutputName)
}

func TestStartTrimReportsJobFailure(t *testing.T) {
	svc, dataDir := newTestService(t)
	svc.SetDispatcher(&instantDispatcher{fail: true, failCode: apperrors.CodeDiskFull})
	seedVideo(t, dataDir, "vid-1", 60)

	_, err := svc.StartTrim(context.Background(), dto.TrimVideoReq{Id: "vid-1", End: "5s"})

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeDiskFull))
}

func TestStartTrimQueueFull(t *testing.T) {
	svc, dataDir := newTestService(t)
	svc.SetDispatcher(&instantDispatcher{dropped: true})
	seedVideo(t, dataDir, "vid-1", 60)

	_, err := svc.StartTrim(context.Background(), dto.TrimVideoReq{Id: "vid-1", End: "5s"})

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeQueueFull))
}

func TestStartTrimReturnsJobRefWhenWindowExpires(t *testing.T) {
	svc, dataDir := newTestService(t)
	svc.SetDispatcher(&instantDispatcher{noop: true})
	seedVideo(t, dataDir, "vid-1", 60)

	config.Conf.Server.RequestTimeout = 0 // expire immediately

	data, err := svc.StartTrim(context.Background(), dto.TrimVideoReq{Id: "vid-1", End: "5s"})

	assert.NoError(t, err)
	assert.False(t, data.Success)
	assert.NotEmpty(t, data.JobId)
	assert.Equal(t, types.TrimJobStageQueued, data.Stage)

	status, err := svc.GetTrimJob(data.JobId)
	assert.NoError(t, err)
	assert.Equal(t, types.TrimJobStatusRunning, status.Status)
}

func TestGetTrimJobNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetTrimJob("nope")

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeJobNotFound))
}

func TestRunTrimJobRecoversPanic(t *testing.T) {
	svc, dataDir := newTestService(t)
	// A nil engine makes the encode step panic; the worker must recover,
	// mark the job failed and return an error instead of taking the pool
	// down with it.
	svc.Engine = nil
	video := seedVideo(t, dataDir, "vid-1", 60)

	job := &types.TrimJob{
		JobId:   "job-panic",
		VideoId: "vid-1",
		Status:  types.TrimJobStatusRunning,
		Stage:   types.TrimJobStageQueued,
	}
	if err := storage.SaveJob(job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	err := svc.RunTrimJob(context.Background(), jobcore.TrimRequest{
		JobID:      "job-panic",
		VideoID:    "vid-1",
		InputPath:  video.Filepath,
		OutputPath: filepath.Join(dataDir, "output", "vid-1_clip_trimmed.mp4"),
		OutputName: "clip_trimmed.mp4",
		End:        5,
	})

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeTrimFailed))

	saved, getErr := storage.GetJob("job-panic")
	assert.NoError(t, getErr)
	assert.Equal(t, types.TrimJobStatusFailed, saved.Status)
	assert.NotEmpty(t, saved.FailReason)
}

func TestBuildOutputName(t *testing.T) {
	cases := []struct {
		custom   string
		filename string
		want     string
	}{
		{"", "movie.mp4", "movie_trimmed.mp4"},
		{"", "clip.final.mkv", "clip.final_trimmed.mp4"},
		{"highlight", "movie.mp4", "highlight.mp4"},
		{"  spaced name  ", "movie.mp4", "spaced_name.mp4"},
		{"../../escape", "movie.mp4", "escape.mp4"},
	}
	for _, tc := range cases {
		if got := buildOutputName(tc.custom, tc.filename); got != tc.want {
			t.Fatalf("buildOutputName(%q, %q) = %q, want %q", tc.custom, tc.filename, got, tc.want)
		}
	}
}

func TestGetVideoDurationProbeFailureReadsAsZero(t *testing.T) {
	svc, dataDir := newTestService(t)
	// Point the engine at a binary that does not exist; the probe fails and
	// the duration stays 0, matching the lazy-probe contract.
	svc.Engine = ffmpeg.New("missing-ffmpeg-bin", "missing-ffprobe-bin")
	seedVideo(t, dataDir, "vid-1", 0)

	data, err := svc.GetVideoDuration(context.Background(), "vid-1")

	assert.NoError(t, err)
	assert.Equal(t, 0.0, data.Duration)
	assert.Equal(t, "0.000s", data.DurationStr)
}

func TestResolveDownloadRequiresTrim(t *testing.T) {
	svc, dataDir := newTestService(t)
	seedVideo(t, dataDir, "vid-1", 60)

	_, _, err := svc.ResolveDownload("vid-1")

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotTrimmed))
}

func TestResolveDownloadReturnsOutput(t *testing.T) {
	svc, dataDir := newTestService(t)
	video := seedVideo(t, dataDir, "vid-1", 60)

	outputPath := filepath.Join(dataDir, "output", "vid-1_clip_trimmed.mp4")
	if err := os.WriteFile(outputPath, []byte("trimmed"), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}
	video.OutputPath = outputPath
	video.OutputName = "clip_trimmed.mp4"
	if err := storage.SaveVideo(video); err != nil {
		t.Fatalf("save video: %v", err)
	}

	path, name, err := svc.ResolveDownload("vid-1")

	assert.NoError(t, err)
	assert.Equal(t, outputPath, path)
	assert.Equal(t, "clip_trimmed.mp4", name)
}

func TestResolveStreamMimeType(t *testing.T) {
	svc, dataDir := newTestService(t)
	seedVideo(t, dataDir, "vid-1", 60)

	path, mime, err := svc.ResolveStream("vid-1")

	assert.NoError(t, err)
	assert.Contains(t, path, "vid-1_clip.mp4")
	assert.Equal(t, "video/mp4", mime)
}

func TestDeleteVideoRemovesEverything(t *testing.T) {
	svc, dataDir := newTestService(t)
	video := seedVideo(t, dataDir, "vid-1", 60)

	outputPath := filepath.Join(dataDir, "output", "vid-1_clip_trimmed.mp4")
	previewPath := filepath.Join(dataDir, "previews", "vid-1_preview.mp4")
	for _, p := range []string{outputPath, previewPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	video.OutputPath = outputPath
	if err := storage.SaveVideo(video); err != nil {
		t.Fatalf("save video: %v", err)
	}

	data, err := svc.DeleteVideo("vid-1")

	assert.NoError(t, err)
	assert.True(t, data.Success)
	for _, p := range []string{video.Filepath, outputPath, previewPath} {
		if _, statErr := os.Stat(p); !os.IsNotExist(statErr) {
			t.Fatalf("expected %s to be removed", p)
		}
	}

	_, err = storage.GetVideo("vid-1")
	assert.True(t, storage.IsNotFound(err))
}

func TestDeleteVideoUnknownIDSucceeds(t *testing.T) {
	svc, _ := newTestService(t)

	data, err := svc.DeleteVideo("never-existed")

	assert.NoError(t, err)
	assert.True(t, data.Success)
}

func TestPreviewStatus(t *testing.T) {
	svc, dataDir := newTestService(t)
	seedVideo(t, dataDir, "vid-1", 60)

	data, err := svc.PreviewStatus("vid-1")
	assert.NoError(t, err)
	assert.False(t, data.Exists)
	assert.Equal(t, "vid-1", data.VideoId)

	previewPath := filepath.Join(dataDir, "previews", "vid-1_preview.mp4")
	if err := os.WriteFile(previewPath, []byte("preview"), 0o644); err != nil {
		t.Fatalf("write preview: %v", err)
	}

	data, err = svc.PreviewStatus("vid-1")
	assert.NoError(t, err)
	assert.True(t, data.Exists)
}

func TestPreviewStatusUnknownVideo(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.PreviewStatus("missing")

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeVideoNotFound))
}
