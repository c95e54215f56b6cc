package main

import (
	"io"
	"os"
	"strings"
	"testing"

	"video-trimmer/internal/appdirs"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("create pipe: %v", err)
	}
	saved := os.Stdout
	os.Stdout = writer
	t.Cleanup(func() { os.Stdout = saved })

	fn()

	os.Stdout = saved
	if err := writer.Close(); err != nil {
		t.Fatalf("close pipe writer: %v", err)
	}
	captured, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read captured stdout: %v", err)
	}
	_ = reader.Close()

	return string(captured)
}

func withArgs(t *testing.T, args ...string) {
	t.Helper()

	savedArgs := os.Args
	savedSkip := skipBrowser
	os.Args = append([]string{"video-trimmer-desktop"}, args...)
	t.Cleanup(func() {
		os.Args = savedArgs
		skipBrowser = savedSkip
	})
}

func TestHandleCLIFlags(t *testing.T) {
	t.Run("no flags starts normally", func(t *testing.T) {
		withArgs(t)

		handled, code := handleCLIFlags()
		if handled || code != 0 {
			t.Fatalf("handleCLIFlags() = (%v, %d), want (false, 0)", handled, code)
		}
		if skipBrowser {
			t.Fatal("skipBrowser = true without -no-browser")
		}
	})

	t.Run("no-browser still starts", func(t *testing.T) {
		withArgs(t, "-no-browser")

		handled, code := handleCLIFlags()
		if handled || code != 0 {
			t.Fatalf("handleCLIFlags() = (%v, %d), want (false, 0)", handled, code)
		}
		if !skipBrowser {
			t.Fatal("skipBrowser = false after -no-browser")
		}
	})

	t.Run("version exits cleanly", func(t *testing.T) {
		withArgs(t, "-version")

		var handled bool
		var code int
		output := captureStdout(t, func() {
			handled, code = handleCLIFlags()
		})
		if !handled || code != 0 {
			t.Fatalf("handleCLIFlags() = (%v, %d), want (true, 0)", handled, code)
		}
		if !strings.Contains(output, "version:") {
			t.Fatalf("-version output missing version line: %s", output)
		}
	})

	t.Run("unknown flag exits with usage error", func(t *testing.T) {
		withArgs(t, "-definitely-not-a-flag")

		handled, code := handleCLIFlags()
		if !handled || code != 2 {
			t.Fatalf("handleCLIFlags() = (%v, %d), want (true, 2)", handled, code)
		}
	})
}

func TestPrintVersionIncludesBuildMetadata(t *testing.T) {
	output := captureStdout(t, printVersion)
	for _, want := range []string{"version:", "commit:", "date:"} {
		if !strings.Contains(output, want) {
			t.Fatalf("printVersion() output missing %q: %s", want, output)
		}
	}
}

func TestPrintDiagnoseShowsEffectiveLogDir(t *testing.T) {
	t.Setenv(appdirs.DataDirEnv, t.TempDir())

	output := captureStdout(t, printDiagnose)
	if !strings.Contains(output, "path.effective_log_dir:") {
		t.Fatalf("printDiagnose() output missing effective log dir: %s", output)
	}
	if !strings.Contains(output, "path.uploads:") {
		t.Fatalf("printDiagnose() output missing uploads path: %s", output)
	}
	if !strings.Contains(output, "Dependency status") {
		t.Fatalf("printDiagnose() output missing dependency report: %s", output)
	}
}
