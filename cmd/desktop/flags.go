package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"video-trimmer/internal/appdirs"
	"video-trimmer/internal/deps"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// skipBrowser suppresses the automatic browser launch. Set by -no-browser.
var skipBrowser bool

func handleCLIFlags() (bool, int) {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	showVersion := flags.Bool("version", false, "print version information")
	showDiagnose := flags.Bool("diagnose", false, "print runtime diagnostics")
	installDeps := flags.Bool("install-deps", false, "download missing dependencies, then exit")
	noBrowser := flags.Bool("no-browser", false, "do not open the browser on startup")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return true, 2
	}

	skipBrowser = *noBrowser

	if *installDeps {
		return true, runInstallDeps()
	}

	if !*showVersion && !*showDiagnose {
		return false, 0
	}

	if *showVersion {
		printVersion()
	}

	if *showDiagnose {
		if *showVersion {
			fmt.Println()
		}
		printDiagnose()
	}

	return true, 0
}

func printVersion() {
	fmt.Printf("version: %s\ncommit: %s\ndate: %s\n", version, commit, date)
}

func printDiagnose() {
	fmt.Printf("runtime: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("version: %s\n", version)
	fmt.Printf("commit: %s\n", commit)
	fmt.Printf("date: %s\n", date)

	if wd, err := os.Getwd(); err == nil {
		fmt.Printf("working_dir: %s\n", wd)
	} else {
		fmt.Printf("working_dir: <error: %v>\n", err)
	}

	if exePath, err := os.Executable(); err == nil {
		fmt.Printf("executable: %s\n", exePath)
	} else {
		fmt.Printf("executable: <error: %v>\n", err)
	}

	if paths, err := appdirs.Resolve(); err == nil {
		printPath("config", paths.ConfigFile)
		printPath("effective_log_dir", paths.LogDir)
		printPath("data", paths.DataDir)
		printPath("uploads", appdirs.UploadDirFor(paths))
		printPath("output", appdirs.OutputDirFor(paths))
		printPath("previews", appdirs.PreviewDirFor(paths))
	} else {
		fmt.Printf("paths: <error: %v>\n", err)
	}

	deps.EnsureManagedDependencyPaths()
	fmt.Println()
	fmt.Println(deps.FormatDependencyReport(deps.ResolveDependencyInventory()))
}

func printPath(name, value string) {
	_, err := os.Stat(value)
	if err == nil {
		fmt.Printf("path.%s: %s (exists)\n", name, value)
		return
	}
	if os.IsNotExist(err) {
		fmt.Printf("path.%s: %s (missing)\n", name, value)
		return
	}
	fmt.Printf("path.%s: %s (error=%v)\n", name, value, err)
}

// runInstallDeps downloads any missing managed binaries and reports progress
// on stdout. Returns the process exit code.
func runInstallDeps() int {
	deps.EnsureManagedDependencyPaths()

	states := deps.ResolveDependencyInventory()
	failed := false
	installedAny := false

	for _, state := range states {
		if state.Status == deps.DependencyStatusOK {
			fmt.Printf("%s: already available (%s)\n", state.Name, state.ResolvedPath)
			continue
		}
		if !deps.CanAutoInstallDependency(state.ID) {
			fmt.Printf("%s: missing, automatic install not supported on %s\n", state.Name, runtime.GOOS)
			if state.Hint != "" {
				fmt.Printf("  hint: %s\n", state.Hint)
			}
			failed = true
			continue
		}

		fmt.Printf("%s: installing…\n", state.Name)
		err := deps.InstallDependency(state.ID, func(progress deps.InstallProgress) {
			if progress.Stage == "downloading" && progress.Total > 0 {
				fmt.Printf("\r  %s %3.0f%% (%d/%d bytes)", progress.Stage, progress.Percent*100, progress.Downloaded, progress.Total)
				return
			}
			fmt.Printf("\r  %-60s", progress.Stage)
		})
		fmt.Println()
		if err != nil {
			fmt.Printf("%s: install failed: %v\n", state.Name, err)
			failed = true
			continue
		}
		installedAny = true
	}

	if installedAny {
		fmt.Println()
		fmt.Println(strings.TrimSpace(deps.FormatDependencyReport(deps.ResolveDependencyInventory())))
	}

	if failed {
		return 1
	}
	return 0
}
