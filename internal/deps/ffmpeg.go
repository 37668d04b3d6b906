package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Tools holds resolved paths to the probing and transcoding binaries.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// Locate resolves ffmpeg and ffprobe. Explicit paths win. Otherwise the
// bundled locations (./ffmpeg, ./assets/ffmpeg, and the same directories next
// to the running executable) are searched for a matching pair before PATH.
// When nothing is found the bare command names are returned so the caller's
// availability check reports them as missing.
func Locate(ffmpeg, ffprobe string) Tools {
	tools := Tools{FFmpeg: strings.TrimSpace(ffmpeg), FFprobe: strings.TrimSpace(ffprobe)}
	if tools.FFmpeg != "" && tools.FFprobe == "" {
		if sibling, ok := siblingBinary(tools.FFmpeg, "ffprobe"); ok {
			tools.FFprobe = sibling
		}
	}
	if tools.FFmpeg != "" && tools.FFprobe != "" {
		return tools
	}

	for _, dir := range bundledDirs() {
		ffmpegPath := filepath.Join(dir, executableName("ffmpeg"))
		ffprobePath := filepath.Join(dir, executableName("ffprobe"))
		if isExecutableFile(ffmpegPath) && isExecutableFile(ffprobePath) {
			return fill(tools, ffmpegPath, ffprobePath)
		}
	}

	ffmpegPath, err := exec.LookPath(executableName("ffmpeg"))
	if err == nil {
		if sibling, ok := siblingBinary(ffmpegPath, "ffprobe"); ok {
			return fill(tools, ffmpegPath, sibling)
		}
	}
	return fill(tools, executableName("ffmpeg"), executableName("ffprobe"))
}

func fill(tools Tools, ffmpeg, ffprobe string) Tools {
	if tools.FFmpeg == "" {
		tools.FFmpeg = ffmpeg
	}
	if tools.FFprobe == "" {
		tools.FFprobe = ffprobe
	}
	return tools
}

func bundledDirs() []string {
	dirs := []string{"ffmpeg", filepath.Join("assets", "ffmpeg")}
	if exe, err := os.Executable(); err == nil {
		base := filepath.Dir(exe)
		dirs = append(dirs, base, filepath.Join(base, "ffmpeg"), filepath.Join(base, "assets", "ffmpeg"))
	}
	return dirs
}

func siblingBinary(path, name string) (string, bool) {
	if path == "" || !strings.ContainsAny(path, `/\`) {
		return "", false
	}
	candidate := filepath.Join(filepath.Dir(path), executableName(name))
	if isExecutableFile(candidate) {
		return candidate, true
	}
	return "", false
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
