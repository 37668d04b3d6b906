// Package testsupport provides configuration builders and fake ffmpeg/ffprobe
// executables for tests.
package testsupport
