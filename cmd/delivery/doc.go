// Package main hosts the delivery CLI.
//
// `delivery run` extracts an overlaid frame sequence from a video and resumes
// an interrupted sequence in place. `probe`, `check` and `history` are
// read-only helpers around the same internal packages, and `config init`
// scaffolds a configuration file.
package main
