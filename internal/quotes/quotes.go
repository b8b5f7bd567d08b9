// Package quotes serves the short lines shown while a sync is running.
package quotes

import (
	_ "embed"
	"math/rand/v2"
	"strings"
)

//go:embed lines.txt
var embedded string

// Picker hands out random waiting lines.
type Picker struct {
	lines []string
	intn  func(int) int
}

// Default returns a Picker over the built-in lines.
func Default() *Picker {
	return New(Parse(embedded))
}

func New(lines []string) *Picker {
	return &Picker{lines: lines, intn: rand.IntN}
}

// Parse splits newline-separated text into lines, dropping blank ones.
func Parse(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Random returns one line, or "" when there are none.
func (p *Picker) Random() string {
	if len(p.lines) == 0 {
		return ""
	}
	return p.lines[p.intn(len(p.lines))]
}

func (p *Picker) Len() int {
	return len(p.lines)
}
