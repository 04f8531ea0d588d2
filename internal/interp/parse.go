package interp

import (
	"strings"

	"github.com/zmachine-ai/zmachine-web/pkg/types"
)

// noisePrefixes are interpreter chatter, not game text: startup banners and
// the save/restore/quit dialogue driven by the stdin script.
var noisePrefixes = []string{
	"Using ",
	"Loading ",
	"Please enter a file",
	"Ok.",
	"Are you sure",
	"Compression mode",
}

func isNoise(line string) bool {
	for _, p := range noisePrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// promptSegments splits a transcript at the interpreter's "> " prompts.
// Each segment holds the cleaned, non-empty game lines printed between two
// consecutive command reads.
func promptSegments(raw string) [][]string {
	var segs [][]string
	cur := []string{}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, " \r")

		marker := false
		for strings.HasPrefix(line, ">") {
			marker = true
			line = strings.TrimLeft(line[1:], " ")
		}
		if marker {
			segs = append(segs, cur)
			cur = []string{}
		}

		if line != "" && !isNoise(line) {
			cur = append(cur, line)
		}
	}

	return append(segs, cur)
}

// parseTranscript extracts the response to the one command of this
// invocation. The stdin script fixes the prompt layout: for a restored
// session the reads are restore / command / save / quit, so the command's
// response is the third segment; for a fresh session the banner and intro
// precede the first prompt and the bootstrap response follows it.
func parseTranscript(raw string, restored bool) *types.Output {
	segs := promptSegments(raw)

	var pretty []string
	if restored {
		if len(segs) > 2 {
			pretty = segs[2]
		} else if len(segs) > 0 {
			pretty = segs[len(segs)-1]
		}
	} else {
		if len(segs) > 0 {
			pretty = append(pretty, segs[0]...)
		}
		if len(segs) > 1 {
			pretty = append(pretty, segs[1]...)
		}
	}

	return &types.Output{
		Pretty: pretty,
		Full:   strings.TrimSpace(raw),
	}
}
