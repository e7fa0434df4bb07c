package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/morezero/webview-bridge/pkg/bridge"
)

const fileLogPrefix = "commands:file"

// maxSearchFileSize caps the files findInFile will read.
const maxSearchFileSize = 4 << 20

// FindInFilePayload is the payload of findInFile. Pattern is a regular
// expression unless Literal is set.
type FindInFilePayload struct {
	File    string `json:"file"`
	Pattern string `json:"pattern"`
	Literal bool   `json:"literal,omitempty"`
}

// FindInFileResult locates the first match. Row and Col are zero-based and
// count characters; EndCol is the column just past the match on the same row.
// An absent pattern yields 0/0 with Found false.
type FindInFileResult struct {
	Row    int  `json:"row"`
	Col    int  `json:"col"`
	EndCol int  `json:"endCol"`
	Found  bool `json:"found"`
}

// findInFile returns the position of the first match of a pattern in a file
// that belongs to one of the workspace folders.
func (c *Commands) findInFile(_ context.Context, _ bridge.Channel, p FindInFilePayload) bridge.Result {
	if p.File == "" || p.Pattern == "" {
		return bridge.Fail(400, "findInFile requires a file and a pattern")
	}
	expr := p.Pattern
	if p.Literal {
		expr = regexp.QuoteMeta(expr)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return bridge.Fail(400, "Invalid pattern %q", p.Pattern)
	}

	folders, err := c.deps.Folders.Folders()
	if err != nil {
		slog.Error(fmt.Sprintf("%s - workspace folders unavailable: %v", fileLogPrefix, err))
		return bridge.Fail(500, "Workspace folders are unavailable")
	}
	if !folders.Contains(p.File) {
		return bridge.Fail(403, "%s is outside the workspace", p.File)
	}

	content, err := readSearchable(p.File)
	if errors.Is(err, fs.ErrNotExist) {
		return bridge.Fail(404, "File %s does not exist", p.File)
	}
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - read %s: %v", fileLogPrefix, p.File, err))
		return bridge.Fail(422, "Cannot search %s", p.File)
	}
	return bridge.OK(findFirst(content, re))
}

func readSearchable(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxSearchFileSize {
		return "", fmt.Errorf("%s is larger than %d bytes", path, maxSearchFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// findFirst scans line by line; matches spanning a line break are not found.
func findFirst(content string, re *regexp.Regexp) FindInFileResult {
	for row, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		loc := re.FindStringIndex(line)
		if loc == nil {
			continue
		}
		return FindInFileResult{
			Row:    row,
			Col:    utf8.RuneCountInString(line[:loc[0]]),
			EndCol: utf8.RuneCountInString(line[:loc[1]]),
			Found:  true,
		}
	}
	return FindInFileResult{}
}
