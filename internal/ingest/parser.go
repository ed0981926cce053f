// Package ingest turns a clex extraction log into a dataset and loads it
// into the store.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// maxLineSize bounds a single log line; device lists can be very long
const maxLineSize = 16 * 1024 * 1024

// pollEvery is how many lines are scanned between context checks
const pollEvery = 1024

var (
	latestDirRe  = regexp.MustCompile(`The latest directory is: (.*?)/models`)
	technologyRe = regexp.MustCompile(`Technology: (\w+)`)
	versionRe    = regexp.MustCompile(`/v([\d.]+)`)
	deviceListRe = regexp.MustCompile(`List of all devices: (.*)`)
	inlineRe     = regexp.MustCompile(`inline subckt (\w+)`)
	clexAssertRe = regexp.MustCompile(`(?i)clex\w*\s+assert`)
	assertExprRe = regexp.MustCompile(`(?i)assert\s+.*expr`)
)

// Parser reads extraction logs
type Parser struct {
	logger *slog.Logger
	onLine func(lines int)
}

// Option configures a Parser or EnsureStore
type Option func(*options)

type options struct {
	logger   *slog.Logger
	onLine   func(lines int)
	progress func(percent int, status string)
}

// WithLogger sets the logger used for parse and load diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLineProgress is called every pollEvery lines with the number of
// lines scanned so far, and once more at the end
func WithLineProgress(fn func(lines int)) Option {
	return func(o *options) {
		o.onLine = fn
	}
}

// WithProgress receives coarse progress from EnsureStore
func WithProgress(fn func(percent int, status string)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewParser creates a Parser
func NewParser(opts ...Option) *Parser {
	o := buildOptions(opts)
	return &Parser{logger: o.logger, onLine: o.onLine}
}

// ParseFile parses the log at path
func (p *Parser) ParseFile(ctx context.Context, path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IngestError{Op: "read log", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	ds, err := p.Parse(ctx, f)
	if err != nil {
		return nil, &IngestError{Op: "parse log", Path: path, Err: err}
	}
	return ds, nil
}

// Parse reads a log stream line by line. A definition block starts at an
// "inline subckt <device>" line and ends at a blank line, at the next
// block, or at the end of input. Blocks without both a folder path and a
// file name, or without an assert expression, are ignored.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*models.Dataset, error) {
	st := &parseState{techIndex: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lines := 0
	for scanner.Scan() {
		lines++
		if lines%pollEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if p.onLine != nil {
				p.onLine(lines)
			}
		}
		st.line(strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan log: %w", err)
	}
	st.closeBlock()

	if p.onLine != nil {
		p.onLine(lines)
	}

	ds := st.dataset()
	p.logger.Info("parsed log",
		"lines", lines,
		"technologies", len(ds.Technologies),
		"devices", ds.DeviceCount(),
		"definitions", len(ds.Definitions))
	return ds, nil
}

type parseState struct {
	techs     []models.TechnologyRecord
	techIndex map[string]int
	defs      []models.DefinitionRecord

	currentPath string
	currentTech string

	inBlock     bool
	blockDevice string
	blockTech   string
	blockFolder string
	blockFile   string
	block       []string
}

func (s *parseState) line(line string) {
	if m := latestDirRe.FindStringSubmatch(line); m != nil {
		s.currentPath = m[1]
	}

	if m := technologyRe.FindStringSubmatch(line); m != nil {
		s.startTechnology(m[1])
	}

	if m := deviceListRe.FindStringSubmatch(line); m != nil && s.currentTech != "" {
		for _, name := range strings.Split(m[1], ", ") {
			s.addDevice(s.currentTech, strings.TrimSpace(name))
		}
	}

	if m := inlineRe.FindStringSubmatch(line); m != nil {
		s.closeBlock()
		s.inBlock = true
		s.blockDevice = m[1]
		s.blockTech = s.currentTech
		s.blockFolder = ""
		s.blockFile = ""
		s.block = []string{line}
		return
	}

	if !s.inBlock {
		return
	}

	switch {
	case strings.HasPrefix(line, "Folder Path:"):
		s.blockFolder = strings.TrimSpace(strings.TrimPrefix(line, "Folder Path:"))
	case strings.HasPrefix(line, "File Name:"):
		s.blockFile = strings.TrimSpace(strings.TrimPrefix(line, "File Name:"))
	}
	s.block = append(s.block, line)

	if strings.TrimSpace(line) == "" {
		s.closeBlock()
	}
}

// startTechnology makes name the current technology. A repeated name
// resets that technology's device list and takes the latest path.
func (s *parseState) startTechnology(name string) {
	s.currentTech = name

	version := ""
	if s.currentPath != "" {
		if m := versionRe.FindStringSubmatch(s.currentPath); m != nil {
			version = m[1]
		}
	}

	rec := models.TechnologyRecord{Name: name, Version: version, Path: s.currentPath, Devices: []string{}}
	if i, ok := s.techIndex[name]; ok {
		s.techs[i] = rec
		return
	}
	s.techIndex[name] = len(s.techs)
	s.techs = append(s.techs, rec)
}

func (s *parseState) addDevice(tech, name string) {
	i, ok := s.techIndex[tech]
	if !ok || name == "" {
		return
	}
	for _, d := range s.techs[i].Devices {
		if d == name {
			return
		}
	}
	s.techs[i].Devices = append(s.techs[i].Devices, name)
}

func (s *parseState) closeBlock() {
	if !s.inBlock {
		return
	}
	s.inBlock = false
	block := s.block
	s.block = nil

	if s.blockDevice == "" || s.blockTech == "" || s.blockFolder == "" || s.blockFile == "" {
		return
	}

	text := cleanBlock(block)
	if !clexAssertRe.MatchString(text) && !assertExprRe.MatchString(text) {
		return
	}

	s.defs = append(s.defs, models.DefinitionRecord{
		TechnologyName: s.blockTech,
		DeviceName:     s.blockDevice,
		FolderPath:     s.blockFolder,
		FileName:       s.blockFile,
		Text:           text,
	})
	s.addDevice(s.blockTech, s.blockDevice)
}

// cleanBlock keeps the subckt line, the location lines and the assert
// lines of a block, stopping at the start of the next log section.
func cleanBlock(block []string) string {
	kept := make([]string, 0, len(block))
	inside := false
	for _, line := range block {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "inline subckt"):
			inside = true
			kept = append(kept, line)
		case strings.HasPrefix(trimmed, "Folder Path:"), strings.HasPrefix(trimmed, "File Name:"):
			kept = append(kept, line)
		case inside && (strings.Contains(line, "assert") || strings.Contains(strings.ToLower(line), "clex")):
			kept = append(kept, line)
		case strings.HasPrefix(trimmed, "Searching in"), strings.HasPrefix(trimmed, "Technology:"):
			return strings.Join(kept, "\n")
		}
	}
	return strings.Join(kept, "\n")
}

func (s *parseState) dataset() *models.Dataset {
	return &models.Dataset{Technologies: s.techs, Definitions: s.defs}
}
