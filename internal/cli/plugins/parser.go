package plugins

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/ccollicutt/kiropulse/pkg/discovery"
	"github.com/ccollicutt/kiropulse/pkg/parser"
)

// parserPrefix is the command prefix of external parser plugins.
const parserPrefix = "parser-"

// canParseTimeout bounds a single can-parse probe.
const canParseTimeout = 5 * time.Second

// ParserBinary returns the binary name of the external parser called name.
func ParserBinary(name string) string {
	return binaryName + "-" + parserPrefix + name
}

// FindParser locates the external parser called name, searching the same
// places as FindPlugin.
func FindParser(name string) (string, error) {
	return FindPlugin(parserPrefix + name)
}

// ParserHandler runs an external parser binary as a parser.Handler.
//
// The binary is invoked as:
//
//	kiropulse-parser-<name> can-parse <file>   exit status 0 claims the file
//	kiropulse-parser-<name> parse <file>       one JSON record per line on stdout
//
// Records written by the plugin are decoded exactly like JSON lines logs.
type ParserHandler struct {
	name string
	path string
	opts []parser.Option
}

// NewParserHandler wraps the binary at path. opts are applied to the JSON
// decoding of the plugin's output.
func NewParserHandler(name, path string, opts ...parser.Option) *ParserHandler {
	return &ParserHandler{name: name, path: path, opts: opts}
}

// Name implements parser.Handler.
func (h *ParserHandler) Name() string {
	return "plugin:" + h.name
}

// CanHandle asks the plugin whether it claims the file. A plugin that fails
// to answer in time does not claim it.
func (h *ParserHandler) CanHandle(desc discovery.LogFileDescriptor) bool {
	ctx, cancel := context.WithTimeout(context.Background(), canParseTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.path, "can-parse", desc.Path) // #nosec G204 -- plugin path comes from FindParser
	return cmd.Run() == nil
}

// Open starts the plugin and streams its output. A plugin that exits with a
// failure status fails the whole file.
func (h *ParserHandler) Open(ctx context.Context, desc discovery.LogFileDescriptor) (parser.RecordSource, error) {
	cmd := exec.CommandContext(ctx, h.path, "parse", desc.Path) // #nosec G204 -- plugin path comes from FindParser

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("starting parser %s: %w", h.name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting parser %s: %w", h.name, err)
	}

	out := &processOutput{ReadCloser: stdout, cmd: cmd, stderr: &stderr, name: h.name}
	return parser.NewJSONStream(desc.Path, out, h.opts...), nil
}

// processOutput is the stdout of a running plugin. Reaching the end of the
// output reaps the process and reports its exit status in place of io.EOF.
type processOutput struct {
	io.ReadCloser
	cmd    *exec.Cmd
	stderr *bytes.Buffer
	name   string

	waited bool
	err    error
}

func (p *processOutput) Read(b []byte) (int, error) {
	n, err := p.ReadCloser.Read(b)
	if errors.Is(err, io.EOF) {
		if werr := p.wait(); werr != nil {
			return n, werr
		}
	}
	return n, err
}

func (p *processOutput) Close() error {
	_ = p.ReadCloser.Close()
	return p.wait()
}

func (p *processOutput) wait() error {
	if p.waited {
		return p.err
	}
	p.waited = true

	if err := p.cmd.Wait(); err != nil {
		msg := strings.TrimSpace(p.stderr.String())
		if msg != "" {
			p.err = fmt.Errorf("parser %s: %w: %s", p.name, err, msg)
		} else {
			p.err = fmt.Errorf("parser %s: %w", p.name, err)
		}
	}
	return p.err
}
