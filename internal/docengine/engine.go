// Package docengine is a translation engine for plain-text and Markdown
// documents. Each Attempt reads the source, translates its text blocks through
// a translator.TranslationService and writes the target file in the requested
// submit mode.
package docengine

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/valpere/booktran/internal/chunker"
	"github.com/valpere/booktran/internal/engine"
	"github.com/valpere/booktran/internal/lang"
	"github.com/valpere/booktran/internal/markdown"
	"github.com/valpere/booktran/internal/placeholder"
	"github.com/valpere/booktran/internal/postprocess"
	"github.com/valpere/booktran/internal/translator"
)

// ErrUnsupportedFormat is returned for source files the engine cannot parse.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Memory is a translation memory consulted before calling the service.
type Memory interface {
	Lookup(ctx context.Context, sourceText, targetLang, variant string) (string, bool, error)
	Save(ctx context.Context, sourceText, targetLang, variant, translated, serviceUsed string) error
}

// Checker verifies that a translation is in the target language.
type Checker interface {
	Check(translated string, target lang.Language) error
}

// SourceDetector guesses the language of a source document.
type SourceDetector interface {
	SourceLanguage(path string) string
}

type Options struct {
	Service       translator.TranslationService
	ServiceConfig translator.ServiceConfig
	Memory        Memory
	Checker       Checker
	Detector      SourceDetector
	Logger        *slog.Logger
}

type Engine struct {
	svc      translator.TranslationService
	cfg      translator.ServiceConfig
	memory   Memory
	checker  Checker
	detector SourceDetector
	logger   *slog.Logger
}

func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		svc:      opts.Service,
		cfg:      opts.ServiceConfig,
		memory:   opts.Memory,
		checker:  opts.Checker,
		detector: opts.Detector,
		logger:   logger,
	}
}

// Supported reports whether path has an extension the engine handles.
func Supported(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt") || markdown.IsMarkdown(path)
}

func (e *Engine) Attempt(ctx context.Context, req engine.Request, onProgress func(float64)) engine.Outcome {
	if onProgress == nil {
		onProgress = func(float64) {}
	}
	if !Supported(req.SourcePath) {
		return engine.Fatal(fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(req.SourcePath)))
	}
	if e.svc == nil {
		return engine.Fatal(errors.New("no translation service configured"))
	}

	data, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return engine.Fatal(fmt.Errorf("read source: %w", err))
	}
	doc := parse(string(data))
	if err := doc.check(req.Mode); err != nil {
		return engine.Classify(err)
	}

	sourceLang := "auto"
	if e.detector != nil {
		sourceLang = e.detector.SourceLanguage(req.SourcePath)
	}

	translated, err := e.translateBlocks(ctx, req, sourceLang, doc, onProgress)
	if err != nil {
		return engine.Classify(err)
	}

	if err := writeAtomic(req.TargetPath, doc.render(req.Mode, translated)); err != nil {
		return engine.Fatal(fmt.Errorf("write target: %w", err))
	}
	onProgress(1)
	return engine.Success()
}

// segment is a group of text blocks translated in one request.
type segment struct {
	blocks []int // indices into document.blocks
	texts  []string
}

func (e *Engine) translateBlocks(ctx context.Context, req engine.Request, sourceLang string, doc document, onProgress func(float64)) (map[int]string, error) {
	texts, idx := doc.texts()
	groups := chunker.Group(texts, req.Settings.MaxGroupTokens)
	segments := make([]segment, len(groups))
	for i, g := range groups {
		for _, j := range g {
			segments[i].blocks = append(segments[i].blocks, idx[j])
			segments[i].texts = append(segments[i].texts, texts[j])
		}
	}

	var (
		mu     sync.Mutex
		result = make(map[int]string, len(texts))
		done   atomic.Int64
	)
	onProgress(0)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(req.Settings.Concurrency, 1))
	for _, seg := range segments {
		g.Go(func() error {
			out, err := e.translateSegment(gctx, req, sourceLang, seg)
			if err != nil {
				return err
			}
			mu.Lock()
			for i, b := range seg.blocks {
				result[b] = out[i]
			}
			mu.Unlock()
			onProgress(float64(done.Add(1)) / float64(len(segments)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// translateSegment returns one translation per block of seg. A group whose
// answer does not split back into the same number of blocks is retried block
// by block.
func (e *Engine) translateSegment(ctx context.Context, req engine.Request, sourceLang string, seg segment) ([]string, error) {
	if len(seg.texts) == 1 {
		out, err := e.translateBlock(ctx, req, sourceLang, seg.texts[0])
		if err != nil {
			return nil, err
		}
		return []string{out}, nil
	}

	joined := strings.Join(seg.texts, "\n\n")
	out, err := e.translateText(ctx, req, sourceLang, joined)
	if err != nil {
		return nil, err
	}
	if parts := parse(out).blocks; len(parts) == len(seg.texts) {
		res := make([]string, len(parts))
		for i, p := range parts {
			res[i] = p.text
		}
		return res, nil
	}

	e.logger.Debug("group split mismatch, translating blocks one by one", "blocks", len(seg.texts))
	res := make([]string, len(seg.texts))
	for i, t := range seg.texts {
		if res[i], err = e.translateBlock(ctx, req, sourceLang, t); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// translateBlock translates one block, cutting it into pieces when it alone
// exceeds the token budget.
func (e *Engine) translateBlock(ctx context.Context, req engine.Request, sourceLang, text string) (string, error) {
	pieces := chunker.Split(text, req.Settings.MaxGroupTokens)
	out := make([]string, len(pieces))
	for i, p := range pieces {
		tr, err := e.translateText(ctx, req, sourceLang, p)
		if err != nil {
			return "", err
		}
		out[i] = tr
	}
	return strings.Join(out, " "), nil
}

// translateText resolves text from memory or the service.
func (e *Engine) translateText(ctx context.Context, req engine.Request, sourceLang, text string) (string, error) {
	target := req.TargetLanguage.String()
	if e.memory != nil {
		cached, ok, err := e.memory.Lookup(ctx, text, target, e.variant(req.Instructions))
		if err != nil {
			e.logger.Warn("translation memory lookup failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	p := placeholder.Protect(text)
	instructions := req.Instructions
	if p.Len() > 0 {
		instructions = strings.TrimSpace(instructions + "\n" + placeholder.InstructionHint())
	}
	tr := translator.TranslateRequest{
		Text:         p.Text,
		SourceLang:   sourceLang,
		TargetLang:   target,
		Instructions: instructions,
		Temperature:  req.Settings.Temperature,
		TopP:         req.Settings.TopP,
	}

	out, err := e.call(ctx, req, tr)
	if err != nil {
		return "", err
	}
	if missing := p.Missing(out); len(missing) > 0 {
		e.logger.Warn("translation dropped protected markup", "markers", missing)
	}
	out = p.Restore(out)

	if e.memory != nil {
		if err := e.memory.Save(ctx, text, target, e.variant(req.Instructions), out, e.svc.Name()); err != nil {
			e.logger.Warn("translation memory save failed", "error", err)
		}
	}
	return out, nil
}

// variant fingerprints what shapes a translation besides the source text, so
// memory entries made with another service, model or prompt are not reused.
func (e *Engine) variant(instructions string) string {
	model := e.cfg.Model
	if m, ok := e.svc.(interface{ Model() string }); ok && model == "" {
		model = m.Model()
	}
	sum := md5.Sum([]byte(e.svc.Name() + "\x00" + model + "\x00" + instructions))
	return hex.EncodeToString(sum[:])
}

// call sends tr to the service, retrying transient failures and answers in
// the wrong language up to the configured retry count.
func (e *Engine) call(ctx context.Context, req engine.Request, tr translator.TranslateRequest) (string, error) {
	s := req.Settings
	var lastErr error
	for try := 0; try <= s.RetryCount; try++ {
		if try > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.RetryInterval):
			}
		}

		out, err := e.callOnce(ctx, s.Timeout, tr)
		if err == nil && e.checker != nil {
			err = e.checker.Check(out, req.TargetLanguage)
		}
		if err == nil {
			return out, nil
		}
		lastErr = err
		if translator.Permanent(err) || ctx.Err() != nil {
			break
		}
		e.logger.Debug("translation request failed", "service", e.svc.Name(), "try", try+1, "error", err)
	}
	return "", fmt.Errorf("%s: %w", e.svc.Name(), lastErr)
}

func (e *Engine) callOnce(ctx context.Context, timeout time.Duration, tr translator.TranslateRequest) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	res, err := e.svc.Translate(ctx, e.cfg, tr)
	if err != nil {
		return "", err
	}
	out := postprocess.Clean(res.TranslatedText)
	if out == "" {
		return "", errors.New("empty translation")
	}
	return out, nil
}

// writeAtomic writes content next to path and renames it into place.
func writeAtomic(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".booktran-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
