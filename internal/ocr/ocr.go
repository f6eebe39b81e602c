package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BailaoHugo/gestao-facturas/constants"
)

// minEmbeddedText is the threshold below which a PDF text layer is
// considered empty (scanned PDF) and pages are rasterized for OCR.
const minEmbeddedText = 50

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "por+eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 150
	MaxPages      int    // 0 = no limit
}

type Result struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
}

// Extractor turns invoice files (PDF or image) into plain text by
// shelling out to poppler and tesseract.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "por+eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting text extraction", "path", path, "ext", ext)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.TXT:
		data, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("read text file: %w", err)
		}
		return Result{
			Text:       string(data),
			Pages:      1,
			SourceType: constants.TXT,
			Method:     "txt",
			Duration:   time.Since(start),
		}, nil
	default:
		e.logger.Error("unsupported extension", "extension", ext)
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}
}
