// extract runs the engine once over a single file (PDF, image or plain
// text) and writes fatura JSON plus XLSX next to it, without touching
// the database. Useful for testing layouts and vocabulary overrides.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/BailaoHugo/gestao-facturas/internal/common"
	"github.com/BailaoHugo/gestao-facturas/internal/export"
	"github.com/BailaoHugo/gestao-facturas/internal/extract"
	"github.com/BailaoHugo/gestao-facturas/internal/ocr"
	"github.com/BailaoHugo/gestao-facturas/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	var (
		outDir    = flag.String("out", ".", "directory for the .json/.xlsx output")
		vocabPath = flag.String("vocab", os.Getenv("EXTRACT_VOCAB_PATH"), "YAML vocabulary override")
		origin    = flag.String("origem", "cli", "origin tag recorded in the output")
		stdin     = flag.Bool("stdin", false, "read already-extracted text from stdin instead of a file")
		jsonOnly  = flag.Bool("json-only", false, "skip the XLSX export")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	vocab := extract.DefaultVocabulary()
	if *vocabPath != "" {
		var err error
		vocab, err = extract.LoadVocabulary(*vocabPath)
		if err != nil {
			fatal("load vocabulary: %v", err)
		}
	}
	engine := extract.NewExtractor(vocab)

	var text, base string
	if *stdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal("read stdin: %v", err)
		}
		text, base = string(data), "fatura"
	} else {
		if flag.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "usage: extract [flags] <ficheiro>")
			flag.PrintDefaults()
			os.Exit(2)
		}
		path := flag.Arg(0)
		base = pipeline.BaseName(path)

		cfg := common.LoadConfig().OCR
		textExtractor := ocr.NewExtractor(ocr.Config{
			Pdftotext:     cfg.Pdftotext,
			Pdftoppm:      cfg.Pdftoppm,
			Tesseract:     cfg.Tesseract,
			TesseractLang: cfg.TesseractLang,
			DPI:           cfg.DPI,
			MaxPages:      cfg.MaxPages,
		}, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		res, err := textExtractor.Extract(ctx, path)
		if err != nil {
			fatal("text extraction: %v", err)
		}
		text = res.Text
	}

	inv := engine.Extract(ocr.Normalize(text), *origin)

	jsonPath := filepath.Join(*outDir, base+".json")
	if err := export.WriteInvoiceJSON(inv, jsonPath); err != nil {
		fatal("write json: %v", err)
	}
	if !*jsonOnly {
		if err := export.WriteInvoiceXLSX(inv, filepath.Join(*outDir, base+".xlsx")); err != nil {
			fatal("write xlsx: %v", err)
		}
	}

	fmt.Printf("fornecedor=%q documento=%q linhas=%d -> %s\n",
		inv.Supplier.Name, inv.Document.Number, len(inv.Lines), jsonPath)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "extract: "+format+"\n", args...)
	os.Exit(1)
}
