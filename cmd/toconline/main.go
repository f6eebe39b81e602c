// toconline drives the accounting-platform integration from the command
// line: print the authorization URL, exchange the one-time code, refresh
// the stored token, or export a resource collection to XLSX.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/BailaoHugo/gestao-facturas/internal/common"
	"github.com/BailaoHugo/gestao-facturas/internal/toconline"
)

func main() {
	_ = godotenv.Load()

	var (
		authorize = flag.Bool("authorize", false, "print the browser authorization URL and exit")
		code      = flag.String("code", "", "exchange this authorization code for a token")
		refresh   = flag.Bool("refresh", false, "refresh the stored token")
		exportRes = flag.String("export", "", "API resource path to export, e.g. /api/cost_centers")
		sheet     = flag.String("sheet", "export", "sheet name for the XLSX export")
		out       = flag.String("out", "", "output .xlsx path (required with -export)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig().TOC
	client, err := toconline.NewClient(toconline.Config{
		OAuthBase:    cfg.OAuthBase,
		APIBase:      cfg.APIBase,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		Scope:        cfg.Scope,
		TokenPath:    cfg.TokenPath,
	}, logger)
	if err != nil {
		fatal("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch {
	case *authorize:
		fmt.Println(client.AuthorizationURL())

	case *code != "":
		tok, err := client.ExchangeCode(ctx, *code)
		if err != nil {
			fatal("exchange code: %v", err)
		}
		fmt.Printf("token guardado em %s (expires_in=%d)\n", cfg.TokenPath, tok.ExpiresIn)

	case *refresh:
		tok, err := client.EnsureValidToken(ctx)
		if err != nil {
			fatal("refresh: %v", err)
		}
		fmt.Printf("token válido (expires_in=%d)\n", tok.ExpiresIn)

	case *exportRes != "":
		if *out == "" {
			fatal("-export requires -out")
		}
		tok, err := client.EnsureValidToken(ctx)
		if err != nil {
			fatal("token: %v", err)
		}
		resources, err := client.FetchAll(ctx, tok, *exportRes)
		if err != nil {
			fatal("fetch %s: %v", *exportRes, err)
		}
		if err := toconline.WriteResourcesXLSX(resources, *sheet, *out); err != nil {
			fatal("write xlsx: %v", err)
		}
		fmt.Printf("%d registos -> %s\n", len(resources), *out)

	default:
		fmt.Fprintln(os.Stderr, "usage: toconline -authorize | -code <code> | -refresh | -export <path> -out <ficheiro.xlsx>")
		flag.PrintDefaults()
		os.Exit(2)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "toconline: "+format+"\n", args...)
	os.Exit(1)
}
