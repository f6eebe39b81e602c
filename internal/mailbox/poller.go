// Package mailbox polls an IMAP inbox for expense emails. The subject
// carries the cost center ("25.113 - CCG"); attachments are saved to
// the uploads directory and queued for extraction.
package mailbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"github.com/BailaoHugo/gestao-facturas/constants"
	"github.com/BailaoHugo/gestao-facturas/internal/async"
	"github.com/BailaoHugo/gestao-facturas/internal/ledger"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Mailbox  string // default INBOX
}

type Poller struct {
	cfg        Config
	logger     *slog.Logger
	queue      async.Queue
	uploadsDir string
	valid      map[string]struct{} // accepted cost centers; empty = any well-formed
}

func NewPoller(cfg Config, queue async.Queue, uploadsDir string, valid map[string]struct{}, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	return &Poller{cfg: cfg, logger: logger, queue: queue, uploadsDir: uploadsDir, valid: valid}
}

// Poll processes all unseen messages once and returns how many
// attachments were queued. Connection errors are returned; per-message
// failures are logged and skipped so one bad email cannot wedge the
// inbox.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port), nil)
	if err != nil {
		return 0, fmt.Errorf("imap dial: %w", err)
	}
	defer c.Logout()

	if err := c.Login(p.cfg.Username, p.cfg.Password); err != nil {
		return 0, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select(p.cfg.Mailbox, false); err != nil {
		return 0, fmt.Errorf("select %s: %w", p.cfg.Mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := c.Search(criteria)
	if err != nil {
		return 0, fmt.Errorf("imap search: %w", err)
	}
	if len(ids) == 0 {
		p.logger.Debug("mailbox empty, nothing to do")
		return 0, nil
	}
	p.logger.Info("unseen messages found", "count", len(ids))

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, 8)
	fetchDone := make(chan error, 1)
	go func() {
		fetchDone <- c.Fetch(seqset, []imap.FetchItem{section.FetchItem(), imap.FetchEnvelope}, messages)
	}()

	queued := 0
	for msg := range messages {
		select {
		case <-ctx.Done():
			return queued, ctx.Err()
		default:
		}
		n, err := p.processMessage(ctx, msg, section)
		if err != nil {
			p.logger.Warn("message skipped", "seq", msg.SeqNum, "err", err)
			continue
		}
		queued += n
	}
	if err := <-fetchDone; err != nil {
		return queued, fmt.Errorf("imap fetch: %w", err)
	}

	// Everything fetched is marked seen, including ignored messages, so
	// the next poll does not reprocess them.
	markSeen := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.Store(seqset, markSeen, []interface{}{imap.SeenFlag}, nil); err != nil {
		p.logger.Warn("failed to mark messages seen", "err", err)
	}
	return queued, nil
}

func (p *Poller) processMessage(ctx context.Context, msg *imap.Message, section *imap.BodySectionName) (int, error) {
	body := msg.GetBody(section)
	if body == nil {
		return 0, fmt.Errorf("no body section")
	}
	mr, err := mail.CreateReader(body)
	if err != nil {
		return 0, fmt.Errorf("parse message: %w", err)
	}

	subject, _ := mr.Header.Subject()
	centro := ledger.ParseCostCenter(subject, p.valid)
	if centro == "" {
		p.logger.Info("ignored: subject without a valid cost center", "subject", truncate(subject, 60))
		return 0, nil
	}

	queued := 0
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return queued, fmt.Errorf("read part: %w", err)
		}
		h, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, err := h.Filename()
		if err != nil || filename == "" {
			continue
		}
		if _, ok := constants.AllowedExtensions[constants.NormalizeExt(filepath.Ext(filename))]; !ok {
			p.logger.Debug("attachment type ignored", "filename", filename)
			continue
		}

		saved, err := p.saveAttachment(filename, part.Body)
		if err != nil {
			p.logger.Error("failed to save attachment", "filename", filename, "err", err)
			continue
		}
		fname := filepath.Base(saved)
		origin := fmt.Sprintf("email:%s|centro:%s", fname, centro)
		if err := p.queue.Enqueue(ctx, async.NewJob(saved, origin, centro)); err != nil {
			return queued, err
		}
		p.logger.Info("attachment queued", "filename", fname, "centro", centro)
		queued++
	}
	return queued, nil
}

func (p *Poller) saveAttachment(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(p.uploadsDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(p.uploadsDir, SanitizeFilename(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return path, nil
}

// SanitizeFilename keeps the base name and replaces path separators and
// control characters so an attachment name cannot escape uploadsDir.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20, r == '/', r == '\\', r == ':', r == '*', r == '?', r == '"', r == '<', r == '>', r == '|':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" || out == "." || out == ".." {
		return "anexo"
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
