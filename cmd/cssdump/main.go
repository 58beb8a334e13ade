// Command cssdump loads stylesheets or the stylesheets of HTML pages and
// prints the parsed rules as a tree.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/xlab/treeprint"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chrisuehlinger/cssparse/css"
	"github.com/chrisuehlinger/cssparse/html"
	"github.com/chrisuehlinger/cssparse/network"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "cssdump: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("cssdump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var flags flagValues
	flags.register(fs)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: cssdump [options] <path|url|->...\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  cssdump site.css\n")
		fmt.Fprintf(stderr, "  cssdump -inline https://example.com/\n")
		fmt.Fprintf(stderr, "  cat site.css | cssdump -base-url=https://example.com/css/ -\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return errors.New("no input given")
	}

	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	flags.apply(fs, &cfg)

	log, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		return err
	}
	defer log.Sync()

	client, err := network.NewClient(
		network.WithTimeout(cfg.Timeout),
		network.WithUserAgent(cfg.UserAgent),
	)
	if err != nil {
		return err
	}

	d := &dumper{
		cfg:    cfg,
		client: client,
		cache:  network.NewCache(0),
		log:    log,
		inline: flags.inline,
	}

	tree := treeprint.New()
	for _, ref := range fs.Args() {
		if err := d.dump(ctx, tree, ref, stdin); err != nil {
			return err
		}
	}
	_, err = io.WriteString(stdout, tree.String())
	return err
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core).Named("cssdump"), nil
}

type dumper struct {
	cfg    config
	client *network.Client
	cache  *network.Cache
	log    *zap.Logger
	inline bool
}

func (d *dumper) loader(environmentEncoding string) *network.Loader {
	return network.NewLoader(d.client,
		network.WithCache(d.cache),
		network.WithLogger(d.log),
		network.WithEnvironmentEncoding(environmentEncoding),
		network.WithMaxImportDepth(d.cfg.MaxImportDepth),
	)
}

func (d *dumper) dump(ctx context.Context, tree treeprint.Tree, ref string, stdin io.Reader) error {
	loader := d.loader(d.cfg.Encoding)

	if ref == "-" {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sheet, err := loader.ParseResource(ctx, &network.Resource{
			URL:         d.cfg.BaseURL,
			Content:     content,
			ContentType: "text/css",
		})
		if err != nil {
			return err
		}
		addStyleSheet(tree, sheet.Encoding, sheet)
		return nil
	}

	res, err := loader.Load(ctx, ref)
	if err != nil {
		return err
	}
	if !network.IsHTMLContentType(res.ContentType) {
		sheet, err := loader.ParseResource(ctx, res)
		if err != nil {
			return err
		}
		addStyleSheet(tree, sheet.Encoding, sheet)
		return nil
	}

	return d.dumpDocument(ctx, tree, res)
}

func (d *dumper) dumpDocument(ctx context.Context, tree treeprint.Tree, res *network.Resource) error {
	contentType := res.ContentType
	if res.Charset != "" {
		contentType += "; charset=" + res.Charset
	}
	doc, encoding, err := html.ParseEncoded(bytes.NewReader(res.Content), contentType)
	if err != nil {
		return err
	}

	branch := tree.AddMetaBranch(encoding, res.URL)
	sheets, err := html.LoadStyleSheets(ctx, d.loader(encoding), doc, res.URL)
	if err != nil {
		d.log.Warn("some stylesheets failed to load", zap.String("url", res.URL), zap.Error(err))
	}
	for _, sheet := range sheets {
		addStyleSheet(branch, sheet.Encoding, sheet)
	}

	if d.inline {
		base := html.BaseURL(doc, res.URL)
		addInlineStyles(branch, html.InlineStyles(doc, css.WithBaseURL(base), css.WithLogger(d.log)))
	}
	return nil
}
