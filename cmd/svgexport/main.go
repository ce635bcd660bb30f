package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"svg_exporter/internal/config"
	"svg_exporter/internal/editor"
	"svg_exporter/internal/exporter"
	"svg_exporter/internal/model"
	"svg_exporter/internal/sink"
	"svg_exporter/internal/watch"
)

func main() {
	envFile := flag.String("env", "", "Path to .env file (default: data/.env if present)")
	inPath := flag.String("in", "-", "input SVG path (- for stdin)")
	formatName := flag.String("format", "png", "output format: "+formatList())
	scale := flag.Float64("scale", 0, "magnification (default: export preset)")
	outDir := flag.String("out", "", "output directory (default: SVGEXPORT_OUTPUT_DIR)")
	copyToClipboard := flag.Bool("copy", false, "copy a PNG to the clipboard instead of saving a file")
	watchFile := flag.Bool("watch", false, "re-export whenever the input file changes")
	flag.Parse()

	config.LoadEnvironment(*envFile)
	cfg := config.LoadConfig()
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *scale != 0 {
		if err := checkScale(*scale); err != nil {
			log.Fatal(err)
		}
		cfg.CopyScale = *scale
		cfg.ExportScale = *scale
	}

	format, err := model.ParseFormat(*formatName)
	if err != nil {
		log.Fatal(err)
	}
	if *watchFile && *inPath == "-" {
		log.Fatal("-watch にはファイルパスの指定が必要です")
	}

	session := editor.NewSession(cfg, exporter.NewRasterizer(cfg), sink.NewClipboardSink(), sink.NewDownloadSink(cfg))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	run := func(markup string) bool {
		return process(ctx, session, markup, format, *copyToClipboard)
	}

	if !*watchFile {
		markup, err := readInput(*inPath)
		if err != nil {
			log.Fatalf("入力の読み込みに失敗しました: %v", err)
		}
		if !run(markup) {
			os.Exit(1)
		}
		return
	}

	w := watch.NewFileWatcher(*inPath, func(markup string) { run(markup) })
	if err := w.Load(); err != nil {
		log.Fatalf("入力の読み込みに失敗しました: %v", err)
	}
	if err := w.Start(ctx); err != nil {
		log.Fatalf("ファイル監視を開始できません: %v", err)
	}

	<-ctx.Done()
	log.Println("監視を終了しました")
}

// process validates markup and performs one copy or export.
func process(ctx context.Context, session *editor.Session, markup string, format model.Format, copyToClipboard bool) bool {
	switch session.SetMarkup(markup) {
	case editor.StateEmpty:
		log.Println("入力が空です")
		return false
	case editor.StateInvalid:
		log.Printf("%s: %v", session.ErrorMessage(), session.ParseErr())
		return false
	}

	if copyToClipboard {
		if err := session.Copy(ctx); err != nil {
			if msg := session.Notice(); msg != "" {
				log.Println(msg)
			}
			return false
		}
		log.Println(session.Notice())
		return true
	}

	if _, err := session.Export(ctx, format); err != nil {
		return false
	}
	log.Println(session.Notice())
	return true
}

func formatList() string {
	names := make([]string, 0, len(model.Formats()))
	for _, f := range model.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// checkScale rejects magnifications the rasterizer cannot use.
func checkScale(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 1 {
		return fmt.Errorf("倍率は1以上の有限値を指定してください: %v", v)
	}
	return nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
