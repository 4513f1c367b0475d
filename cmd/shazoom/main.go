// Command shazoom is the CLI entry point: a serve subcommand for the HTTP
// surface, and ingest/identify/listen/list/delete/stats subcommands for
// direct catalogue management, grounded on the corpus's flag.NewFlagSet
// subcommand dispatch.
package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"shazoom/config"
	"shazoom/fileformat"
	"shazoom/httpapi"
	"shazoom/identify"
	"shazoom/ingest"
	"shazoom/internal/applog"
	"shazoom/store"
	"shazoom/store/postgres"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := applog.New(slog.LevelInfo)
	ecfg, mcfg, err := config.Load()
	if err != nil {
		logger.Error("loading config", slog.Any("err", err))
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(logger, ecfg, mcfg, os.Args[2:])
	case "ingest":
		cmdIngest(logger, ecfg, os.Args[2:])
	case "ingest-dir":
		cmdIngestDir(logger, ecfg, os.Args[2:])
	case "identify":
		cmdIdentify(logger, ecfg, mcfg, os.Args[2:])
	case "listen":
		cmdListen(logger, ecfg, mcfg, os.Args[2:])
	case "list":
		cmdList(logger, os.Args[2:])
	case "delete":
		cmdDelete(logger, os.Args[2:])
	case "stats":
		cmdStats(logger, os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: shazoom <serve|ingest|ingest-dir|identify|listen|list|delete|stats> [flags]")
}

func dsnFlag(fs *flag.FlagSet) *string {
	return fs.String("dsn", os.Getenv("DATABASE_URL"), "postgres connection string")
}

func openStore(logger *slog.Logger, dsn string) store.FingerprintStore {
	if dsn == "" {
		logger.Error("no -dsn given and DATABASE_URL is unset")
		os.Exit(1)
	}
	s, err := postgres.Open(dsn)
	if err != nil {
		logger.Error("opening store", slog.Any("err", err))
		os.Exit(1)
	}
	return s
}

func cmdServe(logger *slog.Logger, ecfg config.ExtractorConfig, mcfg config.MatcherConfig, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dsn := dsnFlag(fs)
	addr := fs.String("addr", ":8080", "listen address")
	fs.Parse(args)

	s := openStore(logger, *dsn)
	defer s.Close()

	if err := checkConfigEpoch(s, ecfg, logger); err != nil {
		logger.Error("config epoch check", slog.Any("err", err))
		os.Exit(1)
	}

	srv := httpapi.New(s, ecfg, mcfg, logger)
	logger.Info("listening", slog.String("addr", *addr))
	if err := http.ListenAndServe(*addr, srv.Middleware(srv.Routes())); err != nil {
		logger.Error("server stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func cmdIngest(logger *slog.Logger, ecfg config.ExtractorConfig, args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	dsn := dsnFlag(fs)
	path := fs.String("path", "", "audio file to ingest")
	title := fs.String("title", "", "recording title")
	artist := fs.String("artist", "", "recording artist")
	album := fs.String("album", "", "recording album (optional)")
	fs.Parse(args)

	if *path == "" || *title == "" || *artist == "" {
		fmt.Fprintln(os.Stderr, "ingest requires -path, -title and -artist")
		os.Exit(1)
	}

	s := openStore(logger, *dsn)
	defer s.Close()

	res, err := ingest.Ingest(context.Background(), s, ecfg, ingest.Request{
		Path: *path, Title: *title, Artist: *artist, Album: *album,
	})
	if err != nil {
		logger.Error("ingest failed", slog.Any("err", err))
		os.Exit(1)
	}
	if res.Duplicate {
		fmt.Printf("already catalogued as recording %d\n", res.RecordingID)
		return
	}
	fmt.Printf("ingested recording %d (%d hashes)\n", res.RecordingID, res.TupleCount)
}

// cmdIngestDir walks a directory of audio files and ingests each with a
// small worker pool, matching the corpus's concurrent-ingest command.
func cmdIngestDir(logger *slog.Logger, ecfg config.ExtractorConfig, args []string) {
	fs := flag.NewFlagSet("ingest-dir", flag.ExitOnError)
	dsn := dsnFlag(fs)
	dir := fs.String("dir", "", "directory of audio files to ingest")
	workers := fs.Int("workers", 4, "concurrent ingest workers")
	fs.Parse(args)

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "ingest-dir requires -dir")
		os.Exit(1)
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Error("reading directory", slog.Any("err", err))
		os.Exit(1)
	}

	s := openStore(logger, *dsn)
	defer s.Close()

	paths := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				name := filepath.Base(path)
				res, err := ingest.Ingest(context.Background(), s, ecfg, ingest.Request{
					Path: path, Title: name, Artist: "unknown",
				})
				if err != nil {
					logger.Error("ingest failed", slog.String("file", name), slog.Any("err", err))
					continue
				}
				if res.Duplicate {
					logger.Info("duplicate skipped", slog.String("file", name), slog.Uint64("recording_id", res.RecordingID))
					continue
				}
				logger.Info("ingested", slog.String("file", name), slog.Uint64("recording_id", res.RecordingID), slog.Int("hashes", res.TupleCount))
			}
		}()
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths <- filepath.Join(*dir, e.Name())
	}
	close(paths)
	wg.Wait()
}

func cmdIdentify(logger *slog.Logger, ecfg config.ExtractorConfig, mcfg config.MatcherConfig, args []string) {
	fs := flag.NewFlagSet("identify", flag.ExitOnError)
	dsn := dsnFlag(fs)
	path := fs.String("path", "", "audio clip to identify")
	fs.Parse(args)

	if *path == "" {
		fmt.Fprintln(os.Stderr, "identify requires -path")
		os.Exit(1)
	}

	s := openStore(logger, *dsn)
	defer s.Close()

	m, err := identify.Identify(context.Background(), s, ecfg, mcfg, *path)
	if err != nil {
		logger.Error("identify failed", slog.Any("err", err))
		os.Exit(1)
	}
	if m == nil {
		fmt.Println("no match")
		return
	}
	rec, err := s.Get(context.Background(), m.RecordingID)
	if err != nil {
		fmt.Printf("matched recording %d (score %d, %.1f%% confidence)\n", m.RecordingID, m.Score, m.ConfidencePct)
		return
	}
	fmt.Printf("matched %q by %q (score %d, %.1f%% confidence, offset %d frames)\n",
		rec.Title, rec.Artist, m.Score, m.ConfidencePct, m.AlignmentOffset)
}

// cmdListen records a fixed window from the default input device and runs
// one identify pass over it, a single-shot alternative to an open streaming
// microphone (which is out of scope).
func cmdListen(logger *slog.Logger, ecfg config.ExtractorConfig, mcfg config.MatcherConfig, args []string) {
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	dsn := dsnFlag(fs)
	seconds := fs.Int("seconds", 10, "seconds to record before identifying")
	fs.Parse(args)

	const sampleRate = 44100
	const channels = 1

	if err := portaudio.Initialize(); err != nil {
		logger.Error("portaudio init failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer portaudio.Terminate()

	var mu sync.Mutex
	var raw []byte
	callback := func(in []int16) {
		buf := new(bytes.Buffer)
		if err := binary.Write(buf, binary.LittleEndian, in); err != nil {
			return
		}
		mu.Lock()
		raw = append(raw, buf.Bytes()...)
		mu.Unlock()
	}

	stream, err := portaudio.OpenDefaultStream(channels, 0, sampleRate, 0, callback)
	if err != nil {
		logger.Error("opening audio stream", slog.Any("err", err))
		os.Exit(1)
	}
	defer stream.Close()

	logger.Info("recording", slog.Int("seconds", *seconds))
	if err := stream.Start(); err != nil {
		logger.Error("starting stream", slog.Any("err", err))
		os.Exit(1)
	}
	time.Sleep(time.Duration(*seconds) * time.Second)
	if err := stream.Stop(); err != nil {
		logger.Error("stopping stream", slog.Any("err", err))
		os.Exit(1)
	}

	dir, err := os.MkdirTemp("", "shazoom-listen-*")
	if err != nil {
		logger.Error("creating temp dir", slog.Any("err", err))
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	wavPath := filepath.Join(dir, "clip.wav")
	if err := fileformat.WriteWavFile(wavPath, raw, sampleRate, channels, 16); err != nil {
		logger.Error("writing captured clip", slog.Any("err", err))
		os.Exit(1)
	}

	// reformat through ffmpeg to the exact container shape the decoder
	// expects, the same way a captured raw stream is normalized before
	// fingerprinting.
	reformatted, err := fileformat.ReformatWav(wavPath, channels)
	if err != nil {
		logger.Error("reformatting captured clip", slog.Any("err", err))
		os.Exit(1)
	}
	defer os.Remove(reformatted)

	s := openStore(logger, *dsn)
	defer s.Close()

	m, err := identify.Identify(context.Background(), s, ecfg, mcfg, reformatted)
	if err != nil {
		logger.Error("identify failed", slog.Any("err", err))
		os.Exit(1)
	}
	if m == nil {
		fmt.Println("no match")
		return
	}
	rec, _ := s.Get(context.Background(), m.RecordingID)
	fmt.Printf("matched %q by %q (score %d, %.1f%% confidence)\n", rec.Title, rec.Artist, m.Score, m.ConfidencePct)
}

func cmdList(logger *slog.Logger, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dsn := dsnFlag(fs)
	fs.Parse(args)

	s := openStore(logger, *dsn)
	defer s.Close()

	recs, err := s.List(context.Background())
	if err != nil {
		logger.Error("listing recordings", slog.Any("err", err))
		os.Exit(1)
	}
	for _, r := range recs {
		fmt.Printf("%d\t%s\t%s\t%s\n", r.ID, r.Title, r.Artist, r.Album)
	}
}

func cmdDelete(logger *slog.Logger, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	dsn := dsnFlag(fs)
	id := fs.Uint64("id", 0, "recording id to delete")
	fs.Parse(args)

	if *id == 0 {
		fmt.Fprintln(os.Stderr, "delete requires -id")
		os.Exit(1)
	}

	s := openStore(logger, *dsn)
	defer s.Close()

	if err := s.DeleteRecording(context.Background(), *id); err != nil {
		logger.Error("deleting recording", slog.Any("err", err))
		os.Exit(1)
	}
	fmt.Printf("deleted recording %d\n", *id)
}

func cmdStats(logger *slog.Logger, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	dsn := dsnFlag(fs)
	fs.Parse(args)

	s := openStore(logger, *dsn)
	defer s.Close()

	stats, err := s.Stats(context.Background())
	if err != nil {
		logger.Error("fetching stats", slog.Any("err", err))
		os.Exit(1)
	}
	fmt.Printf("recordings: %d\nhashes: %d\n", stats.RecordingCount, stats.TupleCount)
}

// checkConfigEpoch records the running extractor config's hash against the
// catalogue on first use, or refuses to start on mismatch (spec §9): serving
// queries against a catalogue built under different extractor parameters
// would silently produce comparisons the matcher can never align.
func checkConfigEpoch(s store.FingerprintStore, ecfg config.ExtractorConfig, logger *slog.Logger) error {
	want := ecfg.Hash()
	got, err := s.ConfigHash(context.Background())
	if err != nil {
		return err
	}
	if got == "" {
		return s.SetConfigHash(context.Background(), want)
	}
	if got != want {
		logger.Error("extractor config does not match the catalogue's recorded config; refusing to start",
			slog.String("catalogue_hash", got), slog.String("running_hash", want))
		return fmt.Errorf("config epoch mismatch: catalogue=%s running=%s", got, want)
	}
	return nil
}
