package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/prosewrites/draftline/internal/appupdate"
	"github.com/prosewrites/draftline/internal/assist"
	"github.com/prosewrites/draftline/internal/autosave"
	"github.com/prosewrites/draftline/internal/config"
	"github.com/prosewrites/draftline/internal/core"
	"github.com/prosewrites/draftline/internal/stats"
	"github.com/prosewrites/draftline/internal/store"
	"github.com/prosewrites/draftline/internal/styles"
	"github.com/prosewrites/draftline/internal/suggest"
	"github.com/prosewrites/draftline/internal/tui"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var BUILD_VERSION = "dev"

var titleFlag = flag.String("title", "", "title for a new document")
var openFlag = flag.String("open", "", "open the document with the given id")
var listFlag = flag.Bool("list", false, "list recent documents, or fuzzy-search titles with the remaining arguments")
var endpointFlag = flag.String("endpoint", "", "suggestion endpoint, overrides the config file")

var helpFlag = flag.Bool("h", false, "display help information")
var versionFlag = flag.Bool("ver", false, "display build version")

const listLimit = 20

const helpText = `draftline - a terminal writing editor with inline AI suggestions

USAGE:
  draftline [options]

MODES:
  draftline                   Start a new document
  draftline -title "Notes"    Start a new document with a title
  draftline -open <id>        Continue an existing document
  draftline -list [query]     List recent documents or search their titles

KEYS:
  Tab          accept the suggestion
  Shift+Tab    ask for a different suggestion
  Esc          dismiss the suggestion
  Ctrl+S       save        Ctrl+Y  copy document
  Ctrl+T       switch between title and body
  Ctrl+C       save and quit

Configuration is read from ~/.draftline/config.yaml.

OPTIONS:
`

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Println(BUILD_VERSION)
		return
	}

	if *helpFlag {
		fmt.Print(helpText)
		flag.PrintDefaults()
		return
	}

	loaded, err := config.NewLoader(zap.NewNop()).LoadFromFile(core.ConfigFile())
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("failed to load config: %v", err)))
		os.Exit(1)
	}
	cfg := loaded.Config
	if *endpointFlag != "" {
		cfg.Endpoint = *endpointFlag
	}

	logger, err := initializeLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // Flush any buffered log entries

	logger.Info("-------- new draftline session --------", zap.Any("args", os.Args))
	for _, configErr := range loaded.Errors {
		logger.Warn("ignoring invalid config value", zap.Error(configErr))
	}

	documents, err := store.NewDocumentManager(core.DocumentsFile())
	if err != nil {
		logger.Error("failed to open document store", zap.Error(err))
		fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("failed to open document store: %v", err)))
		os.Exit(1)
	}
	defer documents.Close()

	if *listFlag {
		if err := listDocuments(os.Stdout, documents, strings.Join(flag.Args(), " ")); err != nil {
			fmt.Fprintln(os.Stderr, styles.ERROR(err.Error()))
			os.Exit(1)
		}
		return
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, styles.ERROR("draftline must be run in an interactive terminal"))
		os.Exit(1)
	}

	lipgloss.SetColorProfile(styles.ColorProfile())

	if err := run(context.Background(), cfg, documents, logger); err != nil {
		logger.Error("unhandled error", zap.Error(err))
		fmt.Fprintln(os.Stderr, styles.ERROR(err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, documents *store.DocumentManager, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	doc, err := openDocument(documents, *openFlag, *titleFlag)
	if err != nil {
		return err
	}

	completer, err := newCompleter(cfg, logger)
	if err != nil {
		return err
	}

	// Check for updates in background
	updates := appupdate.CheckForUpdate(ctx, BUILD_VERSION, core.LatestVersionFile(), logger, appupdate.DefaultUpdater{})
	knownUpdate, _ := appupdate.RecordedUpdate(BUILD_VERSION, core.LatestVersionFile())

	var program *tea.Program

	saver := autosave.NewScheduler(autosave.Config{
		Document: *doc,
		Saver:    documents,
		Delay:    cfg.AutosaveDelay,
		OnSaved: func(err error) {
			if program != nil {
				program.Send(tui.SavedMsg{Err: err})
			}
		},
		Logger: logger,
	})

	session := suggest.NewSession(suggest.Config{
		Completer:      completer,
		Debounce:       cfg.Debounce,
		RequestTimeout: cfg.RequestTimeout,
		OnChange:       saver.Schedule,
		Logger:         logger,
	})
	session.Load(doc.ID, doc.Title, doc.Body)

	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		logger.Debug("failed to get terminal size", zap.Error(err))
	}

	model := tui.New(tui.Config{
		Session:       session,
		Save:          saver.Flush,
		Updates:       updates,
		UpdateVersion: knownUpdate,
		Width:         width,
		Height:        height,
		Logger:        logger,
	})

	program = tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := program.Run()

	session.Close()
	saveErr := saver.Flush()
	if saveErr != nil {
		saveErr = fmt.Errorf("failed to save document %s: %w", doc.ID, saveErr)
	}

	final := saver.Document()
	logger.Info("session ended",
		zap.String("id", final.ID),
		zap.Int("words", stats.Compute(final.Body).Words),
	)

	return errors.Join(runErr, saveErr)
}

// openDocument loads the document with the given id, or starts a new,
// not yet persisted one when id is empty.
func openDocument(documents *store.DocumentManager, id, title string) (*store.Document, error) {
	if id == "" {
		return &store.Document{ID: uuid.NewString(), Title: title}, nil
	}

	doc, err := documents.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return doc, nil
}

func newCompleter(cfg *config.Config, logger *zap.Logger) (assist.Completer, error) {
	if !cfg.UsesOpenAI() {
		return assist.NewHTTPClient(assist.HTTPClientConfig{
			Endpoint: cfg.Endpoint,
			Token:    cfg.Token,
			Cookie:   cfg.Cookie,
			Logger:   logger,
		}), nil
	}

	if cfg.OpenAI.APIKey == "" {
		return nil, errors.New("the openai backend needs an API key (openai.apiKey or OPENAI_API_KEY)")
	}

	reference, errs := loadReferenceContext(cfg.ContextFiles)
	for _, err := range errs {
		logger.Warn("skipping context file", zap.Error(err))
	}

	return assist.NewOpenAIClient(assist.OpenAIClientConfig{
		APIKey:           cfg.OpenAI.APIKey,
		Model:            cfg.OpenAI.Model,
		BaseURL:          cfg.OpenAI.BaseURL,
		ReferenceContext: reference,
		Logger:           logger,
	}), nil
}

// loadReferenceContext concatenates the readable context files. Files that
// cannot be read are reported and skipped.
func loadReferenceContext(paths []string) (string, []error) {
	var parts []string
	var errs []error

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read context file: %w", err))
			continue
		}
		if text := strings.TrimSpace(string(content)); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n"), errs
}

func listDocuments(w io.Writer, documents *store.DocumentManager, query string) error {
	docs, err := documents.Search(query, listLimit)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents found.")
		return nil
	}

	for _, doc := range docs {
		title := doc.Title
		if strings.TrimSpace(title) == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "%s  %s  %s\n",
			styles.DIM(doc.ID),
			styles.TITLE(fmt.Sprintf("%-40s", title)),
			styles.DIM(fmt.Sprintf("%6s words  %s",
				humanize.Comma(int64(stats.Compute(doc.Body).Words)),
				humanize.Time(doc.UpdatedAt),
			)),
		)
	}

	return nil
}

func initializeLogger(level string) (*zap.Logger, error) {
	logLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	// Logs only go to file to avoid interfering with Bubble Tea UI
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		core.LogFile(),
	}

	return loggerConfig.Build()
}
