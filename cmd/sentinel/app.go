package main

import (
	"fmt"
	"log"
	"os"

	"GradeSentinel/internal/checker"
	"GradeSentinel/internal/collector"
	"GradeSentinel/internal/config"
	"GradeSentinel/internal/notifier"
	"GradeSentinel/internal/recorder"
	"GradeSentinel/internal/state"
)

type app struct {
	Checker  *checker.Checker
	Telegram *notifier.TelegramNotifier
	recorder recorder.Recorder
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		log.Printf("[WARN] close recorder: %v", err)
	}
}

func newApp(cfg *config.Config) (*app, error) {
	client := collector.NewMoodleClient(cfg.Moodle.BaseURL, cfg.Moodle.Token, cfg.Moodle.Service, cfg.Timeout(), cfg.Proxy)
	log.Printf("[INFO] data source: %s (%s)", client.Name(), cfg.Moodle.BaseURL)

	a := &app{}
	sinks, err := a.buildSinks(cfg)
	if err != nil {
		return nil, err
	}

	rec, err := openRecorder(cfg)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		rec = recorder.NewNoopRecorder()
	}
	a.recorder = rec

	c := newReader(cfg)
	c.Collector = collector.NewCollector(client, cfg.Grading.MaxTotal)
	c.Recorder = rec
	c.Dispatcher = notifier.NewDispatcher(sinks...)
	a.Checker = c
	return a, nil
}

func (a *app) buildSinks(cfg *config.Config) ([]notifier.Sink, error) {
	var sinks []notifier.Sink
	for _, name := range cfg.Notify.Sinks {
		switch name {
		case config.SinkDesktop:
			sinks = append(sinks, notifier.NewDesktopSink())
		case config.SinkTelegram:
			a.Telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
			sinks = append(sinks, a.Telegram)
		case config.SinkConsole:
			sinks = append(sinks, notifier.NewConsoleSink(os.Stdout))
		default:
			return nil, fmt.Errorf("unknown sink %q", name)
		}
	}
	for _, s := range sinks {
		log.Printf("[INFO] notification sink: %s", s.Name())
	}
	return sinks, nil
}

// newReader builds a checker over the local files only, enough for the
// grades and history views.
func newReader(cfg *config.Config) *checker.Checker {
	return &checker.Checker{
		Store:    state.NewStore(cfg.Storage.SnapshotFile),
		History:  state.NewHistory(cfg.Storage.HistoryFile, cfg.Grading.MaxTotal),
		Current:  state.CurrentGradesFile{Path: cfg.Storage.CurrentGradesFile},
		Recorder: recorder.NewNoopRecorder(),
	}
}

func openRecorder(cfg *config.Config) (recorder.Recorder, error) {
	if !cfg.RecorderEnabled() {
		return recorder.NewNoopRecorder(), nil
	}
	return recorder.NewSQLiteRecorder(cfg.Storage.SQLitePath)
}
