package util

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

// InfoLogger is the subset of ui.Logger the cleanup helpers report to.
type InfoLogger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

const TempSuffix = "_tmp"

// SetupInterruptHandler removes half-written chapter folders and exits
// when the process is interrupted.
func SetupInterruptHandler(outputDir string, log InfoLogger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		log.Infof("interrupt received, cleaning up %s", outputDir)

		CleanupUnfinishedTempFolders(outputDir, log)
		RemoveIfEmpty(outputDir, log)

		os.Exit(1)
	}()
}

func CleanupUnfinishedTempFolders(outputDir string, log InfoLogger) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return
	}

	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || !strings.HasSuffix(name, TempSuffix) {
			continue
		}

		full := filepath.Join(outputDir, name)
		if err := os.RemoveAll(full); err != nil {
			log.Errorf("cleaning up %s: %v", full, err)
		} else {
			log.Infof("removed %s", full)
		}
	}
}

func RemoveIfEmpty(dir string, log InfoLogger) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}

	if err := os.Remove(dir); err == nil {
		log.Infof("removed empty output folder %s", dir)
	}
}

func CleanupFolder(folder string) {
	_ = os.RemoveAll(folder)
}
