package main

import (
	"fmt"
	stdlog "log"
	"os"
	"strconv"

	"git.lost.host/meutraa/notefall/internal/audio"
	"git.lost.host/meutraa/notefall/internal/config"
	"git.lost.host/meutraa/notefall/internal/game"
	"git.lost.host/meutraa/notefall/internal/history"
	"git.lost.host/meutraa/notefall/internal/log"
	"git.lost.host/meutraa/notefall/internal/parser"
	"github.com/eiannone/keyboard"
)

func main() {
	if err := run(); nil != err {
		stdlog.Fatalln(err)
	}
}

func selectChart(charts []*game.Chart, keys <-chan keyboard.KeyEvent) (*game.Chart, error) {
	if len(charts) == 1 {
		return charts[0], nil
	}
	// Difficulty selection
	for i, c := range charts {
		fmt.Printf("%2v) %3v  %5v  %v\r\n", i, c.Difficulty.Msd, len(c.Notes), c.Difficulty.Name)
	}
	key := <-keys
	index, err := strconv.ParseInt(string(key.Rune), 10, 64)
	if nil != err || index < 0 || index > int64(len(charts)-1) {
		return nil, fmt.Errorf("no difficulty %q", key.Rune)
	}
	return charts[index], nil
}

func run() error {
	config.Parse(os.Args[1:])

	logFile, err := os.OpenFile(*config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if nil != err {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	defer logFile.Close()
	logger := log.New(logFile, config.Level())

	audioFile, chartFile, err := audio.Find(*config.Directory)
	if nil != err {
		return err
	}

	charts, err := parser.ForFile(chartFile).Parse(chartFile)
	if nil != err {
		return err
	}

	keyChannel, err := keyboard.GetKeys(128)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); nil != err {
			logger.Errorf("unable to close keyboard: %v", err)
		}
	}()

	chart, err := selectChart(charts, keyChannel)
	if nil != err {
		return err
	}

	logger.Infof("opening %v (%v)", audioFile, chartFile)
	track, err := audio.Open(audioFile)
	if nil != err {
		return err
	}
	defer track.Close()
	if err := track.Init(); nil != err {
		return fmt.Errorf("unable to open speaker: %w", err)
	}

	// A missing history only costs the session log
	store, err := history.Open(*config.Database)
	if nil != err {
		logger.Warnf("playing without history: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	p := NewProgram(chart, track, store, logger)
	defer p.Close()
	return p.Run(keyChannel)
}
