package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how much the process logs.
type Options struct {
	Level      string
	File       string
	Format     string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var log = logrus.New()

func NewLogger(opts Options) {
	if opts.File == "" {
		opts.File = "router.log"
	}
	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = 50
	}
	if opts.MaxBackups == 0 {
		opts.MaxBackups = 3
	}
	if opts.MaxAgeDays == 0 {
		opts.MaxAgeDays = 28
	}

	logFile := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB, // MB
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays, // days
	}

	// console and file
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	configure(opts)

	log.Info("Logging has been initialized...")
}

// SetOutput redirects the logger, mostly for tests.
func SetOutput(w io.Writer, opts Options) {
	log.SetOutput(w)
	configure(opts)
}

func configure(opts Options) {
	if opts.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}

func Debug(msg string, keyvals ...any) {
	log.WithFields(fields(keyvals)).Debug(msg)
}

func Info(msg string, keyvals ...any) {
	log.WithFields(fields(keyvals)).Info(msg)
}

func Warn(msg string, keyvals ...any) {
	log.WithFields(fields(keyvals)).Warn(msg)
}

func Error(msg string, keyvals ...any) {
	log.WithFields(fields(keyvals)).Error(msg)
}

// fields turns alternating key/value pairs into logrus fields. A trailing key
// without a value is kept under "extra".
func fields(keyvals []any) logrus.Fields {
	f := make(logrus.Fields, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		if i+1 >= len(keyvals) {
			f["extra"] = keyvals[i]
			break
		}
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		f[key] = keyvals[i+1]
	}
	return f
}
