package engine

import (
	log "github.com/sirupsen/logrus"
)

// logLine is one log record held back until the engine lock is released.
type logLine struct {
	level  log.Level
	fields log.Fields
	msg    string
}

type logBuffer []logLine

func (b *logBuffer) add(level log.Level, fields log.Fields, msg string) {
	*b = append(*b, logLine{level: level, fields: fields, msg: msg})
}

func (b logBuffer) flush() {
	for _, l := range b {
		log.WithFields(l.fields).Log(l.level, l.msg)
	}
}
