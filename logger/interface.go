/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package logger provides a small structured logger used across the tracker
// daemon: level-gated entries with free-form fields, backed by logrus.
package logger

import (
	"io"
)

// FuncLog is injected into components so they can lazily resolve the process
// logger instead of holding a concrete dependency.
type FuncLog func() Logger

// Logger is the logging contract used by every component of the tracker.
type Logger interface {
	io.Closer

	// SetLevel changes the minimal level a message must have to be emitted.
	SetLevel(lvl Level)
	// GetLevel returns the current minimal level.
	GetLevel() Level

	// SetFields sets default key/value pairs attached to every entry.
	SetFields(fields map[string]interface{})
	// Clone duplicates the logger, copying its level and default fields.
	Clone() Logger

	// Debug logs a DebugLevel entry.
	Debug(message string, data interface{}, args ...interface{})
	// Info logs an InfoLevel entry.
	Info(message string, data interface{}, args ...interface{})
	// Warning logs a WarnLevel entry.
	Warning(message string, data interface{}, args ...interface{})
	// Error logs an ErrorLevel entry.
	Error(message string, data interface{}, args ...interface{})
	// Fatal logs a FatalLevel entry then terminates the process.
	Fatal(message string, data interface{}, args ...interface{})

	// CheckError logs err at lvlKO if not nil; otherwise, if lvlOK is not
	// NilLevel, it logs message at lvlOK. Returns true iff err was nil.
	CheckError(lvlKO, lvlOK Level, message string, err error) bool
}
