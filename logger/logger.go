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

package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

type lgr struct {
	mut sync.RWMutex
	lvl Level
	out *logrus.Logger
	fld map[string]interface{}
}

// New returns a Logger writing to the given writer (os.Stdout if nil) using
// logrus as the underlying formatter/backend. Default level is InfoLevel.
func New(out io.Writer) Logger {
	if out == nil {
		out = os.Stdout
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(InfoLevel.Logrus())

	return &lgr{
		lvl: InfoLevel,
		out: l,
		fld: make(map[string]interface{}),
	}
}

func (o *lgr) SetLevel(lvl Level) {
	o.mut.Lock()
	defer o.mut.Unlock()

	o.lvl = lvl
	o.out.SetLevel(lvl.Logrus())
}

func (o *lgr) GetLevel() Level {
	o.mut.RLock()
	defer o.mut.RUnlock()

	return o.lvl
}

func (o *lgr) SetFields(fields map[string]interface{}) {
	o.mut.Lock()
	defer o.mut.Unlock()

	o.fld = fields
}

func (o *lgr) Clone() Logger {
	o.mut.RLock()
	defer o.mut.RUnlock()

	n := &lgr{
		lvl: o.lvl,
		out: o.out,
		fld: make(map[string]interface{}, len(o.fld)),
	}

	for k, v := range o.fld {
		n.fld[k] = v
	}

	return n
}

func (o *lgr) Close() error {
	return nil
}

func (o *lgr) entry(lvl Level, message string, data interface{}, args []interface{}) {
	o.mut.RLock()
	lv := o.lvl
	fd := o.out.WithFields(toFields(o.fld))
	o.mut.RUnlock()

	if lv == NilLevel || lvl > lv {
		return
	}

	if data != nil {
		fd = fd.WithField("data", data)
	}

	msg := message
	if len(args) > 0 {
		msg = fmt.Sprintf(message, args...)
	}

	fd.Log(lvl.Logrus(), msg)
}

func toFields(m map[string]interface{}) logrus.Fields {
	f := make(logrus.Fields, len(m))
	for k, v := range m {
		f[k] = v
	}
	return f
}

func (o *lgr) Debug(message string, data interface{}, args ...interface{}) {
	o.entry(DebugLevel, message, data, args)
}

func (o *lgr) Info(message string, data interface{}, args ...interface{}) {
	o.entry(InfoLevel, message, data, args)
}

func (o *lgr) Warning(message string, data interface{}, args ...interface{}) {
	o.entry(WarnLevel, message, data, args)
}

func (o *lgr) Error(message string, data interface{}, args ...interface{}) {
	o.entry(ErrorLevel, message, data, args)
}

func (o *lgr) Fatal(message string, data interface{}, args ...interface{}) {
	o.entry(FatalLevel, message, data, args)
	os.Exit(1)
}

func (o *lgr) CheckError(lvlKO, lvlOK Level, message string, err error) bool {
	if err != nil {
		o.entry(lvlKO, message, err, nil)
		return false
	}

	if lvlOK != NilLevel {
		o.entry(lvlOK, message, nil, nil)
	}

	return true
}
