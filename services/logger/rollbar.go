package logsvc

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/kiongozi/core"
	"github.com/trezcool/kiongozi/core/user"
)

// RollbarLogger reports events to Rollbar and echoes them to a standard logger.
type RollbarLogger struct {
	client *rollbar.Client
	std    *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	client := rollbar.New(conf.RollbarToken, conf.Env, conf.Build, conf.Server.Host, "")
	client.SetStackTracer(errors.StackTracer)
	client.SetCustom(map[string]interface{}{"app": conf.AppName})
	return &RollbarLogger{client: client, std: std}
}

func (l *RollbarLogger) Enable(enabled bool) {
	l.client.SetEnabled(enabled)
}

// Close flushes the pending reports.
func (l *RollbarLogger) Close() error {
	return l.client.Close()
}

// event is a logged message with its error, the user it relates to and any extra fields.
type event struct {
	msg    string
	err    error
	person *rollbar.Person
	fields core.LogFields
}

// newEvent sorts args out: the first error and the first user.User win,
// LogFields are merged and anything else is kept under "args".
func newEvent(msg string, args []interface{}) event {
	ev := event{msg: msg, fields: core.LogFields{}}
	var others []interface{}
	for _, arg := range args {
		switch a := arg.(type) {
		case error:
			if ev.err == nil {
				ev.err = a
			} else {
				others = append(others, a.Error())
			}
		case user.User:
			if ev.person == nil {
				ev.person = &rollbar.Person{Id: a.ID, Username: a.Name, Email: a.Email}
				ev.addUser(a)
			}
		case core.LogFields:
			ev.merge(a)
		case map[string]interface{}:
			ev.merge(a)
		default:
			others = append(others, a)
		}
	}
	if len(others) > 0 {
		ev.fields["args"] = others
	}
	return ev
}

func (ev *event) merge(fields map[string]interface{}) {
	for k, v := range fields {
		ev.fields[k] = v
	}
}

func (ev *event) addUser(usr user.User) {
	if usr.Role != "" {
		ev.fields["user_role"] = usr.Role
	}
	switch {
	case usr.IsManager():
		ev.fields["manager_id"] = usr.ID
	case usr.ManagerID != "":
		ev.fields["manager_id"] = usr.ManagerID
	}
}

func (l *RollbarLogger) report(level string, ev event) {
	ctx := context.Background()
	if ev.person != nil {
		ctx = rollbar.NewPersonContext(ctx, ev.person)
	}
	if ev.err == nil {
		l.client.MessageWithExtrasAndContext(ctx, level, ev.msg, ev.fields)
		return
	}
	extras := core.LogFields{"message": ev.msg}
	for k, v := range ev.fields {
		extras[k] = v
	}
	l.client.ErrorWithExtrasAndContext(ctx, level, ev.err, extras)
}

// print writes one line per event, fields in key order, then the error with its stack trace.
func (l *RollbarLogger) print(level string, ev event) {
	var b strings.Builder
	b.WriteString(strings.ToUpper(level))
	b.WriteString(": ")
	b.WriteString(ev.msg)
	if ev.person != nil {
		fmt.Fprintf(&b, " user=%s", ev.person.Id)
	}
	keys := make([]string, 0, len(ev.fields))
	for k := range ev.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, ev.fields[k])
	}
	l.std.Println(b.String())
	if ev.err != nil {
		l.std.Printf("%+v\n", ev.err)
	}
}

func (l *RollbarLogger) log(level, msg string, args []interface{}) {
	ev := newEvent(msg, args)
	l.report(level, ev)
	l.print(level, ev)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(rollbar.DEBUG, msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(rollbar.INFO, msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(rollbar.WARN, msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(rollbar.ERR, msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	l.client.Wait()
	l.std.Fatal(msg)
}
