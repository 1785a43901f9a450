package commands

import (
	"flag"
	"strings"

	"tasktracker/internal/form"
	"tasktracker/internal/service"
)

// optString is a string flag that records whether it was given,
// so "--due=" can clear a value while an absent flag leaves it alone.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.value, o.set = s, true
	return nil
}

// taskFields are the task form flags shared by add and edit.
type taskFields struct {
	title       optString
	description optString
	due         optString
	priority    optString
	status      optString
}

func (f *taskFields) register(fs *flag.FlagSet, withTitle bool) {
	*f = taskFields{}
	if withTitle {
		fs.Var(&f.title, "title", "")
		fs.Var(&f.title, "t", "")
	}
	fs.Var(&f.description, "description", "")
	fs.Var(&f.description, "d", "")
	fs.Var(&f.due, "due", "")
	fs.Var(&f.priority, "priority", "")
	fs.Var(&f.priority, "p", "")
	fs.Var(&f.status, "status", "")
}

// apply copies every given flag onto t.
func (f *taskFields) apply(t *form.Task) error {
	if f.title.set {
		t.Title = f.title.value
	}
	if f.description.set {
		t.Description = f.description.value
	}
	if f.due.set {
		if _, err := form.ParseDate(f.due.value); err != nil {
			return userErrorf("%v", err)
		}
		t.DueDate = strings.TrimSpace(f.due.value)
	}
	if f.priority.set {
		p, err := service.ParsePriority(f.priority.value)
		if err != nil {
			return userErrorf("%v (use LOW, MEDIUM or HIGH)", err)
		}
		t.Priority = p
	}
	if f.status.set {
		s, err := service.ParseStatus(f.status.value)
		if err != nil {
			return userErrorf("%v (use OPEN or CLOSED)", err)
		}
		t.Status = s
	}
	return nil
}

// listFields are the list form flags shared by createlist and editlist.
type listFields struct {
	title       optString
	description optString
}

func (f *listFields) register(fs *flag.FlagSet, withTitle bool) {
	*f = listFields{}
	if withTitle {
		fs.Var(&f.title, "title", "")
		fs.Var(&f.title, "t", "")
	}
	fs.Var(&f.description, "description", "")
	fs.Var(&f.description, "d", "")
}

func (f *listFields) apply(l *form.TaskList) {
	if f.title.set {
		l.Title = f.title.value
	}
	if f.description.set {
		l.Description = f.description.value
	}
}

// submitError prefers the form's validation message over the request error.
func submitError(invalid string, err error) error {
	if invalid != "" {
		return userErrorf("%s", invalid)
	}
	return err
}
