package commands

import (
	"errors"
	"fmt"
	"strings"

	"tasktracker/internal/service"
)

// TaskRef identifies a task within a list.
type TaskRef struct {
	List string     // list ID or title
	Task service.ID // task ID
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args and returns the remaining args.
//
// Accepted forms:
//  1. <list>/<task> as one argument (e.g. 3/7, Groceries/12)
//  2. <list> <task> as two arguments
//  3. <task> alone when listFlag is set
//
// The last slash separates the task, so list titles may contain slashes.
func ParseTaskRef(args []string, listFlag string) (TaskRef, []string, error) {
	if len(args) == 0 {
		return TaskRef{}, nil, ErrTaskRefRequired
	}
	first := strings.TrimSpace(args[0])

	if i := strings.LastIndex(first, "/"); i >= 0 {
		if listFlag != "" {
			return TaskRef{}, nil, errors.New("cannot use both --list and list/task")
		}
		list, task := strings.TrimSpace(first[:i]), strings.TrimSpace(first[i+1:])
		if list == "" || task == "" {
			return TaskRef{}, nil, fmt.Errorf("invalid task reference: %s", first)
		}
		return TaskRef{List: list, Task: service.ID(task)}, args[1:], nil
	}

	if listFlag != "" {
		if first == "" {
			return TaskRef{}, nil, ErrTaskRefRequired
		}
		return TaskRef{List: listFlag, Task: service.ID(first)}, args[1:], nil
	}

	if len(args) < 2 {
		return TaskRef{}, nil, ErrTaskRefRequired
	}
	task := strings.TrimSpace(args[1])
	if first == "" || task == "" {
		return TaskRef{}, nil, fmt.Errorf("invalid task reference: %s", strings.Join(args[:2], " "))
	}
	return TaskRef{List: first, Task: service.ID(task)}, args[2:], nil
}

// parseTaskRef wraps ParseTaskRef errors as user errors.
func parseTaskRef(args []string, listFlag string) (TaskRef, error) {
	ref, rest, err := ParseTaskRef(args, listFlag)
	if err != nil {
		return TaskRef{}, userErrorf("%v", err)
	}
	if len(rest) > 0 {
		return TaskRef{}, userErrorf("unexpected argument: %s", rest[0])
	}
	return ref, nil
}
