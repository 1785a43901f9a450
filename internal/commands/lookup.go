package commands

import (
	"context"
	"strings"

	"tasktracker/internal/config"
	"tasktracker/internal/service"
	"tasktracker/internal/store"
	"tasktracker/internal/view"
)

// resolveList finds a list by ID, then by title (case-insensitive, trimmed).
func resolveList(lists []service.TaskList, ref string) (service.TaskList, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return service.TaskList{}, userErrorf("list required")
	}
	for _, l := range lists {
		if l.ID.String() == ref {
			return l, nil
		}
	}

	var matches []service.TaskList
	for _, l := range lists {
		if strings.EqualFold(strings.TrimSpace(l.Title), ref) {
			matches = append(matches, l)
		}
	}
	switch len(matches) {
	case 0:
		return service.TaskList{}, userErrorf("list not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return service.TaskList{}, userErrorf("ambiguous list name: %s", ref)
	}
}

// openDashboard loads every list.
func openDashboard(ctx context.Context, cfg *config.Config, env *Env, confirm store.Confirmer) (*view.Dashboard, error) {
	d := view.NewDashboard(env.Service, confirm, formatter(cfg), env.Logger)
	if err := d.Refresh(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// openList resolves ref and loads the list with its tasks. An empty ref
// selects the only list when exactly one exists.
func openList(ctx context.Context, cfg *config.Config, env *Env, ref string, confirm store.Confirmer) (*view.DetailView, error) {
	lists, err := env.Service.Lists.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var list service.TaskList
	if strings.TrimSpace(ref) == "" {
		if len(lists) != 1 {
			return nil, userErrorf("list required (use --list)")
		}
		list = lists[0]
	} else if list, err = resolveList(lists, ref); err != nil {
		return nil, err
	}

	v := view.NewDetailView(env.Service, list.ID, confirm, formatter(cfg), env.Logger)
	if err := v.Refresh(ctx); err != nil {
		notFound := v.State() == view.NotFound
		v.Close()
		if notFound {
			return nil, userErrorf("list not found: %s", ref)
		}
		return nil, err
	}
	return v, nil
}

// findTask returns the loaded task with id.
func findTask(v *view.DetailView, id service.ID) (service.Task, error) {
	t, ok := v.Store.Tasks.Find(id)
	if !ok {
		return service.Task{}, userErrorf("task not found: %s", id)
	}
	return t, nil
}
