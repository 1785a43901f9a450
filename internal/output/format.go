// Package output provides formatters for task lists and tasks, shared by the
// CLI and the TUI.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tasktracker/internal/form"
	"tasktracker/internal/service"
	"tasktracker/internal/store"
)

const (
	// PreviewTasks is how many tasks a list card previews.
	PreviewTasks = 3

	// ProgressWidth is the width of the card progress bar in cells.
	ProgressWidth = 20
)

// Styles decorates formatted text. The zero value renders plain text.
type Styles struct {
	Title  lipgloss.Style
	Muted  lipgloss.Style
	Closed lipgloss.Style
	Error  lipgloss.Style
	Accent lipgloss.Style
	High   lipgloss.Style
}

// ColorStyles returns the styles used on a terminal.
func ColorStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Closed: lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("245")),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Accent: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		High:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
}

// Formatter writes task lists and tasks.
type Formatter struct {
	Styles Styles

	// DateLayout formats due dates. Empty means 01/02/2006.
	DateLayout string
}

// New creates a Formatter.
func New(styles Styles, dateLayout string) Formatter {
	return Formatter{Styles: styles, DateLayout: dateLayout}
}

// Plain returns an unstyled Formatter.
func Plain(dateLayout string) Formatter {
	return New(Styles{}, dateLayout)
}

// Dashboard writes every list as a card.
func (f Formatter) Dashboard(w io.Writer, lists []service.TaskList) {
	if len(lists) == 0 {
		fmt.Fprintln(w, f.Styles.Muted.Render("No task lists yet"))
		return
	}
	for i, l := range lists {
		if i > 0 {
			fmt.Fprintln(w)
		}
		f.ListCard(w, l)
	}
}

// ListCard writes one list summary: title, description, count, progress and
// a preview of its first tasks.
func (f Formatter) ListCard(w io.Writer, l service.TaskList) {
	fmt.Fprintf(w, "%s %s\n", f.Styles.Muted.Render("["+l.ID.String()+"]"), f.Styles.Title.Render(normalizeTitle(l.Title)))
	if d := normalizeText(l.Description); d != "" {
		fmt.Fprintf(w, "    %s\n", f.Styles.Muted.Render(d))
	}
	fmt.Fprintf(w, "    %s / %d%% complete\n", TaskCount(l.Count), l.PercentComplete())
	fmt.Fprintf(w, "    %s\n", f.Styles.Accent.Render(ProgressBar(l.Progress, ProgressWidth)))

	for i, t := range l.Tasks {
		if i == PreviewTasks {
			fmt.Fprintf(w, "    %s\n", f.Styles.Muted.Render(fmt.Sprintf("+%d more tasks", len(l.Tasks)-PreviewTasks)))
			break
		}
		fmt.Fprintf(w, "    %s %s\n", checkbox(t.Status), f.taskTitle(t))
	}
}

// Detail writes a list header followed by the tasks matching filter.
func (f Formatter) Detail(w io.Writer, l service.TaskList, tasks []service.Task, filter store.Filter) {
	shown := store.FilterTasks(tasks, filter)
	f.DetailHeader(w, l, len(shown), len(tasks), filter)

	if len(shown) == 0 {
		fmt.Fprintln(w, f.Styles.Muted.Render(EmptyTasksMessage(filter)))
		return
	}
	for _, t := range shown {
		fmt.Fprintln(w, f.TaskRow(t))
	}
}

// DetailHeader writes the list title, description and the filtered count,
// followed by a blank line.
func (f Formatter) DetailHeader(w io.Writer, l service.TaskList, shown, total int, filter store.Filter) {
	fmt.Fprintf(w, "%s %s\n", f.Styles.Muted.Render("["+l.ID.String()+"]"), f.Styles.Title.Render(normalizeTitle(l.Title)))
	if d := normalizeText(l.Description); d != "" {
		fmt.Fprintln(w, f.Styles.Muted.Render(d))
	}
	fmt.Fprintln(w, f.Styles.Muted.Render(fmt.Sprintf("%d of %d tasks (%s)", shown, total, strings.ToLower(string(filter)))))
	fmt.Fprintln(w)
}

// TaskRow formats one task line without a trailing newline.
func (f Formatter) TaskRow(t service.Task) string {
	parts := []string{checkbox(t.Status), f.taskTitle(t), f.priority(t.Priority)}
	if due := form.DisplayDate(t.DueDate, f.DateLayout); due != "" {
		parts = append(parts, f.Styles.Muted.Render("due "+due))
	}
	parts = append(parts, f.Styles.Muted.Render("#"+t.ID.String()))
	return strings.Join(parts, "  ")
}

// TaskDetail writes every field of one task.
func (f Formatter) TaskDetail(w io.Writer, t service.Task) {
	fmt.Fprintf(w, "%s %s\n", f.Styles.Muted.Render("#"+t.ID.String()), f.Styles.Title.Render(normalizeTitle(t.Title)))
	if d := normalizeText(t.Description); d != "" {
		fmt.Fprintf(w, "    %s\n", d)
	}
	fmt.Fprintf(w, "    status:   %s\n", t.Status)
	fmt.Fprintf(w, "    priority: %s\n", t.Priority)
	if due := form.DisplayDate(t.DueDate, f.DateLayout); due != "" {
		fmt.Fprintf(w, "    due:      %s\n", due)
	}
}

// Error writes an action error banner.
func (f Formatter) Error(w io.Writer, msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintln(w, f.Styles.Error.Render("! "+msg))
}

// NotFound writes the terminal view for a missing list.
func (f Formatter) NotFound(w io.Writer) {
	fmt.Fprintln(w, f.Styles.Title.Render("Task list not found"))
	fmt.Fprintln(w, f.Styles.Muted.Render("Back to Dashboard"))
}

func (f Formatter) taskTitle(t service.Task) string {
	title := normalizeTitle(t.Title)
	if t.Status == service.StatusClosed {
		return f.Styles.Closed.Render(title)
	}
	return title
}

func (f Formatter) priority(p service.Priority) string {
	if p == service.PriorityHigh {
		return f.Styles.High.Render(string(p))
	}
	return f.Styles.Muted.Render(string(p))
}

// EmptyTasksMessage is shown when no task matches filter.
func EmptyTasksMessage(filter store.Filter) string {
	if filter == store.FilterAll || filter == "" {
		return "No tasks yet"
	}
	return fmt.Sprintf("No %s tasks", strings.ToLower(string(filter)))
}

// TaskCount formats a task count.
func TaskCount(n int) string {
	if n == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", n)
}

// ProgressBar renders progress in [0,1] as a bar of width cells.
func ProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func checkbox(s service.Status) string {
	if s == service.StatusClosed {
		return "[x]"
	}
	return "[ ]"
}

// normalizeTitle normalizes a title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = normalizeText(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
