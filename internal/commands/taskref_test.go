package commands

import (
	"errors"
	"testing"

	"tasktracker/internal/service"
)

func TestParseTaskRef(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		listFlag string
		want     TaskRef
		rest     int
	}{
		{"slash form", []string{"3/7"}, "", TaskRef{List: "3", Task: "7"}, 0},
		{"slash form with title", []string{"Groceries/12"}, "", TaskRef{List: "Groceries", Task: "12"}, 0},
		{"last slash splits", []string{"a/b/5"}, "", TaskRef{List: "a/b", Task: "5"}, 0},
		{"two args", []string{"Home", "4"}, "", TaskRef{List: "Home", Task: "4"}, 0},
		{"list flag", []string{"4"}, "Home", TaskRef{List: "Home", Task: "4"}, 0},
		{"extra args kept", []string{"Home/4", "x"}, "", TaskRef{List: "Home", Task: "4"}, 1},
		{"uuid task", []string{"Home/3f2a-11"}, "", TaskRef{List: "Home", Task: service.ID("3f2a-11")}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, rest, err := ParseTaskRef(tt.args, tt.listFlag)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ref != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, ref)
			}
			if len(rest) != tt.rest {
				t.Errorf("expected %d remaining args, got %d", tt.rest, len(rest))
			}
		})
	}
}

func TestParseTaskRef_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		listFlag string
		expected string
	}{
		{"missing list", []string{"/7"}, "", "invalid task reference: /7"},
		{"missing task", []string{"Home/"}, "", "invalid task reference: Home/"},
		{"both forms", []string{"Home/7"}, "Work", "cannot use both --list and list/task"},
		{"task alone", []string{"7"}, "", "task reference required"},
		{"blank second arg", []string{"Home", " "}, "", "invalid task reference: Home  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseTaskRef(tt.args, tt.listFlag)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, err.Error())
			}
		})
	}
}

func TestParseTaskRef_Empty(t *testing.T) {
	_, _, err := ParseTaskRef(nil, "")
	if !errors.Is(err, ErrTaskRefRequired) {
		t.Errorf("expected ErrTaskRefRequired, got %v", err)
	}
}

func TestParseTaskRefRejectsExtraArgs(t *testing.T) {
	_, err := parseTaskRef([]string{"Home/4", "extra"}, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "unexpected argument: extra" {
		t.Errorf("expected %q, got %q", "unexpected argument: extra", err.Error())
	}
	var ue *userError
	if !errors.As(err, &ue) {
		t.Error("expected a user error")
	}
}

func TestResolveList(t *testing.T) {
	lists := []service.TaskList{
		{ID: "1", Title: "Home"},
		{ID: "2", Title: "Work "},
		{ID: "3", Title: "2"},
		{ID: "4", Title: "dup"},
		{ID: "5", Title: "Dup"},
	}

	tests := []struct {
		ref     string
		want    service.ID
		wantErr string
	}{
		{"1", "1", ""},
		{"home", "1", ""},
		{" work", "2", ""},
		{"2", "2", ""},
		{"dup", "", "ambiguous list name: dup"},
		{"Garden", "", "list not found: Garden"},
		{"", "", "list required"},
	}
	for _, tt := range tests {
		got, err := resolveList(lists, tt.ref)
		if tt.wantErr != "" {
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("resolveList(%q): expected error %q, got %v", tt.ref, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("resolveList(%q): unexpected error: %v", tt.ref, err)
			continue
		}
		if got.ID != tt.want {
			t.Errorf("resolveList(%q): expected id %s, got %s", tt.ref, tt.want, got.ID)
		}
	}
}
