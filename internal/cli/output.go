package cli

import (
	"fmt"
	"io"
	"time"

	domain "github.com/CodeineSolm/taskmaster/domain/task"
	"github.com/bytedance/sonic"
)

const timeLayout = "2006-01-02 15:04"

// output renders command results as text or JSON.
type output struct {
	format string
	w      io.Writer
}

func newOutput(format string, w io.Writer) *output {
	return &output{format: format, w: w}
}

func (o *output) json(v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(o.w, "%s\n", data)
	return err
}

func (o *output) list(views []domain.View) error {
	if o.format == "json" {
		if views == nil {
			views = []domain.View{}
		}
		return o.json(views)
	}

	active, completed := domain.Counts(views)
	fmt.Fprintf(o.w, "%d active, %d completed\n", active, completed)
	if len(views) == 0 {
		fmt.Fprintln(o.w, "No tasks yet.")
		return nil
	}
	for _, v := range views {
		if err := o.line(v); err != nil {
			return err
		}
	}
	return nil
}

// line prints a one-line summary with the description indented below.
func (o *output) line(v domain.View) error {
	if o.format == "json" {
		return o.json(v)
	}

	mark := " "
	if v.IsCompleted {
		mark = "x"
	}
	fmt.Fprintf(o.w, "[%s] #%d %s\n", mark, v.ID, v.Title)
	if v.Description != nil && *v.Description != "" {
		fmt.Fprintf(o.w, "      %s\n", *v.Description)
	}
	return nil
}

func (o *output) created(v domain.View) error {
	if o.format == "json" {
		return o.json(v)
	}
	fmt.Fprintf(o.w, "Created task %d: %s\n", v.ID, v.Title)
	return nil
}

func (o *output) task(v domain.View) error {
	if o.format == "json" {
		return o.json(v)
	}

	description := "-"
	if v.Description != nil {
		description = *v.Description
	}
	status := "open"
	if v.IsCompleted {
		status = "done"
	}

	fmt.Fprintf(o.w, "ID:          %d\n", v.ID)
	fmt.Fprintf(o.w, "Title:       %s\n", v.Title)
	fmt.Fprintf(o.w, "Description: %s\n", description)
	fmt.Fprintf(o.w, "Status:      %s\n", status)
	fmt.Fprintf(o.w, "Created:     %s\n", formatTime(&v.CreatedAt))
	fmt.Fprintf(o.w, "Updated:     %s\n", formatTime(v.UpdatedAt))
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(timeLayout)
}
