package publish

import (
	"bytes"
	"fmt"
	"strings"

	"tasktree-cli/internal/model"
	"tasktree-cli/internal/statusutil"
)

type RenderOptions struct {
	Title string
	// IncludeDescriptions nests each description under its task line.
	IncludeDescriptions bool
}

// RenderMarkdown writes tasks as a nested GFM task list. Tasks in the terminal
// state are checked; others show their state in brackets.
func RenderMarkdown(meta model.Metadata, tasks []model.Task, opt RenderOptions) string {
	var buf bytes.Buffer
	title := strings.TrimSpace(opt.Title)
	if title == "" {
		title = "Tasks"
	}
	buf.WriteString("# " + title + "\n\n")
	if len(tasks) == 0 {
		buf.WriteString("_No tasks._\n")
		return buf.String()
	}
	for _, t := range tasks {
		writeTask(&buf, meta, t, 0, opt)
	}
	return buf.String()
}

func writeTask(buf *bytes.Buffer, meta model.Metadata, t model.Task, depth int, opt RenderOptions) {
	indent := strings.Repeat("  ", depth)
	box := "[ ]"
	if statusutil.IsTerminal(meta, t.State) {
		box = "[x]"
	}

	line := fmt.Sprintf("%s- %s %s", indent, box, escapeInline(t.Name))
	var tags []string
	if !statusutil.IsTerminal(meta, t.State) && t.State != meta.InitialState() {
		tags = append(tags, "*"+t.State+"*")
	}
	if p := model.FormatPriority(t.Priority); p != "" {
		tags = append(tags, "**"+strings.ReplaceAll(p, "!", `\!`)+"**")
	}
	if t.Group != nil && *t.Group != "" {
		tags = append(tags, "`@"+*t.Group+"`")
	}
	if t.DueDate != nil && *t.DueDate != "" {
		tags = append(tags, "due "+*t.DueDate)
	}
	if len(tags) > 0 {
		line += " " + strings.Join(tags, " ")
	}
	buf.WriteString(line + "\n")

	if opt.IncludeDescriptions && t.Description != nil && strings.TrimSpace(*t.Description) != "" {
		for _, ln := range strings.Split(strings.TrimSpace(*t.Description), "\n") {
			buf.WriteString(indent + "  > " + ln + "\n")
		}
	}
	for _, c := range t.Subtasks {
		writeTask(buf, meta, c, depth+1, opt)
	}
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
)

func escapeInline(s string) string {
	return inlineEscaper.Replace(strings.TrimSpace(s))
}
