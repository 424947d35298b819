// Package render turns conversation and search state into terminal text.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/list"
	"github.com/charmbracelet/x/ansi"

	"lexshell/internal/conversation"
	"lexshell/internal/logger"
	"lexshell/internal/services"
	"lexshell/pkg/lextypes"
)

// DefaultWidth is used when no width is configured.
const DefaultWidth = 80

// Markdown renders markdown for the terminal. *services.MarkdownService satisfies it.
type Markdown interface {
	Render(markdown string) (string, error)
}

// Renderer formats lexshell state with a theme.
type Renderer struct {
	theme *services.Theme
	md    Markdown
	width int
}

// New creates a Renderer. A nil theme renders unstyled; a nil md prints markdown as wrapped text.
func New(theme *services.Theme, md Markdown, width int) *Renderer {
	if theme == nil {
		theme = services.PlainTheme()
	}
	if width <= 0 {
		width = DefaultWidth
	}
	return &Renderer{theme: theme, md: md, width: width}
}

// Theme returns the active theme.
func (r *Renderer) Theme() *services.Theme {
	return r.theme
}

// Markdown renders body through the markdown renderer, falling back to wrapped text.
func (r *Renderer) Markdown(body string) string {
	if r.md != nil {
		out, err := r.md.Render(body)
		if err == nil {
			return strings.TrimRight(out, "\n")
		}
		logger.Debug("Markdown rendering failed, printing raw text", "error", err)
	}
	return ansi.Wordwrap(strings.TrimSpace(body), r.width, "")
}

// Message formats one transcript entry.
func (r *Renderer) Message(m conversation.Message) string {
	stamp := r.theme.Meta.Render(m.Timestamp.Format("15:04"))
	if m.Role == lextypes.RoleUser {
		return fmt.Sprintf("%s %s\n%s", r.theme.User.Render("You"), stamp, ansi.Wordwrap(m.Content, r.width, ""))
	}

	header := fmt.Sprintf("%s %s", r.theme.Assistant.Render("Assistant"), stamp)
	switch m.Status {
	case conversation.StatusPending:
		return header + "\n" + r.theme.Muted.Render("Thinking...")
	case conversation.StatusFailed:
		return header + "\n" + r.theme.Error.Render(m.Content)
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(r.Markdown(m.Content))
	if m.Response != nil {
		if s := r.Suggestions(m.Response); s != "" {
			b.WriteString("\n\n")
			b.WriteString(s)
		}
	}
	return b.String()
}

// Transcript formats every entry separated by blank lines.
func (r *Renderer) Transcript(messages []conversation.Message) string {
	if len(messages) == 0 {
		return r.theme.Muted.Render("No messages yet. Ask a question to start a conversation.")
	}
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, r.Message(m))
	}
	return strings.Join(parts, "\n\n")
}

// Suggestions formats the numbered follow-up questions and smart actions of a reply.
func (r *Renderer) Suggestions(resp *lextypes.AIResponse) string {
	var sections []string
	if len(resp.FollowUpQuestions) > 0 {
		items := make([]any, 0, len(resp.FollowUpQuestions))
		for _, q := range resp.FollowUpQuestions {
			items = append(items, q.Text)
		}
		sections = append(sections, r.theme.Title.Render("Follow-up questions")+r.theme.Muted.Render(" (\\follow <n>)")+"\n"+
			r.theme.CreateList(items...).Enumerator(list.Arabic).String())
	}
	if len(resp.SmartActions) > 0 {
		items := make([]any, 0, len(resp.SmartActions))
		for _, a := range resp.SmartActions {
			label := a.Title
			if label == "" {
				label = a.Action
			}
			if a.Description != "" {
				label += " " + r.theme.Muted.Render("- "+a.Description)
			}
			items = append(items, label)
		}
		sections = append(sections, r.theme.Title.Render("Suggested actions")+r.theme.Muted.Render(" (\\act <n>)")+"\n"+
			r.theme.CreateList(items...).Enumerator(list.Arabic).String())
	}
	return strings.Join(sections, "\n\n")
}

// Results formats a search result page with the active filters.
func (r *Renderer) Results(results lextypes.SearchResults, count int, params lextypes.SearchParams) string {
	var b strings.Builder

	total := count
	if total < len(results.Results) {
		total = len(results.Results)
	}
	heading := fmt.Sprintf("%d results", total)
	if total == 1 {
		heading = "1 result"
	}
	if params.Query != "" {
		heading += fmt.Sprintf(" for %q", params.Query)
	}
	b.WriteString(r.theme.Title.Render(heading))

	if chips := r.FilterChips(params); chips != "" {
		b.WriteString("\n")
		b.WriteString(chips)
	}

	if len(results.Results) == 0 {
		b.WriteString("\n")
		b.WriteString(r.theme.Muted.Render("No past questions matched. Try different keywords or clear filters."))
		return b.String()
	}

	for _, item := range results.Results {
		b.WriteString("\n\n")
		b.WriteString(r.ResultItem(item))
	}
	return b.String()
}

// ResultItem formats a single result as a meta line and a one-line preview.
func (r *Renderer) ResultItem(item lextypes.SearchResultItem) string {
	meta := []string{r.theme.Highlight.Render("#" + item.ID.String())}
	if item.Course != nil && item.Course.Code != "" {
		meta = append(meta, item.Course.Code)
	}
	for _, v := range []string{item.Year.String(), item.ExamType, strings.ToUpper(item.Type)} {
		if v != "" {
			meta = append(meta, r.theme.Meta.Render(v))
		}
	}
	if item.Institution != nil && item.Institution.Name != "" {
		meta = append(meta, r.theme.Meta.Render(item.Institution.Name))
	}

	line := strings.Join(meta, "  ")
	preview := Preview(item.Text, r.width-2)
	out := line + "\n  " + preview
	if tags := r.tagList(item.Tags); tags != "" {
		out += "\n  " + tags
	}
	return out
}

// Detail formats the detail view of a past question.
func (r *Renderer) Detail(d *lextypes.PastQuestionDetail) string {
	if d == nil {
		return r.theme.Muted.Render("No question selected.")
	}

	var b strings.Builder
	title := "Question #" + d.ID.String()
	if d.Course != nil {
		title += " - " + strings.TrimSpace(d.Course.Code+" "+d.Course.Name)
	}
	b.WriteString(r.theme.Title.Render(title))

	var meta []string
	add := func(label, value string) {
		if value != "" {
			meta = append(meta, label+": "+value)
		}
	}
	if d.Institution != nil {
		add("Institution", d.Institution.Name)
	}
	add("Year", d.Year.String())
	add("Semester", d.Semester.String())
	add("Session", d.Session.String())
	add("Exam", d.ExamType)
	add("Type", strings.ToUpper(d.Type))
	if d.ViewsCount > 0 {
		add("Views", fmt.Sprint(d.ViewsCount))
	}
	if len(meta) > 0 {
		b.WriteString("\n")
		b.WriteString(r.theme.Meta.Render(strings.Join(meta, "  |  ")))
	}
	if tags := r.tagList(d.Tags); tags != "" {
		b.WriteString("\n")
		b.WriteString(tags)
	}

	b.WriteString("\n\n")
	b.WriteString(r.Markdown(d.Text))

	if strings.TrimSpace(d.AIOverview) != "" {
		b.WriteString("\n\n")
		b.WriteString(r.theme.Title.Render("AI overview"))
		b.WriteString("\n")
		b.WriteString(r.Markdown(d.AIOverview))
	}
	return b.String()
}

// Facets formats the options of one facet with their counts.
func (r *Renderer) Facets(key lextypes.FilterKey, options []lextypes.FilterOption, active string) string {
	heading := r.theme.Title.Render(string(key))
	if len(options) == 0 {
		return heading + "\n" + r.theme.Muted.Render("No options.")
	}
	selected := make(map[string]bool)
	for _, v := range strings.Split(active, ",") {
		if v != "" {
			selected[v] = true
		}
	}

	items := make([]any, 0, len(options))
	for _, o := range options {
		label := o.Display()
		if o.Key() != label {
			label += " " + r.theme.Meta.Render("["+o.Key()+"]")
		}
		if o.Count > 0 {
			label += " " + r.theme.Meta.Render(fmt.Sprintf("(%d)", o.Count))
		}
		if selected[o.Key()] {
			label = r.theme.Success.Render("✓ ") + label
		}
		items = append(items, label)
	}
	return heading + "\n" + r.theme.CreateList(items...).String()
}

// FilterChips formats the active filters as key=value chips.
func (r *Renderer) FilterChips(params lextypes.SearchParams) string {
	var chips []string
	for _, key := range lextypes.FilterKeys {
		if v := params.Get(key); v != "" {
			chips = append(chips, r.theme.Tag.Render(fmt.Sprintf("[%s=%s]", key, v)))
		}
	}
	return strings.Join(chips, " ")
}

// Status formats the UI state line.
func (r *Renderer) Status(state lextypes.UIActionState) string {
	parts := []string{"mode: " + string(state.Action)}
	if state.SearchQuery != "" {
		parts = append(parts, fmt.Sprintf("query: %q", state.SearchQuery))
	}
	if state.IsLoading {
		parts = append(parts, "loading")
	}
	return r.theme.Meta.Render(strings.Join(parts, "  "))
}

// Error formats an error for display. API errors show their message and status.
func (r *Renderer) Error(err error) string {
	var apiErr *lextypes.APIError
	if errors.As(err, &apiErr) {
		msg := "Error: " + apiErr.Message
		if apiErr.Status != 0 {
			msg += r.theme.Meta.Render(fmt.Sprintf(" (status %d)", apiErr.Status))
		}
		return r.theme.Error.Render(msg)
	}
	return r.theme.Error.Render("Error: " + err.Error())
}

// Info formats an informational line.
func (r *Renderer) Info(msg string) string {
	return r.theme.Info.Render(msg)
}

// Success formats a confirmation line.
func (r *Renderer) Success(msg string) string {
	return r.theme.Success.Render(msg)
}

func (r *Renderer) tagList(tags []lextypes.TagRef) string {
	if len(tags) == 0 {
		return ""
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, r.theme.Tag.Render("#"+t.Name))
	}
	return strings.Join(names, " ")
}
