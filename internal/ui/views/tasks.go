package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/tgienger/stask/internal/app"
	"github.com/tgienger/stask/internal/models"
	"github.com/tgienger/stask/internal/notify"
	"github.com/tgienger/stask/internal/result"
	"github.com/tgienger/stask/internal/tasklist"
	"github.com/tgienger/stask/internal/ui/keys"
	"github.com/tgienger/stask/internal/ui/styles"
)

// SnackbarTimeout is how long a notification stays on screen
const SnackbarTimeout = 5 * time.Second

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// FocusArea represents which part of the UI has focus
type FocusArea int

const (
	FocusTaskList FocusArea = iota
	FocusSearchInput
)

// Edit form fields in tab order
const (
	editFieldTitle = iota
	editFieldDesc
	editFieldSave
	editFieldCount
)

// TaskListView is the single screen of the app: the list, the editor form
// and the delete confirmation.
type TaskListView struct {
	ctx     context.Context
	session *app.Session
	styles  *styles.Styles
	keys    keys.KeyMap
	help    help.Model

	width  int
	height int

	focus       FocusArea
	cursor      int
	scrollY     int
	searchInput textinput.Model

	editTitle    textinput.Model
	editDesc     textarea.Model
	editFocusIdx int

	snackbar *notify.Notification

	showHelpPopup bool
}

// NewTaskListView creates the view over a started session
func NewTaskListView(ctx context.Context, session *app.Session) *TaskListView {
	s := styles.NewStyles()

	search := textinput.New()
	search.Placeholder = "Search..."
	search.CharLimit = 100

	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.SetWidth(50)
	editDesc.SetHeight(4)
	editDesc.ShowLineNumbers = false

	h := help.New()
	h.Styles.ShortKey = s.HelpKey
	h.Styles.ShortDesc = s.HelpDesc
	h.Styles.FullKey = s.HelpKey
	h.Styles.FullDesc = s.HelpDesc

	return &TaskListView{
		ctx:         ctx,
		session:     session,
		styles:      s,
		keys:        keys.DefaultKeyMap(),
		help:        h,
		focus:       FocusTaskList,
		searchInput: search,
		editTitle:   editTitle,
		editDesc:    editDesc,
	}
}

type stateMsg app.State

type stateClosedMsg struct{}

type notificationMsg notify.Notification

type dismissMsg struct {
	id string
}

type resultMsg struct {
	op  string
	res result.Result
}

// Init starts listening to both session streams
func (v *TaskListView) Init() tea.Cmd {
	return tea.Batch(v.waitForState, v.waitForNotification)
}

func (v *TaskListView) waitForState() tea.Msg {
	st, ok := <-v.session.Changes()
	if !ok {
		return stateClosedMsg{}
	}
	return stateMsg(st)
}

func (v *TaskListView) waitForNotification() tea.Msg {
	n, ok := <-v.session.Notifications.Events()
	if !ok {
		return nil
	}
	return notificationMsg(n)
}

// run performs a store-backed operation off the update loop
func (v *TaskListView) run(op string, fn func(context.Context) result.Result) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{op: op, res: fn(v.ctx)}
	}
}

func (v *TaskListView) list() tasklist.View {
	return v.session.Composer.View()
}

func (v *TaskListView) current() (models.Task, bool) {
	visible := v.list().Visible
	if v.cursor < 0 || v.cursor >= len(visible) {
		return models.Task{}, false
	}
	return visible[v.cursor], true
}

func (v *TaskListView) confirming() bool {
	_, single := v.session.CRUD.PendingDelete()
	return single || v.session.Bulk.HasPending()
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		inputWidth := clamp(contentWidth-10, 20, 50)
		v.editDesc.SetWidth(inputWidth)
		v.help.Width = contentWidth
		return v, nil

	case stateMsg:
		visible := msg.View.Visible
		if v.cursor >= len(visible) {
			v.cursor = max(0, len(visible)-1)
		}
		v.ensureVisible()
		return v, v.waitForState

	case stateClosedMsg:
		return v, nil

	case notificationMsg:
		n := notify.Notification(msg)
		v.snackbar = &n
		return v, tea.Batch(
			v.waitForNotification,
			tea.Tick(SnackbarTimeout, func(time.Time) tea.Msg { return dismissMsg{id: n.ID} }),
		)

	case dismissMsg:
		if v.snackbar != nil && v.snackbar.ID == msg.id {
			v.snackbar = nil
		}
		return v, nil

	case resultMsg:
		if msg.op == "save" && !v.session.Form.IsOpen() {
			v.editTitle.Blur()
			v.editDesc.Blur()
		}
		return v, nil

	case tea.KeyMsg:
		// Any key closes the help popup
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirming() {
			return v.updateConfirmDelete(msg)
		}

		if v.session.Form.IsOpen() {
			return v.updateEditing(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Don't process hotkeys while typing a query
	if v.focus == FocusSearchInput {
		switch {
		case key.Matches(msg, v.keys.Back):
			v.searchInput.Reset()
			v.searchInput.Blur()
			v.focus = FocusTaskList
			v.session.ClearSearch()
			return v, nil
		case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Tab):
			v.searchInput.Blur()
			v.focus = FocusTaskList
			return v, nil
		default:
			before := v.searchInput.Value()
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			if q := v.searchInput.Value(); q != before {
				v.cursor = 0
				v.scrollY = 0
				v.session.UpdateQuery(q)
			}
			return v, cmd
		}
	}

	selecting := v.list().SelectionMode()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.list().Visible)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Back):
		if selecting {
			v.session.ClearSelection()
		} else if v.session.Search.Query() != "" {
			v.searchInput.Reset()
			v.session.ClearSearch()
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNewTask()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit), key.Matches(msg, v.keys.Enter):
		if task, ok := v.current(); ok {
			v.startEditTask(task)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if selecting {
			return v, v.run("bulk", v.session.MarkSelectedCompleted)
		}
		if task, ok := v.current(); ok {
			return v, v.run("toggle", func(ctx context.Context) result.Result {
				return v.session.ToggleCompletion(ctx, task)
			})
		}
		return v, nil

	case key.Matches(msg, v.keys.MarkActive):
		if selecting {
			return v, v.run("bulk", v.session.MarkSelectedActive)
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if selecting {
			v.session.RequestBulkDelete()
			return v, nil
		}
		if task, ok := v.current(); ok {
			v.session.RequestDelete(task)
		}
		return v, nil

	case key.Matches(msg, v.keys.Select):
		if task, ok := v.current(); ok {
			if selecting {
				v.session.ToggleSelection(task.ID)
			} else {
				v.session.EnterSelection(task.ID)
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.SelectAll):
		v.session.SelectAllVisible()
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.focus = FocusSearchInput
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Filter):
		v.session.CycleFilter()
		v.cursor = 0
		v.scrollY = 0
		return v, nil

	case key.Matches(msg, v.keys.Sort):
		sort := v.session.Composer.Sort()
		if sort.Key == models.SortByCreatedAt {
			sort.Key = models.SortByTitle
			sort.Direction = models.Ascending
		} else {
			sort.Key = models.SortByCreatedAt
			sort.Direction = models.Descending
		}
		v.session.SetSort(sort)
		return v, nil

	case key.Matches(msg, v.keys.Direction):
		sort := v.session.Composer.Sort()
		if sort.Direction == models.Ascending {
			sort.Direction = models.Descending
		} else {
			sort.Direction = models.Ascending
		}
		v.session.SetSort(sort)
		return v, nil

	case key.Matches(msg, v.keys.Grouping):
		sort := v.session.Composer.Sort()
		sort.Grouping = (sort.Grouping + 1) % 3
		v.session.SetSort(sort)
		return v, nil

	case key.Matches(msg, v.keys.Undo):
		if v.snackbar != nil && v.snackbar.HasUndo() {
			n := *v.snackbar
			v.snackbar = nil
			return v, v.run("undo", func(ctx context.Context) result.Result {
				return v.session.Undo(ctx, n)
			})
		}
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	_, single := v.session.CRUD.PendingDelete()
	switch {
	case key.Matches(msg, v.keys.Confirm):
		if single {
			return v, v.run("delete", v.session.ConfirmDelete)
		}
		return v, v.run("delete", v.session.ConfirmBulkDelete)
	case key.Matches(msg, v.keys.Cancel):
		if single {
			v.session.CancelDelete()
		} else {
			v.session.CancelBulkDelete()
		}
	}
	return v, nil
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := v.session.Form

	switch {
	case key.Matches(msg, v.keys.Back):
		form.Close()
		v.editTitle.Blur()
		v.editDesc.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % editFieldCount
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + editFieldCount - 1) % editFieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.editFocusIdx {
		case editFieldTitle:
			v.editFocusIdx++
			v.updateEditFocus()
			return v, nil
		case editFieldSave:
			return v, v.saveTask()
		}
		// Enter in the description inserts a newline
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case editFieldTitle:
		before := v.editTitle.Value()
		v.editTitle, cmd = v.editTitle.Update(msg)
		if after := v.editTitle.Value(); after != before {
			form.SetTitle(after)
		}
	case editFieldDesc:
		before := v.editDesc.Value()
		v.editDesc, cmd = v.editDesc.Update(msg)
		if after := v.editDesc.Value(); after != before {
			form.SetDescription(after)
		}
	}
	return v, cmd
}

// saveTask submits the form when saving is allowed. A blocked save shows
// the title error inline instead.
func (v *TaskListView) saveTask() tea.Cmd {
	form := v.session.Form
	if !form.IsSaveEnabled() {
		if verr := form.Validate(); verr != nil && verr.Field == result.FieldTitle {
			form.SetTitleError(verr.Text)
		}
		return nil
	}
	return v.run("save", v.session.SaveTask)
}

func (v *TaskListView) ensureVisible() {
	// Each task item is 2 lines + 1 margin = 3 lines
	visibleItems := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

func (v *TaskListView) visibleItems() int {
	availableHeight := max(v.height-14, 3)
	return max(availableHeight/3, 1)
}

func (v *TaskListView) startNewTask() {
	v.session.StartCreate()
	v.editFocusIdx = editFieldTitle
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.updateEditFocus()
}

func (v *TaskListView) startEditTask(task models.Task) {
	v.session.StartEdit(task)
	v.editFocusIdx = editFieldTitle
	v.editTitle.SetValue(task.Title)
	v.editDesc.SetValue(task.Description)
	v.updateEditFocus()
}

func (v *TaskListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()

	switch v.editFocusIdx {
	case editFieldTitle:
		v.editTitle.Focus()
	case editFieldDesc:
		v.editDesc.Focus()
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirming() {
		return v.renderDeleteConfirm()
	}

	if v.session.Form.IsOpen() {
		return v.renderEditForm()
	}

	var b strings.Builder

	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(v.renderTaskList())

	b.WriteString("\n")
	if v.snackbar != nil {
		b.WriteString(v.renderSnackbar(*v.snackbar))
		b.WriteString("\n")
	}
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	list := v.list()
	contentWidth := styles.ContentWidth(v.width)
	isNarrow := contentWidth < 60

	searchStyle := s.Input
	if v.focus == FocusSearchInput {
		searchStyle = s.InputFocused
	}
	searchWidth := clamp(contentWidth-8, 10, 30)
	searchBox := searchStyle.Width(searchWidth).Render(v.searchInput.View())

	filterLabel := list.Filter.String()
	sortLabel := sortLabel(list.Sort)
	if !isNarrow {
		filterLabel = "Filter: " + filterLabel
		sortLabel = "Sort: " + sortLabel
	}
	filterBtn := s.Button.Render(filterLabel)
	sortBtn := s.Button.Render(sortLabel)

	title := s.Title.Render("Tasks") + " " +
		s.TitleMuted.Render(fmt.Sprintf("%d of %d", len(list.Visible), list.Total))
	if list.SelectionMode() {
		title += "  " + s.Selected.Render(fmt.Sprintf("%d selected", len(list.Selected)))
	}

	var header string
	if isNarrow {
		header = lipgloss.JoinVertical(lipgloss.Left, searchBox, filterBtn, sortBtn)
	} else {
		header = lipgloss.JoinHorizontal(lipgloss.Center, searchBox, "  ", filterBtn, "  ", sortBtn)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, header)
}

func sortLabel(sort models.TaskSort) string {
	name := "created"
	if sort.Key == models.SortByTitle {
		name = "title"
	}
	arrow := "↓"
	if sort.Direction == models.Ascending {
		arrow = "↑"
	}
	switch sort.Grouping {
	case models.GroupCompletedFirst:
		return name + " " + arrow + " · done first"
	case models.GroupCompletedLast:
		return name + " " + arrow + " · done last"
	}
	return name + " " + arrow
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles
	list := v.list()

	if len(list.Visible) == 0 {
		if list.Total == 0 {
			return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
		}
		return s.TitleMuted.Render("No matching tasks.")
	}

	var items []string
	endIdx := min(v.scrollY+v.visibleItems(), len(list.Visible))

	for i := v.scrollY; i < endIdx; i++ {
		task := list.Visible[i]
		items = append(items, v.renderTaskItem(task, i == v.cursor && v.focus == FocusTaskList, list))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(task models.Task, cursor bool, list tasklist.View) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	prefix := ""
	if list.SelectionMode() {
		if list.IsSelected(task.ID) {
			prefix = s.Marker.Render("●") + " "
		} else {
			prefix = "○ "
		}
	}

	check := "[ ] "
	title := s.TaskTitle.Render(task.Title)
	if task.IsCompleted {
		check = s.Checkbox.Render("[✓]") + " "
		title = s.TaskDone.Render(task.Title)
	}
	titleLine := prefix + check + title

	meta := humanize.Time(task.CreatedAt)
	if desc := firstLine(task.Description); desc != "" {
		meta += " · " + desc
	}
	metaLine := s.TaskMeta.Render(ansi.Truncate(meta, width-6, "…"))

	lineStyle := s.ListItem.Width(width)
	if cursor {
		lineStyle = s.ListSelected.Width(width)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lineStyle.Render(ansi.Truncate(titleLine, width-4, "…")),
		lineStyle.Render("    "+metaLine),
	) + "\n"
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (v *TaskListView) renderSnackbar(n notify.Notification) string {
	s := v.styles
	style := s.Snackbar
	switch n.Level {
	case notify.LevelWarning:
		style = s.SnackbarWarning
	case notify.LevelError:
		style = s.SnackbarError
	}
	text := n.Text
	if n.HasUndo() {
		text += "  " + s.SnackbarAction.Render("u "+n.Undo.Label)
	}
	return style.MaxWidth(styles.ContentWidth(v.width)).Render(text)
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	form := v.session.Form
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Task"
	if form.IsEditMode() {
		formTitle = "Edit Task"
	}

	titleStyle := s.Input
	descStyle := s.Input
	btnStyle := s.Button

	switch v.editFocusIdx {
	case editFieldTitle:
		titleStyle = s.InputFocused
	case editFieldDesc:
		descStyle = s.InputFocused
	case editFieldSave:
		btnStyle = s.ButtonFocused
	}
	if !form.IsSaveEnabled() {
		btnStyle = s.ButtonDisabled.BorderForeground(btnStyle.GetBorderTopForeground())
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	title, desc := form.Values()
	titleNote := s.TitleMuted.Render(fmt.Sprintf("%d/%d", len([]rune(title)), models.MaxTitleLength))
	if msg := form.TitleError(); msg != "" {
		titleNote = s.FieldError.Render(msg)
	}
	descCount := fmt.Sprintf("%d/%d", len([]rune(desc)), models.MaxDescriptionLength)
	descNote := s.TitleMuted.Render(descCount)
	if len([]rune(desc)) > models.MaxDescriptionLength {
		descNote = s.FieldError.Render(descCount)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(formTitle),
		"",
		"Title:",
		titleStyle.Width(inputWidth).Render(v.editTitle.View()),
		titleNote,
		"",
		"Description:",
		descStyle.Render(v.editDesc.View()),
		descNote,
		"",
		btnStyle.Render(" Save "),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderHelp() string {
	if v.list().SelectionMode() {
		return v.styles.Help.Render(v.help.ShortHelpView(v.keys.SelectionHelp()))
	}
	return v.styles.Help.Render(v.help.ShortHelpView(v.keys.ShortHelp()))
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Keys"),
		"",
		v.help.FullHelpView(v.keys.FullHelp()),
		"",
		s.TitleMuted.Render("Press any key to close"),
	)

	box := s.FilterBar.Render(content)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		box,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	var heading string
	var names []string
	if task, ok := v.session.CRUD.PendingDelete(); ok {
		heading = "Delete Task?"
		names = []string{task.Title}
	} else {
		pending := v.session.Bulk.Pending()
		heading = fmt.Sprintf("Delete %d Tasks?", len(pending))
		if len(pending) == 1 {
			heading = "Delete 1 Task?"
		}
		for i, task := range pending {
			if i == 5 {
				names = append(names, fmt.Sprintf("and %d more", len(pending)-i))
				break
			}
			names = append(names, task.Title)
		}
	}

	lines := []string{s.Danger.Render(heading), ""}
	for _, name := range names {
		lines = append(lines, s.TitleMuted.Render("  "+ansi.Truncate(name, contentWidth-10, "…")))
	}
	lines = append(lines, "", "You can undo this from the notification.", "",
		s.HelpKey.Render("y")+" delete  "+s.HelpKey.Render("n")+" cancel")

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}
