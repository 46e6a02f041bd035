package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/stask/internal/app"
	"github.com/tgienger/stask/internal/ui/views"
)

// App is the root bubbletea model
type App struct {
	taskList *views.TaskListView
}

// NewApp creates the application over a started session
func NewApp(ctx context.Context, session *app.Session) *App {
	return &App{
		taskList: views.NewTaskListView(ctx, session),
	}
}

func (a *App) Init() tea.Cmd {
	return a.taskList.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// ctrl+c quits from any mode, including while typing
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}
	_, cmd := a.taskList.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	return a.taskList.View()
}
