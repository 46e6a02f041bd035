package tasklist

import (
	"sync"

	"github.com/tgienger/stask/internal/models"
)

// Inputs is everything the visible list is derived from
type Inputs struct {
	Tasks    []models.Task
	Query    string
	Filter   models.StatusFilter
	Sort     models.TaskSort
	Selected map[int64]struct{}
}

// View is the derived list state handed to the renderer
type View struct {
	Visible  []models.Task
	Total    int
	Query    string
	Filter   models.StatusFilter
	Sort     models.TaskSort
	Selected map[int64]struct{}
}

// SelectionMode reports whether any task is selected
func (v View) SelectionMode() bool {
	return len(v.Selected) > 0
}

// IsSelected reports whether id is in the selection
func (v View) IsSelected(id int64) bool {
	_, ok := v.Selected[id]
	return ok
}

// Derive computes the view. Status filter runs first, then search, then sort.
// Grouping in the sort therefore only sees tasks that survived both filters.
func Derive(in Inputs) View {
	visible := FilterByStatus(in.Tasks, in.Filter)
	visible = FilterBySearch(visible, in.Query)
	visible = SortTasks(visible, in.Sort)
	return View{
		Visible:  visible,
		Total:    len(in.Tasks),
		Query:    in.Query,
		Filter:   in.Filter,
		Sort:     in.Sort,
		Selected: in.Selected,
	}
}

// Composer keeps the latest value of each input and recomputes the view
// whenever one of them changes.
type Composer struct {
	mu        sync.Mutex
	in        Inputs
	view      View
	listeners []func(View)
}

// NewComposer creates a composer with an initial filter and sort
func NewComposer(filter models.StatusFilter, sort models.TaskSort) *Composer {
	c := &Composer{in: Inputs{Filter: filter, Sort: sort}}
	c.view = Derive(c.in)
	return c
}

// Subscribe registers fn to receive every recomputed view
func (c *Composer) Subscribe(fn func(View)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// SetTasks replaces the task snapshot
func (c *Composer) SetTasks(tasks []models.Task) {
	c.update(func(in *Inputs) { in.Tasks = tasks })
}

// SetQuery replaces the debounced search query
func (c *Composer) SetQuery(q string) {
	c.update(func(in *Inputs) { in.Query = q })
}

// SetFilter replaces the status filter
func (c *Composer) SetFilter(f models.StatusFilter) {
	c.update(func(in *Inputs) { in.Filter = f })
}

// SetSort replaces the sort order
func (c *Composer) SetSort(s models.TaskSort) {
	c.update(func(in *Inputs) { in.Sort = s })
}

// SetSelection replaces the selected id set
func (c *Composer) SetSelection(ids []int64) {
	selected := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}
	c.update(func(in *Inputs) { in.Selected = selected })
}

// View returns the latest derived view
func (c *Composer) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Tasks returns the latest full task snapshot
func (c *Composer) Tasks() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.in.Tasks
}

// Filter returns the current status filter
func (c *Composer) Filter() models.StatusFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.in.Filter
}

// Sort returns the current sort order
func (c *Composer) Sort() models.TaskSort {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.in.Sort
}

func (c *Composer) update(mutate func(*Inputs)) {
	c.mu.Lock()
	mutate(&c.in)
	c.view = Derive(c.in)
	view := c.view
	listeners := append([]func(View){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(view)
	}
}
