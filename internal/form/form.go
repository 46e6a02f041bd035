// Package form holds the title/description fields of the task editor.
package form

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tgienger/stask/internal/models"
	"github.com/tgienger/stask/internal/result"
)

var validate = validator.New()

// fields is validated after trimming. The max tags match
// models.MaxTitleLength and models.MaxDescriptionLength.
type fields struct {
	Title       string `validate:"required,max=100"`
	Description string `validate:"max=500"`
}

// Form is the editor state. A nil selected id means create mode.
type Form struct {
	mu sync.Mutex

	open           bool
	title          string
	description    string
	selectedTaskID *int64

	originalTitle       string
	originalDescription string

	titleError string
}

// New creates a closed form
func New() *Form {
	return &Form{}
}

// StartCreate opens an empty form in create mode
func (f *Form) StartCreate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
	f.open = true
}

// StartEdit opens the form in edit mode for task and captures its current
// values for change detection.
func (f *Form) StartEdit(task models.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
	id := task.ID
	f.open = true
	f.selectedTaskID = &id
	f.title = task.Title
	f.description = task.Description
	f.originalTitle = strings.TrimSpace(task.Title)
	f.originalDescription = strings.TrimSpace(task.Description)
}

// Close discards all form state
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

// SetTitle replaces the title under edit and clears any inline error
func (f *Form) SetTitle(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.title = title
	f.titleError = ""
}

// SetDescription replaces the description under edit
func (f *Form) SetDescription(description string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.description = description
}

// SetTitleError shows an inline error under the title field
func (f *Form) SetTitleError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titleError = msg
}

func (f *Form) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *Form) Title() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title
}

func (f *Form) Description() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.description
}

func (f *Form) TitleError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.titleError
}

// SelectedTaskID returns the id being edited, or false in create mode
func (f *Form) SelectedTaskID() (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selectedTaskID == nil {
		return 0, false
	}
	return *f.selectedTaskID, true
}

// IsEditMode reports whether an existing task is being edited
func (f *Form) IsEditMode() bool {
	_, ok := f.SelectedTaskID()
	return ok
}

// Values returns the trimmed title and description
func (f *Form) Values() (title, description string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.TrimSpace(f.title), strings.TrimSpace(f.description)
}

// Validate checks both fields and returns a ValidationError naming the
// first failing field.
func (f *Form) Validate() *result.ValidationError {
	title, description := f.Values()
	return check(title, description)
}

// IsTitleValid reports whether the trimmed title is non-empty and short enough
func (f *Form) IsTitleValid() bool {
	title, _ := f.Values()
	return check(title, "") == nil
}

// HasChanges reports whether saving would do anything. In create mode that
// means a non-blank title; in edit mode a trimmed field differs from the
// values captured at StartEdit.
func (f *Form) HasChanges() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	title := strings.TrimSpace(f.title)
	description := strings.TrimSpace(f.description)
	if f.selectedTaskID == nil {
		return title != ""
	}
	return title != f.originalTitle || description != f.originalDescription
}

// IsSaveEnabled gates the save action on a valid title and real changes
func (f *Form) IsSaveEnabled() bool {
	return f.IsTitleValid() && f.HasChanges()
}

func (f *Form) resetLocked() {
	f.open = false
	f.title = ""
	f.description = ""
	f.selectedTaskID = nil
	f.originalTitle = ""
	f.originalDescription = ""
	f.titleError = ""
}

// check validates already trimmed values
func check(title, description string) *result.ValidationError {
	err := validate.Struct(fields{Title: title, Description: description})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return result.Invalid("Invalid task: %v", err)
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Title" && fe.Tag() == "required":
		return result.InvalidField(result.FieldTitle, "Title cannot be empty")
	case fe.Field() == "Title":
		return result.InvalidField(result.FieldTitle, "Title must be at most 100 characters")
	default:
		return result.InvalidField(result.FieldDescription, "Description must be at most 500 characters")
	}
}

// Check validates a title and description the way the form does
func Check(title, description string) *result.ValidationError {
	return check(strings.TrimSpace(title), strings.TrimSpace(description))
}

