package planeditor

import (
	"academy/internal/domain/association"
	"academy/internal/domain/course"
)

// Row is one rendered course in a list.
type Row struct {
	course.Course
	Selected bool
}

// ListView is one filtered side of the editor.
type ListView struct {
	Name   association.List
	Filter string
	Rows   []Row
	Total  int // size of the list before filtering

	// SelectedIDs holds every selected id of the list, including rows hidden by the filter.
	SelectedIDs []string
}

// Count returns the number of rows shown after filtering.
func (l ListView) Count() int {
	return len(l.Rows)
}

// Empty reports whether nothing is shown.
func (l ListView) Empty() bool {
	return len(l.Rows) == 0
}

// View is the render model of the editor.
type View struct {
	PlanID    string
	Status    Status
	Available ListView
	Linked    ListView
	Diff      association.Diff
	Dirty     bool
}

// Added returns the number of pending additions.
func (v View) Added() int {
	return len(v.Diff.Add)
}

// Removed returns the number of pending removals.
func (v View) Removed() int {
	return len(v.Diff.Remove)
}

// View builds the render model with the given filters applied. Filters never modify state.
func (e *Editor) View(filterAvailable, filterLinked string) View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{PlanID: e.planID, Status: e.status}
	if e.ready() != nil {
		return v
	}
	v.Available = e.listView(association.Available, filterAvailable)
	v.Linked = e.listView(association.Linked, filterLinked)
	v.Diff = e.state.Diff()
	v.Dirty = !v.Diff.IsEmpty()
	return v
}

func (e *Editor) listView(l association.List, filter string) ListView {
	courses := e.state.Filter(l, filter)
	rows := make([]Row, len(courses))
	for i, c := range courses {
		rows[i] = Row{Course: c, Selected: e.state.IsSelected(l, c.ID)}
	}
	return ListView{Name: l, Filter: filter, Rows: rows, Total: e.state.Len(l), SelectedIDs: e.state.Selected(l)}
}
