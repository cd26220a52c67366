package association

import (
	"errors"
	"sort"
	"strings"

	"academy/internal/domain/course"
)

// List names one side of the two-list editor.
type List string

// List constants
const (
	Available List = "available"
	Linked    List = "linked"
)

// ErrUnknownList is returned when a list name is neither available nor linked.
var ErrUnknownList = errors.New("list must be 'available' or 'linked'")

// ParseList converts a list name (or its one-letter short form) to a List.
// PRE: none
// POST: Returns the List or ErrUnknownList
func ParseList(s string) (List, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "available", "a":
		return Available, nil
	case "linked", "l":
		return Linked, nil
	}
	return "", ErrUnknownList
}

// Diff is the pending change between the baseline and the current linked set.
// It doubles as the wire payload for applying the change.
type Diff struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

// IsEmpty reports whether the diff carries no changes.
func (d Diff) IsEmpty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// courseSet is an insertion-ordered set of courses keyed by ID.
type courseSet struct {
	order []string
	byID  map[string]course.Course
}

func newCourseSet() *courseSet {
	return &courseSet{byID: make(map[string]course.Course)}
}

func (s *courseSet) add(c course.Course) {
	if _, ok := s.byID[c.ID]; ok {
		return
	}
	s.byID[c.ID] = c
	s.order = append(s.order, c.ID)
}

func (s *courseSet) has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// removeAll removes the given ids and returns the removed courses in set order.
func (s *courseSet) removeAll(ids map[string]struct{}) []course.Course {
	var removed []course.Course
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := ids[id]; ok {
			removed = append(removed, s.byID[id])
			delete(s.byID, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

func (s *courseSet) list() []course.Course {
	out := make([]course.Course, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id]
	}
	return out
}

func (s *courseSet) len() int {
	return len(s.order)
}

// State holds the in-memory membership of one plan's course editor.
// INVARIANT: available and linked are disjoint and their union never changes after New.
type State struct {
	available *courseSet
	linked    *courseSet
	original  map[string]struct{}

	selectedAvailable map[string]struct{}
	selectedLinked    map[string]struct{}
}

// New partitions the course catalogue into available and linked lists.
// Inactive courses are left out of the available pool; linked courses are kept as given.
// PRE: all is the full course list, linked the plan's current courses
// POST: available = active(all) - linked, baseline = ids(linked), selections empty
func New(all, linked []course.Course) *State {
	s := &State{
		available:         newCourseSet(),
		linked:            newCourseSet(),
		original:          make(map[string]struct{}),
		selectedAvailable: make(map[string]struct{}),
		selectedLinked:    make(map[string]struct{}),
	}
	for _, c := range linked {
		s.linked.add(c)
		s.original[c.ID] = struct{}{}
	}
	for _, c := range course.FilterActive(all) {
		if !s.linked.has(c.ID) {
			s.available.add(c)
		}
	}
	return s
}

func (s *State) sets(l List) (*courseSet, map[string]struct{}, error) {
	switch l {
	case Available:
		return s.available, s.selectedAvailable, nil
	case Linked:
		return s.linked, s.selectedLinked, nil
	}
	return nil, nil, ErrUnknownList
}

// ToggleSelect flips the selection of a course in the named list.
// Ids not present in that list are ignored.
// PRE: l is Available or Linked
// POST: Returns whether id is now selected
func (s *State) ToggleSelect(l List, id string) (bool, error) {
	set, sel, err := s.sets(l)
	if err != nil {
		return false, err
	}
	if !set.has(id) {
		return false, nil
	}
	if _, ok := sel[id]; ok {
		delete(sel, id)
		return false, nil
	}
	sel[id] = struct{}{}
	return true, nil
}

// MoveSelected moves every selected course from one list to the other and clears that selection.
// PRE: from is Available or Linked
// POST: Returns the number of courses moved; 0 when nothing was selected
func (s *State) MoveSelected(from List) (int, error) {
	src, sel, err := s.sets(from)
	if err != nil {
		return 0, err
	}
	if len(sel) == 0 {
		return 0, nil
	}
	dst := s.linked
	if from == Linked {
		dst = s.available
	}
	moving := src.removeAll(sel)
	for _, c := range moving {
		dst.add(c)
	}
	clear(sel)
	return len(moving), nil
}

// Diff computes added = linked - baseline and removed = baseline - linked, both sorted.
func (s *State) Diff() Diff {
	var d Diff
	for _, id := range s.linked.order {
		if _, ok := s.original[id]; !ok {
			d.Add = append(d.Add, id)
		}
	}
	for id := range s.original {
		if !s.linked.has(id) {
			d.Remove = append(d.Remove, id)
		}
	}
	sort.Strings(d.Add)
	sort.Strings(d.Remove)
	return d
}

// Discard returns both lists to the baseline partition and clears both selections.
func (s *State) Discard() {
	all := append(s.available.list(), s.linked.list()...)
	s.available = newCourseSet()
	s.linked = newCourseSet()
	for _, c := range all {
		if _, ok := s.original[c.ID]; ok {
			s.linked.add(c)
		} else {
			s.available.add(c)
		}
	}
	clear(s.selectedAvailable)
	clear(s.selectedLinked)
}

// Commit folds an applied diff into the baseline.
// PRE: d was accepted by the server
// POST: baseline = baseline + d.Add - d.Remove
func (s *State) Commit(d Diff) {
	for _, id := range d.Add {
		s.original[id] = struct{}{}
	}
	for _, id := range d.Remove {
		delete(s.original, id)
	}
}

// Courses returns a copy of the named list in display order.
func (s *State) Courses(l List) []course.Course {
	set, _, err := s.sets(l)
	if err != nil {
		return nil
	}
	return set.list()
}

// Len returns the size of the named list.
func (s *State) Len(l List) int {
	set, _, err := s.sets(l)
	if err != nil {
		return 0
	}
	return set.len()
}

// IsSelected reports whether id is selected in the named list.
func (s *State) IsSelected(l List, id string) bool {
	_, sel, err := s.sets(l)
	if err != nil {
		return false
	}
	_, ok := sel[id]
	return ok
}

// Selected returns the sorted selection of the named list.
func (s *State) Selected(l List) []string {
	_, sel, err := s.sets(l)
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(sel))
	for id := range sel {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BaselineIDs returns the sorted baseline linked ids.
func (s *State) BaselineIDs() []string {
	ids := make([]string, 0, len(s.original))
	for id := range s.original {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Filter returns the courses of the named list whose name contains query, ignoring case.
// An empty query matches everything. The underlying lists are not modified.
func (s *State) Filter(l List, query string) []course.Course {
	courses := s.Courses(l)
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return courses
	}
	out := courses[:0]
	for _, c := range courses {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}
