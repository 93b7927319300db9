package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ClassRoom is the aggregate root of a classroom plan. It owns its roster and
// its seating tables; both are persisted and mutated as one unit.
//
// Students reference tables by id and groups reference students by id, so the
// aggregate never contains pointer cycles. A zero ID on the classroom, a
// student or a table means "not yet stored"; the store allocates ids on save.
type ClassRoom struct {
	ID       int64     `json:"id"`
	OwnerID  uuid.UUID `json:"owner_id"`
	Name     string    `json:"name"`
	Students []Student `json:"students"`
	Tables   []Table   `json:"tables"`
}

// Student is a roster entry. TableID is the student's seat, if any, and always
// refers to a table of the same classroom.
type Student struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	TableID   *int64 `json:"table_id,omitempty"`
}

// Table is a seating table placed on the classroom grid.
type Table struct {
	ID int64 `json:"id"`
	X  int   `json:"x"`
	Y  int   `json:"y"`
}

// NewClassRoom creates an empty classroom for the given owner.
// Returns ErrBlankName if name is blank.
func NewClassRoom(ownerID uuid.UUID, name string) (*ClassRoom, error) {
	if isBlank(name) {
		return nil, ErrBlankName
	}
	return &ClassRoom{
		OwnerID:  ownerID,
		Name:     name,
		Students: []Student{},
		Tables:   []Table{},
	}, nil
}

// Validate checks the aggregate invariants: a non-blank name, unique student
// and table ids, and seats that point at tables of this classroom.
func (c *ClassRoom) Validate() error {
	if c.OwnerID == uuid.Nil {
		return fmt.Errorf("%w: classroom owner cannot be empty", ErrValidation)
	}
	if isBlank(c.Name) {
		return ErrBlankName
	}

	tables := make(map[int64]struct{}, len(c.Tables))
	for _, t := range c.Tables {
		if t.ID == 0 {
			continue
		}
		if _, dup := tables[t.ID]; dup {
			return fmt.Errorf("%w: duplicate table id %d", ErrValidation, t.ID)
		}
		tables[t.ID] = struct{}{}
	}

	students := make(map[int64]struct{}, len(c.Students))
	for _, s := range c.Students {
		if s.ID != 0 {
			if _, dup := students[s.ID]; dup {
				return fmt.Errorf("%w: %d", ErrDuplicateStudentID, s.ID)
			}
			students[s.ID] = struct{}{}
		}
		if s.TableID != nil {
			if _, ok := tables[*s.TableID]; !ok {
				return fmt.Errorf("%w: seat of student %d", ErrTableNotFound, s.ID)
			}
		}
	}
	return nil
}

// Rename replaces the classroom name. Returns ErrBlankName if name is blank.
func (c *ClassRoom) Rename(name string) error {
	if isBlank(name) {
		return ErrBlankName
	}
	c.Name = name
	return nil
}

// Clone returns a deep copy of the aggregate. Engines mutate a clone and hand
// it to the store, so a failed operation never leaves a partial change behind.
func (c *ClassRoom) Clone() *ClassRoom {
	if c == nil {
		return nil
	}
	out := *c
	out.Students = make([]Student, len(c.Students))
	for i, s := range c.Students {
		out.Students[i] = s
		if s.TableID != nil {
			id := *s.TableID
			out.Students[i].TableID = &id
		}
	}
	out.Tables = make([]Table, len(c.Tables))
	copy(out.Tables, c.Tables)
	return &out
}

// Student returns the roster entry with the given id.
func (c *ClassRoom) Student(id int64) (Student, bool) {
	i := c.studentIndex(id)
	if i < 0 {
		return Student{}, false
	}
	return c.Students[i], true
}

// HasStudent reports whether id resolves to a roster student.
func (c *ClassRoom) HasStudent(id int64) bool {
	return c.studentIndex(id) >= 0
}

// StudentIDs returns the roster ids in roster order.
func (c *ClassRoom) StudentIDs() []int64 {
	ids := make([]int64, len(c.Students))
	for i, s := range c.Students {
		ids[i] = s.ID
	}
	return ids
}

// AddStudent appends a student to the roster, optionally seated at the table
// found at tableIndex. The index is checked against the current table list
// before anything changes. Returns the roster position of the new student.
func (c *ClassRoom) AddStudent(firstName, lastName string, tableIndex *int) (int, error) {
	var seat *int64
	if tableIndex != nil {
		t, ok := c.TableAt(*tableIndex)
		if !ok {
			return -1, fmt.Errorf("%w: %d", ErrTableIndexOutOfRange, *tableIndex)
		}
		id := t.ID
		seat = &id
	}
	c.Students = append(c.Students, Student{
		FirstName: firstName,
		LastName:  lastName,
		TableID:   seat,
	})
	return len(c.Students) - 1, nil
}

// UpdateStudent replaces the names of a student. Nil or blank replacements
// leave the current value untouched.
func (c *ClassRoom) UpdateStudent(id int64, firstName, lastName *string) (Student, error) {
	i := c.studentIndex(id)
	if i < 0 {
		return Student{}, ErrStudentNotFound
	}
	if firstName != nil && !isBlank(*firstName) {
		c.Students[i].FirstName = *firstName
	}
	if lastName != nil && !isBlank(*lastName) {
		c.Students[i].LastName = *lastName
	}
	return c.Students[i], nil
}

// RemoveStudent removes a student from the roster, keeping roster order.
func (c *ClassRoom) RemoveStudent(id int64) error {
	i := c.studentIndex(id)
	if i < 0 {
		return ErrStudentNotFound
	}
	c.Students = append(c.Students[:i], c.Students[i+1:]...)
	return nil
}

// SeatStudent moves a student to the table at tableIndex, or unseats the
// student when tableIndex is nil.
func (c *ClassRoom) SeatStudent(id int64, tableIndex *int) (Student, error) {
	i := c.studentIndex(id)
	if i < 0 {
		return Student{}, ErrStudentNotFound
	}
	if tableIndex == nil {
		c.Students[i].TableID = nil
		return c.Students[i], nil
	}
	t, ok := c.TableAt(*tableIndex)
	if !ok {
		return Student{}, fmt.Errorf("%w: %d", ErrTableIndexOutOfRange, *tableIndex)
	}
	tableID := t.ID
	c.Students[i].TableID = &tableID
	return c.Students[i], nil
}

// TableAt returns the table at the given positional index.
func (c *ClassRoom) TableAt(index int) (Table, bool) {
	if index < 0 || index >= len(c.Tables) {
		return Table{}, false
	}
	return c.Tables[index], true
}

// AddTable appends a table at grid position (x, y) and returns its index.
func (c *ClassRoom) AddTable(x, y int) int {
	c.Tables = append(c.Tables, Table{X: x, Y: y})
	return len(c.Tables) - 1
}

// RemoveTableAt removes the table at index and clears the seat of every
// student that pointed to it. Other seats are left untouched.
func (c *ClassRoom) RemoveTableAt(index int) (Table, error) {
	t, ok := c.TableAt(index)
	if !ok {
		return Table{}, fmt.Errorf("%w: %d", ErrTableIndexOutOfRange, index)
	}
	c.Tables = append(c.Tables[:index], c.Tables[index+1:]...)
	for i := range c.Students {
		if seat := c.Students[i].TableID; seat != nil && *seat == t.ID {
			c.Students[i].TableID = nil
		}
	}
	return t, nil
}

func (c *ClassRoom) studentIndex(id int64) int {
	for i := range c.Students {
		if c.Students[i].ID == id {
			return i
		}
	}
	return -1
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
