package domain

// Plan is a read-only seating view of a classroom: every table with the
// students seated at it, the students without a seat, and the annotations
// written about each student.
type Plan struct {
	ClassRoomID int64
	Name        string
	Tables      []PlanTable
	Unseated    []PlanStudent
}

// PlanTable is a table at its positional index with its occupants in roster
// order.
type PlanTable struct {
	Index    int
	Table    Table
	Students []PlanStudent
}

// PlanStudent is a student with their annotations.
type PlanStudent struct {
	Student     Student
	Annotations []*Annotation
}

// BuildPlan joins the classroom's tables to its students through
// Student.TableID. notes maps student ids to annotations; a student missing
// from notes gets an empty list. Slices are never nil.
func BuildPlan(c *ClassRoom, notes map[int64][]*Annotation) *Plan {
	p := &Plan{
		ClassRoomID: c.ID,
		Name:        c.Name,
		Tables:      make([]PlanTable, len(c.Tables)),
		Unseated:    []PlanStudent{},
	}

	byTable := make(map[int64]int, len(c.Tables))
	for i, t := range c.Tables {
		p.Tables[i] = PlanTable{Index: i, Table: t, Students: []PlanStudent{}}
		byTable[t.ID] = i
	}

	for _, s := range c.Students {
		ps := PlanStudent{Student: s, Annotations: notes[s.ID]}
		if ps.Annotations == nil {
			ps.Annotations = []*Annotation{}
		}
		if s.TableID != nil {
			if i, ok := byTable[*s.TableID]; ok {
				p.Tables[i].Students = append(p.Tables[i].Students, ps)
				continue
			}
		}
		p.Unseated = append(p.Unseated, ps)
	}
	return p
}
