// Package flatten normalizes an exam's heterogeneous question source (flat,
// sectioned, passage-grouped) into one ordered sequence of atomic,
// independently answerable units. The flattened sequence is the sole unit of
// navigation and scoring; origin paths retain enough information to rebuild
// the nested document for display and export.
package flatten

import (
	"fmt"

	"exam-service/internal/models"
)

// Origin locates a unit inside the source document. Section and Sub are -1
// when the unit came from an unsectioned or non-passage source respectively.
type Origin struct {
	Section int `json:"section"`
	Parent  int `json:"parent"`
	Sub     int `json:"sub"`
}

// SectionRef carries section metadata onto each unit of a sectioned exam.
// Index is assigned monotonically so navigation can detect section changes.
type SectionRef struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Instruction string `json:"instruction,omitempty"`
}

// Unit is one atomic question of the flattened sequence.
type Unit struct {
	Index           int                 `json:"index"`
	ID              string              `json:"id"`
	Type            models.QuestionType `json:"type"`
	Text            string              `json:"text"`
	Image           string              `json:"image,omitempty"`
	Options         []models.Option     `json:"options,omitempty"`
	Rows            []string            `json:"rows,omitempty"`
	Columns         []string            `json:"columns,omitempty"`
	Correct         interface{}         `json:"-"`
	PositiveMarks   float64             `json:"positiveMarks"`
	NegativeMarks   float64             `json:"negativeMarks"`
	RelativeGrading map[string]float64  `json:"-"`
	Section         *SectionRef         `json:"section,omitempty"`
	Passage         string              `json:"passage,omitempty"`
	Origin          Origin              `json:"origin"`

	// Defect marks a malformed question (missing options, MATRIX without
	// rows/columns). A defective unit still occupies its flat index so
	// navigation of its neighbors is unaffected; it is never scored.
	Defect string `json:"defect,omitempty"`
}

// Answerable reports whether the unit can accept and score an answer.
func (u *Unit) Answerable() bool { return u.Defect == "" }

// Flatten resolves the exam's source variant and walks it depth-first,
// left to right. Every leaf appears exactly once in source order; passage
// nodes are replaced by their sub-questions, each carrying the passage text.
func Flatten(exam *models.ExamDefinition) []Unit {
	units := []Unit{}
	if exam.Sectioned() {
		for si := range exam.Sections {
			sec := &exam.Sections[si]
			ref := &SectionRef{Index: si, Title: sec.Title, Instruction: sec.Instruction}
			units = appendNodes(units, sec.Questions, si, ref)
		}
		return units
	}
	return appendNodes(units, exam.Questions, -1, nil)
}

func appendNodes(units []Unit, nodes []models.QuestionNode, sectionIdx int, ref *SectionRef) []Unit {
	for pi := range nodes {
		node := &nodes[pi]
		if node.IsPassage() {
			for qi := range node.SubQuestions {
				sub := &node.SubQuestions[qi]
				u := newUnit(sub, len(units), Origin{Section: sectionIdx, Parent: pi, Sub: qi})
				u.Passage = passageText(node)
				u.Section = ref
				units = append(units, u)
			}
			continue
		}
		u := newUnit(node, len(units), Origin{Section: sectionIdx, Parent: pi, Sub: -1})
		u.Section = ref
		units = append(units, u)
	}
	return units
}

func newUnit(node *models.QuestionNode, index int, origin Origin) Unit {
	u := Unit{
		Index:           index,
		ID:              originID(origin),
		Type:            node.Type,
		Text:            node.Text,
		Image:           node.Image,
		Options:         node.Options,
		Rows:            node.Rows,
		Columns:         node.Columns,
		Correct:         node.Correct,
		PositiveMarks:   node.PositiveMarks,
		NegativeMarks:   node.NegativeMarks,
		RelativeGrading: node.RelativeGrading,
		Origin:          origin,
	}
	u.Defect = validate(node)
	return u
}

// validate contains malformed questions to their own unit.
func validate(node *models.QuestionNode) string {
	switch node.Type {
	case models.TypeSingle, models.TypeMulti:
		if len(node.Options) == 0 {
			return "question has no options"
		}
	case models.TypeMatrix:
		if len(node.Rows) == 0 || len(node.Columns) == 0 {
			return "matrix question missing rows or columns"
		}
	case models.TypeInteger, models.TypeNumerical:
		// free-response, nothing structural to check
	default:
		return fmt.Sprintf("unknown question type %q", node.Type)
	}
	return ""
}

func passageText(node *models.QuestionNode) string {
	if node.Passage != "" {
		return node.Passage
	}
	return node.Text
}

func originID(o Origin) string {
	id := ""
	if o.Section >= 0 {
		id = fmt.Sprintf("s%d.", o.Section)
	}
	id += fmt.Sprintf("q%d", o.Parent)
	if o.Sub >= 0 {
		id += fmt.Sprintf(".%d", o.Sub)
	}
	return id
}
