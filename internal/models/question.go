package models

// QuestionType discriminates the answerable question kinds. PASSAGE only ever
// appears on source nodes; the flattener replaces it with its sub-questions.
type QuestionType string

const (
	TypeSingle    QuestionType = "SINGLE"
	TypeMulti     QuestionType = "MULTI"
	TypeInteger   QuestionType = "INTEGER"
	TypeNumerical QuestionType = "NUMERICAL"
	TypeMatrix    QuestionType = "MATRIX"
	TypePassage   QuestionType = "PASSAGE"
)

type Option struct {
	Text  string `bson:"text" json:"text"`
	Image string `bson:"image,omitempty" json:"image,omitempty"`
}

// QuestionNode is one entry of an exam's question source. A node is either a
// leaf question or, when Type is PASSAGE, a group whose SubQuestions are the
// answerable units. Passages do not nest.
type QuestionNode struct {
	Type            QuestionType       `bson:"type" json:"type"`
	Text            string             `bson:"text" json:"text"`
	Image           string             `bson:"image,omitempty" json:"image,omitempty"`
	Options         []Option           `bson:"options,omitempty" json:"options,omitempty"`
	Rows            []string           `bson:"rows,omitempty" json:"rows,omitempty"`
	Columns         []string           `bson:"columns,omitempty" json:"columns,omitempty"`
	Correct         interface{}        `bson:"correct,omitempty" json:"correct,omitempty"`
	PositiveMarks   float64            `bson:"positiveMarks" json:"positiveMarks"`
	NegativeMarks   float64            `bson:"negativeMarks" json:"negativeMarks"`
	RelativeGrading map[string]float64 `bson:"relativeGrading,omitempty" json:"relativeGrading,omitempty"`
	Passage         string             `bson:"passage,omitempty" json:"passage,omitempty"`
	SubQuestions    []QuestionNode     `bson:"questions,omitempty" json:"questions,omitempty"`
}

// IsPassage reports whether the node is a passage group rather than a leaf.
func (n *QuestionNode) IsPassage() bool {
	return n.Type == TypePassage || len(n.SubQuestions) > 0
}
