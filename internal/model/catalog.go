package model

// InstrumentType identifies a screening questionnaire.
type InstrumentType string

const (
	InstrumentAssist InstrumentType = "ASSIST"
	InstrumentCrafft InstrumentType = "CRAFFT"
)

// Valid reports whether t is a known instrument.
func (t InstrumentType) Valid() bool {
	return t == InstrumentAssist || t == InstrumentCrafft
}

// QuestionKind distinguishes how a catalog question is materialized into a session.
type QuestionKind string

const (
	QuestionKindTemplate  QuestionKind = "TEMPLATE"
	QuestionKindInjection QuestionKind = "INJECTION"
	QuestionKindFixed     QuestionKind = "FIXED"
)

// AnswerOption is one selectable answer with its score weight.
// NoUse marks the "never used in the relevant period" option of a gate question.
type AnswerOption struct {
	ID          int    `json:"id"`
	Text        string `json:"text"`
	ScoreWeight int    `json:"score_weight"`
	NoUse       bool   `json:"no_use"`
}

// IndicatesNoUse reports whether selecting this option closes the substance gate.
// Both the catalog flag and a zero weight are required.
func (o AnswerOption) IndicatesNoUse() bool {
	return o.NoUse && o.ScoreWeight == 0
}

// TemplateQuestion is an ASSIST question asked once per selected substance.
// TextTemplate may contain the {substance} placeholder.
type TemplateQuestion struct {
	ID           int            `json:"id"`
	Order        int            `json:"order"`
	TextTemplate string         `json:"text_template"`
	Options      []AnswerOption `json:"options"`
}

// InjectionQuestion is the substance-independent ASSIST question, asked at most once.
type InjectionQuestion struct {
	ID      int            `json:"id"`
	Text    string         `json:"text"`
	Options []AnswerOption `json:"options"`
}

// FixedQuestion is a CRAFFT question with pre-resolved text.
type FixedQuestion struct {
	ID      int            `json:"id"`
	Order   int            `json:"order"`
	Text    string         `json:"text"`
	Options []AnswerOption `json:"options"`
}

// AssistTemplate is the question bank of the ASSIST instrument.
type AssistTemplate struct {
	TemplateQuestions []TemplateQuestion `json:"template_questions"`
	InjectionQuestion *InjectionQuestion `json:"injection_question,omitempty"`
}

// FixedTemplate is the question bank of the CRAFFT instrument.
type FixedTemplate struct {
	Questions []FixedQuestion `json:"questions"`
}

// CatalogQuestion is a stored question row of any instrument.
type CatalogQuestion struct {
	ID         int            `json:"id"`
	Instrument InstrumentType `json:"instrument_type"`
	Kind       QuestionKind   `json:"kind"`
	OrderNum   int            `json:"order_num"`
	Text       string         `json:"text"`
	Options    []AnswerOption `json:"options"`
}

// AnswerOptionRequest is one option in a question replacement payload.
type AnswerOptionRequest struct {
	Text        string `json:"text" binding:"required,min=1,max=500"`
	ScoreWeight int    `json:"score_weight" binding:"min=0,max=100"`
	NoUse       bool   `json:"no_use"`
}

// CatalogQuestionRequest is one question in a question replacement payload.
type CatalogQuestionRequest struct {
	Kind     string                `json:"kind" binding:"required,oneof=TEMPLATE INJECTION FIXED"`
	OrderNum int                   `json:"order_num" binding:"min=1,max=100"`
	Text     string                `json:"text" binding:"required,min=1,max=2000"`
	Options  []AnswerOptionRequest `json:"options" binding:"required,min=1,max=20,dive"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing an instrument's questions.
type ReplaceQuestionsRequest struct {
	Questions []CatalogQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// PublicOption is an answer option as shown to respondents, without its weight.
type PublicOption struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// PublicQuestion is a catalog question as shown to respondents.
type PublicQuestion struct {
	Kind     QuestionKind   `json:"kind"`
	OrderNum int            `json:"order_num"`
	Text     string         `json:"text"`
	Options  []PublicOption `json:"options"`
}

// PublicOptions strips score weights and flags from options.
func PublicOptions(options []AnswerOption) []PublicOption {
	out := make([]PublicOption, len(options))
	for i, o := range options {
		out[i] = PublicOption{ID: o.ID, Text: o.Text}
	}
	return out
}
