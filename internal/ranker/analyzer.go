package ranker

import (
	"strings"
	"unicode"

	"github.com/fyrsmithlabs/contextkit/internal/tokenize"
)

// Query intents.
const (
	IntentActionRequest      = "action_request"
	IntentInformationSeeking = "information_seeking"
	IntentTechnicalInquiry   = "technical_inquiry"
	IntentGeneral            = "general_query"
)

// Query domains.
const (
	DomainProgramming    = "programming"
	DomainAIML           = "ai_ml"
	DomainWebDevelopment = "web_development"
	DomainGeneral        = "general"
)

// Action verbs detected in a query.
const (
	VerbCreate = "create"
	VerbFind   = "find"
)

// QueryAnalysis is the structural reading of a query that the contextual
// and semantic strategies score against.
type QueryAnalysis struct {
	Query  string   `json:"query"`
	Terms  []string `json:"terms"`
	Intent string   `json:"intent"`
	Domain string   `json:"domain"`
	Tags   []string `json:"tags,omitempty"`  // technology and domain tags, ordered, unique
	Verbs  []string `json:"verbs,omitempty"` // subset of create, find
}

// HasTag reports whether tag was detected.
func (qa QueryAnalysis) HasTag(tag string) bool {
	for _, t := range qa.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasVerb reports whether verb was detected.
func (qa QueryAnalysis) HasVerb(verb string) bool {
	for _, v := range qa.Verbs {
		if v == verb {
			return true
		}
	}
	return false
}

var (
	actionWords   = []string{"создать", "найти", "показать", "help", "create", "find", "show"}
	questionWords = []string{"что", "как", "где", "why", "what", "how"}
	techWords     = []string{"api", "код", "функция", "класс"}

	createWords = []string{"create", "создать"}
	findWords   = []string{"find", "найти"}

	programmingWords = []string{"python", "javascript", "код"}
	aimlWords        = []string{"ai", "ml", "модель"}
	webWords         = []string{"web", "api", "frontend"}
)

// technologyTags maps query words to the tag they contribute.
var technologyTags = []struct {
	word string
	tag  string
}{
	{"python", "python"},
	{"javascript", "javascript"},
	{"ai", DomainAIML},
	{"ml", DomainAIML},
	{"модель", DomainAIML},
	{"web", "web"},
	{"api", "api"},
	{"frontend", "frontend"},
}

// AnalyzeQuery classifies query by keyword presence. Keywords are matched
// against whole lowercase words, so "ai" does not match "email".
//
// The intent is action_request when an action word is present, otherwise
// information_seeking for question words, technical_inquiry for technical
// words and general_query when nothing matches. The domain is the first of
// programming, ai_ml and web_development whose words occur, else general.
func AnalyzeQuery(query string) QueryAnalysis {
	words := splitWords(query)

	qa := QueryAnalysis{
		Query:  query,
		Terms:  tokenize.Terms(query),
		Intent: IntentGeneral,
		Domain: DomainGeneral,
	}

	switch {
	case words.any(actionWords):
		qa.Intent = IntentActionRequest
	case words.any(questionWords):
		qa.Intent = IntentInformationSeeking
	case words.any(techWords):
		qa.Intent = IntentTechnicalInquiry
	}

	switch {
	case words.any(programmingWords):
		qa.Domain = DomainProgramming
	case words.any(aimlWords):
		qa.Domain = DomainAIML
	case words.any(webWords):
		qa.Domain = DomainWebDevelopment
	}

	if words.any(createWords) {
		qa.Verbs = append(qa.Verbs, VerbCreate)
	}
	if words.any(findWords) {
		qa.Verbs = append(qa.Verbs, VerbFind)
	}

	seen := make(map[string]bool)
	addTag := func(tag string) {
		if !seen[tag] {
			seen[tag] = true
			qa.Tags = append(qa.Tags, tag)
		}
	}
	for _, tt := range technologyTags {
		if words[tt.word] {
			addTag(tt.tag)
		}
	}
	if qa.Domain != DomainGeneral {
		addTag(qa.Domain)
	}

	return qa
}

type wordSet map[string]bool

func (ws wordSet) any(words []string) bool {
	for _, w := range words {
		if ws[w] {
			return true
		}
	}
	return false
}

func splitWords(s string) wordSet {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	ws := make(wordSet, len(fields))
	for _, f := range fields {
		ws[f] = true
	}
	return ws
}
