package triage

import (
	"context"

	"github.com/rs/zerolog"
)

const (
	DefaultDepartment = "General Medicine"
	DefaultCondition  = "General checkup recommended"
)

// State is a step of a single triage request.
type State string

const (
	StateReceived   State = "received"
	StateExpanded   State = "expanded"
	StateMatched    State = "matched"
	StateClassified State = "classified"
	StateUnmatched  State = "unmatched"
	StateRouted     State = "routed"
)

// Outcome is the result of triaging one symptom description.
type Outcome struct {
	Condition       string   `json:"disease"`
	Department      string   `json:"department"`
	Doctors         []string `json:"doctors"`
	MatchedSymptoms []string `json:"matched_symptoms"`
	Path            State    `json:"path"`
	Trace           []State  `json:"-"`
}

// Service runs expand -> match -> classify -> route. It holds no mutable
// state and may be shared across goroutines.
type Service struct {
	expander         *Expander
	matcher          *Matcher
	classifier       Classifier
	router           *Router
	defaultCondition string
}

func NewService(expander *Expander, matcher *Matcher, classifier Classifier, router *Router) *Service {
	return &Service{
		expander:         expander,
		matcher:          matcher,
		classifier:       classifier,
		router:           router,
		defaultCondition: DefaultCondition,
	}
}

// WithDefaultCondition overrides the condition message used when nothing
// in the text matched the vocabulary.
func (s *Service) WithDefaultCondition(msg string) *Service {
	if msg != "" {
		s.defaultCondition = msg
	}
	return s
}

// Triage never fails: text with no recognised symptom yields the default
// department without consulting the classifier.
func (s *Service) Triage(ctx context.Context, text string) Outcome {
	trace := []State{StateReceived}

	expanded := s.expander.Expand(text)
	trace = append(trace, StateExpanded)

	vec, matched := s.matcher.Match(expanded)
	trace = append(trace, StateMatched)

	if len(matched) == 0 {
		trace = append(trace, StateUnmatched, StateRouted)
		def := s.router.Default()
		zerolog.Ctx(ctx).Debug().Str("department", def.Department).Msg("no symptoms matched")
		return Outcome{
			Condition:       s.defaultCondition,
			Department:      def.Department,
			Doctors:         def.Doctors,
			MatchedSymptoms: []string{},
			Path:            StateUnmatched,
			Trace:           trace,
		}
	}

	condition := s.classifier.Predict(vec)
	trace = append(trace, StateClassified)

	route := s.router.Route(condition)
	trace = append(trace, StateRouted)

	zerolog.Ctx(ctx).Debug().
		Strs("matched", matched).
		Str("condition", condition).
		Str("department", route.Department).
		Msg("symptoms classified")

	return Outcome{
		Condition:       condition,
		Department:      route.Department,
		Doctors:         route.Doctors,
		MatchedSymptoms: matched,
		Path:            StateClassified,
		Trace:           trace,
	}
}

// Departments exposes the directory for listing endpoints.
func (s *Service) Departments() []Route { return s.router.Departments() }

// Vocabulary returns the symptom vocabulary in feature order.
func (s *Service) Vocabulary() []string { return s.matcher.Vocabulary().Terms() }
