package resolve

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/worldnewsmap/newsgeo/internal/model"
)

// Decision is the handler's verdict for a POI.
type Decision struct {
	Coordinate model.Coordinate
	Status     model.Status
}

// Rule maps a country to a canonical free-form query. When
// WithoutInstitution is set the rule only applies to POIs that name no
// institution.
type Rule struct {
	Country            string `yaml:"country"`
	WithoutInstitution bool   `yaml:"without_institution"`
	Query              string `yaml:"query"`
}

// RuleSet is the content of a special-cases rules file.
type RuleSet struct {
	Denylist []string `yaml:"denylist"`
	Rules    []Rule   `yaml:"rules"`
}

// DefaultRules returns the built-in canonical-query rules.
func DefaultRules() []Rule {
	return []Rule{
		{Country: "antarctica", WithoutInstitution: true, Query: "antarctica"},
	}
}

// LoadRules reads a YAML rules file.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "resolve: read rules file %s", path)
	}

	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, eris.Wrapf(err, "resolve: parse rules file %s", path)
	}
	for i, r := range rs.Rules {
		if model.Fold(r.Country) == "" || r.Query == "" {
			return nil, eris.Errorf("resolve: rule %d in %s needs country and query", i, path)
		}
	}
	return &rs, nil
}

// Handler short-circuits POIs that must not, or need not, go through the
// cascade.
type Handler struct {
	engine   *Engine
	denylist map[string]struct{}
	rules    []Rule
}

// NewHandler returns a handler that marks denylisted countries as having no
// valid coordinate and answers rule matches with a single query through
// engine.
func NewHandler(engine *Engine, denylist []string, rules []Rule) *Handler {
	h := &Handler{
		engine:   engine,
		denylist: make(map[string]struct{}, len(denylist)),
		rules:    rules,
	}
	for _, d := range denylist {
		if f := model.Fold(d); f != "" {
			h.denylist[f] = struct{}{}
		}
	}
	return h
}

// NewHandlerFromConfig builds a handler from the configured denylist and an
// optional rules file. Denylist entries from the file are added to the
// configured ones; rules from the file replace the defaults.
func NewHandlerFromConfig(engine *Engine, denylist []string, rulesFile string) (*Handler, error) {
	rules := DefaultRules()
	if rulesFile != "" {
		rs, err := LoadRules(rulesFile)
		if err != nil {
			return nil, err
		}
		denylist = append(append([]string(nil), denylist...), rs.Denylist...)
		if len(rs.Rules) > 0 {
			rules = rs.Rules
		}
	}
	return NewHandler(engine, denylist, rules), nil
}

// Denied reports whether poi's country is on the denylist.
func (h *Handler) Denied(poi model.POI) bool {
	if poi.Country == nil {
		return false
	}
	_, ok := h.denylist[model.Fold(*poi.Country)]
	return ok
}

// Handle returns a decision when poi is special. A denylisted country yields
// the sentinel with NoValidCoordinate and no network call. A rule match that
// the provider answers yields CoordinateFetched. Otherwise the second return
// is false and the caller should run the cascade.
func (h *Handler) Handle(ctx context.Context, poi model.POI, forceRefresh bool) (Decision, bool) {
	if h.Denied(poi) {
		zap.L().Debug("resolve: denylisted position", zap.String("country", *poi.Country))
		return Decision{Coordinate: model.NoCoordinate(), Status: model.StatusNoValidCoordinate}, true
	}

	rule, ok := h.match(poi)
	if !ok {
		return Decision{}, false
	}

	c, ok := h.engine.ResolveText(ctx, poi, rule.Query, forceRefresh)
	if !ok || !model.IsValid(c) {
		zap.L().Info("resolve: canonical query not accepted, falling back to cascade",
			zap.String("query", rule.Query),
		)
		return Decision{}, false
	}
	return Decision{Coordinate: c, Status: model.StatusCoordinateFetched}, true
}

func (h *Handler) match(poi model.POI) (Rule, bool) {
	if poi.Country == nil {
		return Rule{}, false
	}
	country := model.Fold(*poi.Country)
	for _, r := range h.rules {
		if model.Fold(r.Country) != country {
			continue
		}
		if r.WithoutInstitution && model.ValidValue(poi.Institution) {
			continue
		}
		return r, true
	}
	return Rule{}, false
}
