package triage

import (
	"sort"
	"strings"
)

// Route is the department and doctor roster a condition is referred to.
type Route struct {
	Department string   `json:"department"`
	Doctors    []string `json:"doctors"`
}

// Directory is the static condition -> department -> roster configuration.
type Directory struct {
	Conditions        map[string]string   `yaml:"conditions" json:"conditions"`
	Departments       map[string][]string `yaml:"departments" json:"departments"`
	DefaultDepartment string              `yaml:"default_department" json:"default_department"`
}

// Router resolves condition labels to departments. It is read-only after
// construction.
type Router struct {
	conditions  map[string]string
	departments map[string][]string
	fallback    string
}

func NewRouter(dir Directory) *Router {
	r := &Router{
		conditions:  make(map[string]string, len(dir.Conditions)),
		departments: make(map[string][]string, len(dir.Departments)),
		fallback:    dir.DefaultDepartment,
	}
	if r.fallback == "" {
		r.fallback = DefaultDepartment
	}
	for cond, dept := range dir.Conditions {
		r.conditions[strings.ToLower(strings.TrimSpace(cond))] = dept
	}
	for dept, doctors := range dir.Departments {
		r.departments[dept] = append([]string(nil), doctors...)
	}
	return r
}

// Route looks condition up case-insensitively, falling back to the default
// department for unknown labels.
func (r *Router) Route(condition string) Route {
	dept, ok := r.conditions[strings.ToLower(strings.TrimSpace(condition))]
	if !ok {
		dept = r.fallback
	}
	return Route{Department: dept, Doctors: r.Doctors(dept)}
}

// Default returns the fallback department route.
func (r *Router) Default() Route {
	return Route{Department: r.fallback, Doctors: r.Doctors(r.fallback)}
}

// Doctors returns a copy of a department's roster; unknown departments get an
// empty roster.
func (r *Router) Doctors(department string) []string {
	out := make([]string, len(r.departments[department]))
	copy(out, r.departments[department])
	return out
}

// Departments lists every department with its roster, sorted by name.
func (r *Router) Departments() []Route {
	routes := make([]Route, 0, len(r.departments))
	for dept := range r.departments {
		routes = append(routes, Route{Department: dept, Doctors: r.Doctors(dept)})
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Department < routes[j].Department })
	return routes
}
