package evaluator

import (
	"strings"

	"variantmatch/pkg/match"
	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

const RequestHierarchy = "HttpRequest"

// Router maps requests to canned responses using literal sub-patterns for
// exact endpoints and guards for path prefixes.
type Router struct {
	Hierarchy *variant.Hierarchy

	route *match.Matcher[string]
}

func NewRouter(reg *variant.Registry, opts ...match.Option) (*Router, error) {
	h, err := reg.Declare(RequestHierarchy,
		variant.V("Request",
			variant.F("method", variant.String()),
			variant.F("path", variant.String()),
			variant.F("headers", variant.MappingOf(variant.String())),
		),
	)
	if err != nil {
		return nil, err
	}
	reply := func(s string) func(*runtime.Bindings) (string, error) {
		return func(*runtime.Bindings) (string, error) { return s, nil }
	}
	endpoint := func(method, path string) pattern.Pattern {
		return pattern.Destructure("Request", pattern.Lit(runtime.Str(method)), pattern.Lit(runtime.Str(path)), pattern.Wildcard())
	}
	admin := func(env *runtime.Bindings) (bool, error) {
		path, err := env.Str("path")
		return err == nil && strings.HasPrefix(path, "/api/admin"), err
	}

	r := &Router{Hierarchy: h}
	r.route, err = match.Build(h, []match.Arm[string]{
		match.Case(endpoint("GET", "/api/users"), reply("200 OK - Returning list of users")),
		match.Case(endpoint("POST", "/api/users"), reply("201 Created - User created successfully")),
		match.When(pattern.Destructure("Request", pattern.Wildcard(), pattern.OfKind(runtime.KindString, "path"), pattern.Bind("headers")), func(env *runtime.Bindings) (bool, error) {
			ok, err := admin(env)
			if !ok || err != nil {
				return false, err
			}
			headers, err := env.Mapping("headers")
			if err != nil {
				return false, err
			}
			return !headers.Has("Authorization"), nil
		}, reply("401 Unauthorized - Missing authorization")),
		match.When(pattern.Destructure("Request", pattern.Wildcard(), pattern.OfKind(runtime.KindString, "path"), pattern.Wildcard()), admin,
			reply("200 OK - Admin API access granted")),
		match.Case(pattern.Wildcard(), reply("404 Not Found - Unknown endpoint")),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Router) Route(req runtime.Value) (string, error) {
	return r.route.Match(req)
}

// Request builds a request; headers are given as alternating names and
// values.
func (r *Router) Request(method, path string, headers ...string) *runtime.VariantValue {
	entries := make([]runtime.Entry, 0, len(headers)/2)
	for i := 0; i+1 < len(headers); i += 2 {
		entries = append(entries, runtime.Entry{Key: headers[i], Value: runtime.Str(headers[i+1])})
	}
	return r.Hierarchy.MustNew("Request", runtime.Str(method), runtime.Str(path), runtime.NewMapping(entries...))
}
