package rest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
)

// APIPrefix is where the versioned API is mounted and what the document's
// server URL points at.
const APIPrefix = "/api/v1"

// LoadOpenAPI reads and validates the API document at path.
func LoadOpenAPI(ctx context.Context, path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// Route is a method and path pair relative to APIPrefix.
type Route struct {
	Method string
	Path   string
}

func (r Route) String() string { return r.Method + " " + r.Path }

// MountedRoutes lists every API route registered on router.
func MountedRoutes(router chi.Routes) ([]Route, error) {
	var routes []Route
	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if !strings.HasPrefix(route, APIPrefix+"/") {
			return nil
		}
		path := strings.TrimPrefix(route, APIPrefix)
		if len(path) > 1 {
			path = strings.TrimSuffix(path, "/")
		}
		routes = append(routes, Route{Method: method, Path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortRoutes(routes)
	return routes, nil
}

// DocumentedRoutes lists every operation in doc.
func DocumentedRoutes(doc *openapi3.T) []Route {
	var routes []Route
	for path, item := range doc.Paths.Map() {
		for method := range item.Operations() {
			routes = append(routes, Route{Method: strings.ToUpper(method), Path: path})
		}
	}
	sortRoutes(routes)
	return routes
}

// RouteDrift compares the mounted routes with the document. undocumented
// holds routes served but not described, stale the reverse.
func RouteDrift(doc *openapi3.T, router chi.Routes) (undocumented, stale []Route, err error) {
	mounted, err := MountedRoutes(router)
	if err != nil {
		return nil, nil, err
	}
	documented := DocumentedRoutes(doc)

	inDoc := make(map[Route]bool, len(documented))
	for _, r := range documented {
		inDoc[r] = true
	}
	served := make(map[Route]bool, len(mounted))
	for _, r := range mounted {
		served[r] = true
		if !inDoc[r] {
			undocumented = append(undocumented, r)
		}
	}
	for _, r := range documented {
		if !served[r] {
			stale = append(stale, r)
		}
	}
	return undocumented, stale, nil
}

func sortRoutes(routes []Route) {
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
}
