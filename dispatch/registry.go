package dispatch

import (
	"sort"

	"github.com/ochinchina/wlreplay/workload"
)

// Route binds a (service, action) pair to its request builder
type Route struct {
	Service string
	Action  string
	Build   Builder
	// FailureBody, when set, is reported instead of the error text if the
	// command cannot be built or sent
	FailureBody string
}

type routeKey struct {
	service string
	action  string
}

// Registry maps (service, action) pairs to routes
type Registry struct {
	routes map[routeKey]Route
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{routes: make(map[routeKey]Route)}
}

// Register adds or replaces a route
func (r *Registry) Register(route Route) {
	r.routes[routeKey{route.Service, route.Action}] = route
}

// Lookup finds the route of a (service, action) pair
func (r *Registry) Lookup(service string, action string) (Route, bool) {
	route, ok := r.routes[routeKey{service, action}]
	return route, ok
}

// Routes returns all routes sorted by service then action
func (r *Registry) Routes() []Route {
	result := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		result = append(result, route)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Service != result[j].Service {
			return result[i].Service < result[j].Service
		}
		return result[i].Action < result[j].Action
	})
	return result
}

// NewOrderServiceRegistry returns the routes served by the order service
func NewOrderServiceRegistry() *Registry {
	r := NewRegistry()

	r.Register(Route{Service: workload.User, Action: "create", Build: positional("user create", "/user", "create",
		field{"id", 'd'}, field{"username", 's'}, field{"email", 's'}, field{"password", 's'})})
	r.Register(Route{Service: workload.User, Action: "get", Build: lookup("user get", "/user")})
	r.Register(Route{Service: workload.User, Action: "update", Build: update("user update", "/user")})
	r.Register(Route{Service: workload.User, Action: "delete", Build: positional("user delete", "/user", "delete",
		field{"id", 'd'}, field{"username", 's'}, field{"email", 's'}, field{"password", 's'})})

	r.Register(Route{Service: workload.Product, Action: "create", Build: positional("product create", "/product", "create",
		field{"id", 'd'}, field{"name", 's'}, field{"description", 's'}, field{"price", 'f'}, field{"quantity", 'd'})})
	r.Register(Route{Service: workload.Product, Action: "info", Build: lookup("product info", "/product")})
	r.Register(Route{Service: workload.Product, Action: "update", Build: update("product update", "/product")})
	r.Register(Route{Service: workload.Product, Action: "delete", Build: positional("product delete", "/product", "delete",
		field{"id", 'd'}, field{"name", 's'}, field{"price", 'f'}, field{"quantity", 'd'})})

	r.Register(Route{Service: workload.Order, Action: "place", Build: positional("order place", "/order", "place order",
		field{"product_id", 'd'}, field{"user_id", 'd'}, field{"quantity", 'd'}),
		FailureBody: `{"status":"Invalid Request"}`})

	return r
}
