package httpkit

import (
	"net/http"
	"strings"
)

// MountUnder mounts a subrouter at prefix with per module middleware; an empty prefix groups in place
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	scoped := func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		mount(sub)
	}
	if prefix == "" || prefix == "/" {
		r.Group(scoped)
		return
	}
	r.Route(prefix, scoped)
}

// MountAPI mounts under /api/{version}
//
//	httpkit.MountAPIV1(r, httpkit.CommonStack(httpkit.StackOptions{}), func(api httpkit.Router) {
//		resolution.MountRoutes(api)
//	})
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountUnder(r, "/api/"+strings.Trim(version, "/"), mw, mount)
}

// MountAPIV1 is MountAPI for v1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}
