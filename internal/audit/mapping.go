package audit

import "strings"

// PortalAction holds the portal and action derived from a request path.
type PortalAction struct {
	Portal string
	Action string
}

// ParsePath derives portal and action from an auth route such as
// /hub/auth/password/reset/request. The first segment is the portal and the
// segments after "auth" join into the action (password_reset_request).
// Paths outside the auth surface get an empty portal and the raw trailing
// segments as action.
func ParsePath(path string) PortalAction {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) >= 2 && segs[1] == "auth" {
		return PortalAction{
			Portal: segs[0],
			Action: strings.Join(segs[2:], "_"),
		}
	}
	return PortalAction{Action: strings.Join(segs, "_")}
}
