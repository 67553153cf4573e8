package components

// NavLink is one entry of the site navigation.
type NavLink struct {
	Label   string
	Path    string
	Section string
}

// NavData drives the top navigation bar.
type NavData struct {
	Active   string
	Links    []NavLink
	SignedIn bool
	UserName string
}

func linkState(section, active string) string {
	if section == active {
		return "active"
	}
	return "inactive"
}
