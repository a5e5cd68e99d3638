package http

// View is one of the mutually exclusive dashboard views. The selection lives in the
// request's query string and is never persisted.
type View string

const (
	ViewDevelopers   View = "developers"
	ViewAddDeveloper View = "add-developer"
	ViewSettings     View = "settings"
)

// DefaultView is shown when no view, or an unknown one, is requested.
const DefaultView = ViewDevelopers

var viewTitles = map[View]string{
	ViewDevelopers:   "Developers",
	ViewAddDeveloper: "Add Developer",
	ViewSettings:     "Settings",
}

// Views returns the navigation order.
func Views() []View {
	return []View{ViewDevelopers, ViewAddDeveloper, ViewSettings}
}

// ParseView maps a query value to a view, falling back to DefaultView.
func ParseView(value string) View {
	view := View(value)
	if _, ok := viewTitles[view]; ok {
		return view
	}
	return DefaultView
}

// Title is the navigation label.
func (v View) Title() string {
	return viewTitles[v]
}

// URL is the dashboard link selecting v.
func (v View) URL() string {
	return "/?view=" + string(v)
}
