package users

import "sort"

// OAuthProvider describes a login button for an OAuth provider the backend supports
type OAuthProvider struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var providers = map[string]OAuthProvider{
	"google": {ID: "google", Name: "Google", Icon: "google", Color: "#db4437"},
	"github": {ID: "github", Name: "GitHub", Icon: "github", Color: "#24292e"},
}

// Providers returns the provider catalog ordered by ID
func Providers() []OAuthProvider {
	list := make([]OAuthProvider, 0, len(providers))
	for _, p := range providers {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Provider looks up a provider by ID
func Provider(id string) (OAuthProvider, bool) {
	p, ok := providers[id]
	return p, ok
}
