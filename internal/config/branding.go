package config

import (
	"encoding/json"
	"os"
)

// Branding customizes the names and texts the shell shows.
type Branding struct {
	AppName         string `json:"appName"`
	LogoPath        string `json:"logoPath"`
	WindowTitle     string `json:"windowTitle"`
	WelcomeTitle    string `json:"welcomeTitle"`
	WelcomeSubtitle string `json:"welcomeSubtitle"`
	CompanyURL      string `json:"companyUrl"`
}

// DefaultBranding is used when branding.json is absent.
func DefaultBranding() Branding {
	return Branding{
		AppName:         "Biztech Tools",
		LogoPath:        "assets/logo.png",
		WindowTitle:     "Biztech Tools - PowerShell Automation",
		WelcomeTitle:    "Welcome to Biztech Tools",
		WelcomeSubtitle: "Select a script from the sidebar to get started",
		CompanyURL:      "https://trustbiztech.com",
	}
}

// LoadBranding reads branding.json at path. Fields the file leaves empty keep
// their defaults. The bool reports whether the file was used.
func LoadBranding(path string) (Branding, bool) {
	b := DefaultBranding()
	data, err := os.ReadFile(path)
	if err != nil {
		return b, false
	}
	var file Branding
	if err := json.Unmarshal(data, &file); err != nil {
		return b, false
	}
	merge := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	merge(&b.AppName, file.AppName)
	merge(&b.LogoPath, file.LogoPath)
	merge(&b.WindowTitle, file.WindowTitle)
	merge(&b.WelcomeTitle, file.WelcomeTitle)
	merge(&b.WelcomeSubtitle, file.WelcomeSubtitle)
	merge(&b.CompanyURL, file.CompanyURL)
	return b, true
}
